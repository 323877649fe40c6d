// Package pool provides free-list object pools with strict ownership
// tracking. Pools are shared process-wide by Go type through Shared.
package pool

import (
	"sync"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	ErrTypeDoubleDespawn = "pool_double_despawn"
	ErrTypeNilDespawn    = "pool_nil_despawn"
)

// Pool is a free list of reusable *T instances. New instances are created
// with the factory when the free list is empty.
//
// Unlike sync.Pool, instances are never dropped by the garbage collector:
// Available, InUse and Created always describe the exact state of the pool.
type Pool[T any] struct {
	name    string
	factory func() *T

	mutex   sync.Mutex
	free    []*T
	freeSet map[*T]struct{}
	inUse   int
	created int

	available prometheus.Gauge
	spawned   prometheus.Gauge
	creations prometheus.Counter
	spawns    prometheus.Counter
}

// New returns a pool that creates instances with the given factory. The
// name labels the pool metrics.
func New[T any](name string, factory func() *T) *Pool[T] {
	if factory == nil {
		factory = func() *T { return new(T) }
	}

	return &Pool[T]{
		name:      name,
		factory:   factory,
		freeSet:   make(map[*T]struct{}),
		available: poolAvailable.With(prometheus.Labels{poolLabel: name}),
		spawned:   poolInUse.With(prometheus.Labels{poolLabel: name}),
		creations: poolCreatedTotal.With(prometheus.Labels{poolLabel: name}),
		spawns:    poolSpawnTotal.With(prometheus.Labels{poolLabel: name}),
	}
}

// Name returns the pool name.
func (p *Pool[T]) Name() string {
	return p.name
}

// Spawn returns an instance from the free list, or a new one from the
// factory when the free list is empty.
func (p *Pool[T]) Spawn() *T {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	var v *T
	if n := len(p.free); n != 0 {
		v = p.free[n-1]
		p.free[n-1] = nil
		p.free = p.free[:n-1]
		delete(p.freeSet, v)
		p.available.Dec()
	} else {
		v = p.factory()
		p.created++
		p.creations.Inc()
	}

	p.inUse++
	p.spawned.Inc()
	p.spawns.Inc()
	return v
}

// Despawn gives an instance back to the pool. The pool does not reset the
// instance; callers must drop any reference it holds before despawning it.
//
// Despawning nil or an instance that is already in the free list panics.
func (p *Pool[T]) Despawn(v *T) {
	if v == nil {
		panic(errors.New("despawning a nil instance").
			WithType(ErrTypeNilDespawn).
			WithTag("pool", p.name))
	}

	p.mutex.Lock()
	defer p.mutex.Unlock()

	if _, ok := p.freeSet[v]; ok {
		panic(errors.New("instance despawned twice").
			WithType(ErrTypeDoubleDespawn).
			WithTag("pool", p.name))
	}

	p.free = append(p.free, v)
	p.freeSet[v] = struct{}{}
	p.available.Inc()

	if p.inUse > 0 {
		p.inUse--
		p.spawned.Dec()
	}
}

// Prewarm creates instances until at least n of them are available.
func (p *Pool[T]) Prewarm(n int) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	for len(p.free) < n {
		v := p.factory()
		p.free = append(p.free, v)
		p.freeSet[v] = struct{}{}
		p.created++
		p.creations.Inc()
		p.available.Inc()
	}
}

// Available returns the number of instances held in the free list.
func (p *Pool[T]) Available() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	return len(p.free)
}

// InUse returns the number of spawned instances that were not despawned yet.
func (p *Pool[T]) InUse() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	return p.inUse
}

// Created returns the number of instances the factory created.
func (p *Pool[T]) Created() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	return p.created
}

// Stats returns a snapshot of the pool counters.
func (p *Pool[T]) Stats() Stats {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	return Stats{
		Name:      p.name,
		Available: len(p.free),
		InUse:     p.inUse,
		Created:   p.created,
	}
}

// Stats is a snapshot of a pool counters.
type Stats struct {
	Name      string `json:"name"`
	Available int    `json:"available"`
	InUse     int    `json:"in_use"`
	Created   int    `json:"created"`
}
