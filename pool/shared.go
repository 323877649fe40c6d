package pool

import "sync"

var shared sync.Map

// Shared returns the process-wide pool for T, creating it with the given
// name and factory on first use. Later calls return the existing pool and
// ignore their arguments.
func Shared[T any](name string, factory func() *T) *Pool[T] {
	var key *T

	if v, ok := shared.Load(key); ok {
		return v.(*Pool[T])
	}

	v, _ := shared.LoadOrStore(key, New(name, factory))
	return v.(*Pool[T])
}
