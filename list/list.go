// Package list implements a doubly linked list whose nodes are drawn from a
// process-wide pool instead of being allocated on every insertion.
package list

import (
	"iter"
	"reflect"

	"github.com/aukilabs/dagaz/pool"
)

// Node is an element of a List.
type Node[T comparable] struct {
	Value T

	next *Node[T]
	prev *Node[T]
}

// Next returns the next node or nil.
func (n *Node[T]) Next() *Node[T] {
	return n.next
}

// List is a doubly linked list of T. The zero value is an empty list ready
// to use.
//
// Lists are not safe for concurrent use.
type List[T comparable] struct {
	head  *Node[T]
	tail  *Node[T]
	count int
	nodes *pool.Pool[Node[T]]
}

// New returns an empty list.
func New[T comparable]() *List[T] {
	return &List[T]{nodes: NodePool[T]()}
}

// NodePool returns the process-wide node pool shared by every list of T.
func NodePool[T comparable]() *pool.Pool[Node[T]] {
	return pool.Shared("list_node["+typeName[T]()+"]", func() *Node[T] {
		return &Node[T]{}
	})
}

// Count returns the number of elements.
func (l *List[T]) Count() int {
	return l.count
}

// First returns the head node or nil when the list is empty.
func (l *List[T]) First() *Node[T] {
	return l.head
}

// AddLast appends v to the end of the list.
func (l *List[T]) AddLast(v T) *Node[T] {
	n := l.pool().Spawn()
	n.Value = v
	n.prev = l.tail
	n.next = nil

	if l.tail == nil {
		l.head = n
	} else {
		l.tail.next = n
	}
	l.tail = n
	l.count++
	return n
}

// Remove removes the first element equal to v. It reports whether an element
// was removed.
func (l *List[T]) Remove(v T) bool {
	for n := l.head; n != nil; n = n.next {
		if n.Value == v {
			l.unlink(n)
			l.release(n)
			return true
		}
	}
	return false
}

// Clear removes every element and gives the nodes back to the pool.
func (l *List[T]) Clear() {
	n := l.head
	for n != nil {
		next := n.next
		l.release(n)
		n = next
	}

	l.head = nil
	l.tail = nil
	l.count = 0
}

// All returns an iterator over the list values, from head to tail.
func (l *List[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for n := l.head; n != nil; n = n.next {
			if !yield(n.Value) {
				return
			}
		}
	}
}

func (l *List[T]) unlink(n *Node[T]) {
	if n.prev == nil {
		l.head = n.next
	} else {
		n.prev.next = n.next
	}

	if n.next == nil {
		l.tail = n.prev
	} else {
		n.next.prev = n.prev
	}
	l.count--
}

func (l *List[T]) release(n *Node[T]) {
	var zero T
	n.Value = zero
	n.next = nil
	n.prev = nil
	l.pool().Despawn(n)
}

func (l *List[T]) pool() *pool.Pool[Node[T]] {
	if l.nodes == nil {
		l.nodes = NodePool[T]()
	}
	return l.nodes
}

// typeName qualifies named types with their full package path so that
// pools of same-named types from different packages get distinct labels.
func typeName[T any]() string {
	return qualifiedName(reflect.TypeFor[T]())
}

func qualifiedName(t reflect.Type) string {
	switch {
	case t.PkgPath() != "" && t.Name() != "":
		return t.PkgPath() + "." + t.Name()

	case t.Kind() == reflect.Pointer:
		return "*" + qualifiedName(t.Elem())

	default:
		return t.String()
	}
}
