package list

import "github.com/aukilabs/dagaz/pool"

// Pool returns the process-wide pool of lists of T.
func Pool[T comparable]() *pool.Pool[List[T]] {
	return pool.Shared("list["+typeName[T]()+"]", New[T])
}

// Spawn returns an empty list from the shared list pool.
func Spawn[T comparable]() *List[T] {
	return Pool[T]().Spawn()
}

// Despawn clears l, giving its nodes back to the node pool, then gives l
// back to the shared list pool.
func Despawn[T comparable](l *List[T]) {
	l.Clear()
	Pool[T]().Despawn(l)
}

// Prewarm fills the list and node pools of T.
func Prewarm[T comparable](lists, nodes int) {
	Pool[T]().Prewarm(lists)
	NodePool[T]().Prewarm(nodes)
}
