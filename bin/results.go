package bin

// ResultSet collects query results without duplicates. An item stored in
// several cells of a queried region appears once.
type ResultSet[T comparable] map[T]struct{}

// NewResultSet returns an empty set with room for capacity items.
func NewResultSet[T comparable](capacity int) ResultSet[T] {
	return make(ResultSet[T], capacity)
}

func (s ResultSet[T]) Add(v T) {
	s[v] = struct{}{}
}

func (s ResultSet[T]) Contains(v T) bool {
	_, ok := s[v]
	return ok
}

func (s ResultSet[T]) Len() int {
	return len(s)
}

// Reset removes every item while keeping the allocated buckets.
func (s ResultSet[T]) Reset() {
	clear(s)
}

// Items returns the set content in no particular order.
func (s ResultSet[T]) Items() []T {
	items := make([]T, 0, len(s))
	for v := range s {
		items = append(items, v)
	}
	return items
}
