package state

// history is an immutable newest-first list. Prepending is O(1) and never touches existing nodes,
// so a cloned ledger shares its audit trail with the original until one of them grows.
type history[T any] struct {
	head *node[T]
	size int
}

type node[T any] struct {
	value T
	next  *node[T]
}

func (h history[T]) prepend(value T) history[T] {
	return history[T]{head: &node[T]{value: value, next: h.head}, size: h.size + 1}
}

func (h history[T]) len() int {
	return h.size
}

// each visits values newest-first until fn returns false.
func (h history[T]) each(fn func(T) bool) {
	for n := h.head; n != nil; n = n.next {
		if !fn(n.value) {
			return
		}
	}
}

// historyOf builds a history from values given oldest-first.
func historyOf[T any](oldestFirst []T) history[T] {
	var h history[T]
	for _, v := range oldestFirst {
		h = h.prepend(v)
	}
	return h
}
