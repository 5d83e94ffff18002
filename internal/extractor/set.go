package extractor

type set[T comparable] map[T]struct{}

func newSet[T comparable]() set[T] {
	return make(set[T])
}

func (s set[T]) Add(item T) {
	s[item] = struct{}{}
}

func (s set[T]) Contains(item T) bool {
	_, exists := s[item]
	return exists
}
