package lib

type Set[T comparable] map[T]struct{}

func NewSet[T comparable]() Set[T] {
	return make(Set[T])
}

func NewSetFromSlice[T comparable](slice []T) Set[T] {
	s := make(Set[T], len(slice))
	for _, v := range slice {
		s[v] = struct{}{}
	}
	return s
}

func (s Set[T]) Add(value ...T) {
	for _, v := range value {
		s[v] = struct{}{}
	}
}

func (s Set[T]) Contains(value T) bool {
	_, c := s[value]
	return c
}

func (s Set[T]) Len() int {
	return len(s)
}
