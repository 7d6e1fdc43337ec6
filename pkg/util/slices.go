package util

import "slices"

// InPlaceFilter keeps only the elements of s that satisfy p, reusing the
// backing array.
func InPlaceFilter[T any](s *[]T, p func(T) bool) {
	*s = slices.DeleteFunc(*s, func(e T) bool {
		return !p(e)
	})
}
