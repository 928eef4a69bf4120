package utils

import (
	"cmp"
	"slices"
)

// get keys from a map, in no particular order
func MapToKeys[K comparable, V any](m map[K]V) []K {
	list := make([]K, 0, len(m))
	for obj := range m {
		list = append(list, obj)
	}
	return list
}

// get keys from a map in ascending order
func SortedKeys[K cmp.Ordered, V any](m map[K]V) []K {
	list := MapToKeys(m)
	slices.Sort(list)
	return list
}
