package util

import "github.com/hashicorp/go-set/v3"

// RemoveDuplicateStrings drops empty strings, repeats and anything on the
// ignore list, preserving first appearance order.
func RemoveDuplicateStrings(values []string, ignoreList []string) []string {
	seen := set.From(ignoreList)

	var list []string
	for _, item := range values {
		if item == "" || seen.Contains(item) {
			continue
		}

		seen.Insert(item)
		list = append(list, item)
	}

	return list
}

// TrimString cuts s down to at most length runes.
func TrimString(s string, length int) string {
	runes := []rune(s)
	if len(runes) <= length {
		return s
	}

	return string(runes[:length])
}
