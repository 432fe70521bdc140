// Package paginate merges successive result pages into one ordered list.
package paginate

// Merge returns page when pageNumber is 1 and existing followed by page otherwise.
// Order is preserved and items repeated across pages are kept.
func Merge[T any](existing, page []T, pageNumber int) []T {
	if pageNumber <= 1 {
		out := make([]T, len(page))
		copy(out, page)

		return out
	}

	out := make([]T, 0, len(existing)+len(page))
	out = append(out, existing...)

	return append(out, page...)
}

// MergeUnique behaves like Merge but drops items of page whose key is already
// present in the merged result.
func MergeUnique[T any, K comparable](existing, page []T, pageNumber int, key func(T) K) []T {
	var base []T
	if pageNumber > 1 {
		base = existing
	}

	seen := make(map[K]struct{}, len(base)+len(page))
	out := make([]T, 0, len(base)+len(page))
	for _, items := range [][]T{base, page} {
		for _, item := range items {
			k := key(item)
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, item)
		}
	}

	return out
}
