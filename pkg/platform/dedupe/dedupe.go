// Package dedupe provides slice cleanup helpers for identifier lists
// arriving from clients.
package dedupe

// IDs removes duplicates and non-positive values from a slice of
// identifiers. Order is preserved.
//
// Example:
//
//	IDs([]int64{3, 0, 7, 3, -1})
//	// Returns: []int64{3, 7}
func IDs(ids []int64) []int64 {
	if len(ids) == 0 {
		return ids
	}

	seen := make(map[int64]struct{}, len(ids))
	result := make([]int64, 0, len(ids))

	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			result = append(result, id)
		}
	}

	return result
}

// Contains reports whether id appears in ids.
func Contains(ids []int64, id int64) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
