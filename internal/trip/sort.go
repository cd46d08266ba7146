package trip

import (
	"sort"
)

// SortChronologically orders photos by capture time ascending. Photos without
// a timestamp go last, and ties keep their input order. Indices 0..N-1 are
// assigned after sorting. photos and metas must have equal length.
func SortChronologically(photos []RawPhoto, metas []PhotoMetadata) []OrderedPhoto {
	ordered := make([]OrderedPhoto, len(photos))
	for i := range photos {
		ordered[i] = OrderedPhoto{Photo: photos[i], Metadata: metas[i]}
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i].Metadata.CapturedAt, ordered[j].Metadata.CapturedAt
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.Before(*b)
		}
	})

	for i := range ordered {
		ordered[i].Index = i
	}
	return ordered
}
