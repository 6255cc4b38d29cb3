package result

import "slices"

// Rank orders results best first: score descending, then faster load.
// Results without a measured load sort after measured ones at equal score.
// Remaining ties keep encounter order. The input is not modified.
func Rank(results []ProbeResult) []ProbeResult {
	out := slices.Clone(results)
	slices.SortStableFunc(out, func(a, b ProbeResult) int {
		if a.Score != b.Score {
			if a.Score > b.Score {
				return -1
			}
			return 1
		}
		al, bl := a.LoadMeasured(), b.LoadMeasured()
		switch {
		case al && bl:
			if a.LoadDuration < b.LoadDuration {
				return -1
			}
			if a.LoadDuration > b.LoadDuration {
				return 1
			}
		case al:
			return -1
		case bl:
			return 1
		}
		return 0
	})
	return out
}
