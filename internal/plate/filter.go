package plate

import "sort"

// FilterCandidates returns the outlines that pass cfg.Admit, in input order.
// Rejected outlines are dropped silently.
func FilterCandidates(outlines []Outline, cfg Config) []Outline {
	candidates := make([]Outline, 0, len(outlines))
	for _, o := range outlines {
		if cfg.Admit(o.Rect) {
			candidates = append(candidates, o)
		}
	}
	return candidates
}

// SortLeftToRight orders candidates by ascending Rect.X. Candidates sharing an
// X keep descending ID order, which is the order produced by inserting IDs
// from highest to lowest into a sorted list.
//
// The input slice is not modified.
func SortLeftToRight(candidates []Outline) []Outline {
	sorted := make([]Outline, len(candidates))
	copy(sorted, candidates)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ID > sorted[j].ID
	})
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Rect.X < sorted[j].Rect.X
	})
	return sorted
}
