package concerns

import "slices"

// Section tags used by the production pipeline.
const (
	SourceConditions  = "conditions"
	SourceLesions     = "lesions"
	SourceLesionsLow  = "lesions-low"
	SourceCombined    = "combined"
	SourceCombinedLow = "combined-low"
	SourceManual      = "manual"
)

// Section is one already-tiered concern list with the tag recorded as its provenance.
type Section struct {
	Tag   string
	Items []Scored
}

// Merge folds sections in order into one map keyed by label. A label's probability is the max
// over every section that listed it, and Sources lists those sections' tags in first-seen order.
func Merge(sections []Section) map[string]MergedConcern {
	merged := make(map[string]MergedConcern)
	for _, s := range sections {
		for _, it := range s.Items {
			m, ok := merged[it.Label]
			if !ok {
				merged[it.Label] = MergedConcern{
					Label:       it.Label,
					Probability: it.Probability,
					Sources:     []string{s.Tag},
				}
				continue
			}
			if it.Probability > m.Probability {
				m.Probability = it.Probability
			}
			if !slices.Contains(m.Sources, s.Tag) {
				m.Sources = append(m.Sources, s.Tag)
			}
			merged[it.Label] = m
		}
	}
	return merged
}

