package concerns

// SkinTypePicker selects one winning skin type from a restricted candidate list.
type SkinTypePicker struct {
	// Candidates are tried in order; the first one reaching the maximum wins ties.
	Candidates []string
	// FallbackToTop returns the overall top prediction when no candidate occurs in the input.
	FallbackToTop bool

	canon *Canonicalizer
}

// NewSkinTypePicker uses canon to match candidates against prediction labels, so "Oily Skin"
// and "oily" compete as the same candidate.
func NewSkinTypePicker(candidates []string, fallbackToTop bool, canon *Canonicalizer) *SkinTypePicker {
	if canon == nil {
		canon = NewCanonicalizer(nil)
	}
	return &SkinTypePicker{
		Candidates:    append([]string(nil), candidates...),
		FallbackToTop: fallbackToTop,
		canon:         canon,
	}
}

// Pick returns nil for empty predictions or an empty candidate list.
func (p *SkinTypePicker) Pick(predictions PredictionSet) *SkinTypeSelection {
	if len(predictions) == 0 || len(p.Candidates) == 0 {
		return nil
	}

	probs := make(map[string]float64, len(predictions))
	for _, pr := range predictions {
		k := p.key(pr.Label)
		if v, ok := probs[k]; !ok || pr.Probability > v {
			probs[k] = pr.Probability
		}
	}

	var (
		best    *SkinTypeSelection
		present bool
	)
	for _, c := range p.Candidates {
		v, ok := probs[p.key(c)]
		present = present || ok
		if best == nil || v > best.Probability {
			best = &SkinTypeSelection{Label: c, Probability: v}
		}
	}

	if !present && p.FallbackToTop {
		return topPrediction(predictions)
	}
	return best
}

func (p *SkinTypePicker) key(label string) string {
	if st, ok := p.canon.Canonicalize(label); ok {
		return "skin:" + string(st)
	}
	return "label:" + label
}

// topPrediction keeps the first of equal maxima.
func topPrediction(predictions PredictionSet) *SkinTypeSelection {
	top := predictions[0]
	for _, pr := range predictions[1:] {
		if pr.Probability > top.Probability {
			top = pr
		}
	}
	return &SkinTypeSelection{Label: top.Label, Probability: top.Probability}
}
