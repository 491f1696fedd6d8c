package concerns

import (
	"fmt"
	"math"
	"sort"
)

// Tier is a confidence bucket for an aggregated concern.
type Tier int

const (
	TierDropped Tier = iota
	TierLow
	TierHigh
)

func (t Tier) String() string {
	switch t {
	case TierHigh:
		return "high"
	case TierLow:
		return "low"
	default:
		return "dropped"
	}
}

// Thresholds tier a probability. LowInclusive picks whether p == Low lands in TierLow.
type Thresholds struct {
	High         float64 `json:"high" yaml:"high"`
	Low          float64 `json:"low" yaml:"low"`
	LowInclusive bool    `json:"low_inclusive" yaml:"low_inclusive"`
}

// BandedThresholds builds the single-cutoff variant: everything within eps below minProb is still
// main, and only values strictly above eps are kept as low.
func BandedThresholds(minProb, eps float64) Thresholds {
	return Thresholds{High: minProb - eps, Low: eps, LowInclusive: false}
}

// Validate rejects inverted or non-finite thresholds.
func (t Thresholds) Validate() error {
	if math.IsNaN(t.High) || math.IsNaN(t.Low) || math.IsInf(t.High, 0) || math.IsInf(t.Low, 0) {
		return fmt.Errorf("%w: thresholds must be finite (high=%v low=%v)", ErrInvalidConfig, t.High, t.Low)
	}
	if t.Low > t.High {
		return fmt.Errorf("%w: low threshold %.3f exceeds high threshold %.3f", ErrInvalidConfig, t.Low, t.High)
	}
	return nil
}

// Classify assigns p to a tier.
func (t Thresholds) Classify(p float64) Tier {
	switch {
	case p >= t.High:
		return TierHigh
	case t.LowInclusive && p >= t.Low:
		return TierLow
	case !t.LowInclusive && p > t.Low:
		return TierLow
	default:
		return TierDropped
	}
}

// Split tiers concerns into descending High and Low lists. topHigh and topLow truncate each list
// after sorting; zero means no limit.
func (t Thresholds) Split(concerns []AggregatedConcern, topHigh, topLow int) (high, low []Scored) {
	high, low = []Scored{}, []Scored{}
	for _, c := range concerns {
		switch t.Classify(c.Probability) {
		case TierHigh:
			high = append(high, Scored{Label: c.Concern, Probability: c.Probability})
		case TierLow:
			low = append(low, Scored{Label: c.Concern, Probability: c.Probability})
		}
	}
	return truncate(sortScored(high), topHigh), truncate(sortScored(low), topLow)
}

// sortScored orders by probability descending, then label, so output does not depend on map order.
func sortScored(s []Scored) []Scored {
	sort.SliceStable(s, func(i, j int) bool {
		if s[i].Probability != s[j].Probability {
			return s[i].Probability > s[j].Probability
		}
		return s[i].Label < s[j].Label
	})
	return s
}

func truncate(s []Scored, k int) []Scored {
	if k > 0 && len(s) > k {
		return s[:k]
	}
	return s
}
