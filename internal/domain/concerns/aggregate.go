package concerns

import "fmt"

// CombineMethod selects how several probabilities for one concern collapse into one score.
type CombineMethod string

const (
	CombineMax     CombineMethod = "max"
	CombineAvg     CombineMethod = "avg"
	CombineNoisyOr CombineMethod = "noisy_or"
)

// ParseCombineMethod validates a configured method name.
func ParseCombineMethod(s string) (CombineMethod, error) {
	switch m := CombineMethod(s); m {
	case CombineMax, CombineAvg, CombineNoisyOr:
		return m, nil
	default:
		return "", fmt.Errorf("%w: unknown combine method %q", ErrInvalidConfig, s)
	}
}

// Aggregate combines contributor probabilities. Empty input yields 0.
// Inputs are not clamped; values outside [0,1] give meaningless but finite results.
func Aggregate(values []float64, method CombineMethod) float64 {
	if len(values) == 0 {
		return 0
	}
	switch method {
	case CombineAvg:
		var sum float64
		for _, v := range values {
			sum += v
		}
		return sum / float64(len(values))
	case CombineNoisyOr:
		return noisyOr(values)
	default:
		best := values[0]
		for _, v := range values[1:] {
			if v > best {
				best = v
			}
		}
		return best
	}
}

// 1 - prod(1 - p_i)
func noisyOr(values []float64) float64 {
	miss := 1.0
	for _, v := range values {
		miss *= 1 - v
	}
	return 1 - miss
}

// bucket accumulates the contributors of one concern in first-seen order.
type bucket struct {
	order   []string
	members map[string][]Prediction
}

func newBucket() *bucket {
	return &bucket{members: make(map[string][]Prediction)}
}

func (b *bucket) add(concern string, p Prediction) {
	if _, ok := b.members[concern]; !ok {
		b.order = append(b.order, concern)
	}
	b.members[concern] = append(b.members[concern], p)
}

func (b *bucket) aggregate(method CombineMethod) []AggregatedConcern {
	out := make([]AggregatedConcern, 0, len(b.order))
	for _, c := range b.order {
		contributors := b.members[c]
		values := make([]float64, len(contributors))
		for i, p := range contributors {
			values[i] = p.Probability
		}
		out = append(out, AggregatedConcern{
			Concern:      c,
			Probability:  Aggregate(values, method),
			Contributors: contributors,
		})
	}
	return out
}
