package concerns

import (
	"encoding/json"
	"errors"
)

// ErrInvalidConfig is returned when the engine configuration cannot produce a sane tiering.
var ErrInvalidConfig = errors.New("invalid fusion config")

// IgnoreLabel is the lesion classifier's "reject this image" class. It never maps to a concern.
const IgnoreLabel = "Do not consider this image"

// Prediction is one (label, probability) pair emitted by a classifier.
// Probability is trusted to be in [0,1].
type Prediction struct {
	Label       string  `json:"label" yaml:"label"`
	Probability float64 `json:"probability" yaml:"probability"`
}

// PredictionSet is the output of one classifier invocation.
type PredictionSet []Prediction

// Scored is a label with its final probability, as shown to users.
type Scored struct {
	Label       string  `json:"label"`
	Probability float64 `json:"probability"`
}

// AggregatedConcern is a concern bucket after combining its contributors.
type AggregatedConcern struct {
	Concern      string       `json:"concern"`
	Probability  float64      `json:"probability"`
	Contributors []Prediction `json:"contributors,omitempty"`
}

// SkinTypeSelection is the single winning skin type label.
type SkinTypeSelection struct {
	Label       string  `json:"label"`
	Probability float64 `json:"probability"`
}

// MergedConcern is the deduplicated record produced by Merge.
type MergedConcern struct {
	Label       string   `json:"-"`
	Probability float64  `json:"probability"`
	Sources     []string `json:"sources"`
}

// Result is the payload returned to the API layer.
type Result struct {
	SkinType     *SkinTypeSelection       `json:"skin_type"`
	SkinConcerns []Scored                 `json:"skin_concerns"`
	MainConcerns []Scored                 `json:"main_concerns"`
	LowConcerns  []Scored                 `json:"low_concerns"`
	Merged       map[string]MergedConcern `json:"merged"`
}

// UnmarshalJSON restores MergedConcern.Label from the merged map keys.
func (r *Result) UnmarshalJSON(b []byte) error {
	type plain Result
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	for label, m := range p.Merged {
		m.Label = label
		p.Merged[label] = m
	}
	*r = Result(p)
	return nil
}
