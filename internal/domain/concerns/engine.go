package concerns

import (
	"fmt"
	"math"
)

// Mode selects how the two classifiers are fused.
type Mode string

const (
	// ModeSectioned keeps condition concerns apart from lesion concerns and merges the sections.
	ModeSectioned Mode = "sectioned"
	// ModePooled pools both classifiers into one bucket set before aggregation.
	ModePooled Mode = "pooled"
)

// Config parameterizes the engine. It is validated once by NewEngine.
type Config struct {
	Mode       Mode          `json:"mode" yaml:"mode"`
	Combine    CombineMethod `json:"combine" yaml:"combine"`
	Thresholds Thresholds    `json:"thresholds" yaml:"thresholds"`
	// ConditionThreshold keeps condition concerns with p >= ConditionThreshold (sectioned mode).
	ConditionThreshold float64 `json:"condition_threshold" yaml:"condition_threshold"`
	// TopKMain and TopKLow truncate the tiered lists; zero keeps everything.
	TopKMain      int      `json:"top_k_main" yaml:"top_k_main"`
	TopKLow       int      `json:"top_k_low" yaml:"top_k_low"`
	SkinTypes     []string `json:"skin_types" yaml:"skin_types"`
	FallbackToTop bool     `json:"fallback_to_top" yaml:"fallback_to_top"`
}

// DefaultSkinTypes is the condition classifier's skin type candidate list.
func DefaultSkinTypes() []string {
	return []string{"Oily Skin", "Dry Skin", "Normal Skin"}
}

// DefaultConfig is the production pipeline: max-aggregate, then a two-threshold split.
func DefaultConfig() Config {
	return Config{
		Mode:               ModeSectioned,
		Combine:            CombineMax,
		Thresholds:         Thresholds{High: 0.30, Low: 0.15, LowInclusive: true},
		ConditionThreshold: 0.15,
		SkinTypes:          DefaultSkinTypes(),
	}
}

// PooledConfig is the combined variant: noisy-or over both classifiers with an epsilon band.
func PooledConfig() Config {
	return Config{
		Mode:       ModePooled,
		Combine:    CombineNoisyOr,
		Thresholds: BandedThresholds(0.30, 0.05),
		TopKMain:   25,
		TopKLow:    25,
		SkinTypes:  DefaultSkinTypes(),
	}
}

// Validate reports the first configuration problem, wrapped in ErrInvalidConfig.
func (c Config) Validate() error {
	switch c.Mode {
	case ModeSectioned, ModePooled:
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidConfig, c.Mode)
	}
	if _, err := ParseCombineMethod(string(c.Combine)); err != nil {
		return err
	}
	if err := c.Thresholds.Validate(); err != nil {
		return err
	}
	if math.IsNaN(c.ConditionThreshold) || math.IsInf(c.ConditionThreshold, 0) {
		return fmt.Errorf("%w: condition threshold must be finite", ErrInvalidConfig)
	}
	if c.TopKMain < 0 || c.TopKLow < 0 {
		return fmt.Errorf("%w: top-k limits must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Engine fuses condition and lesion predictions into ranked concerns.
// It holds only immutable configuration and is safe for concurrent use.
type Engine struct {
	cfg        Config
	conditions *Taxonomy
	lesions    *Taxonomy
	canon      *Canonicalizer
	picker     *SkinTypePicker
}

// Option customizes an Engine.
type Option func(*Engine)

// WithTaxonomies replaces the default vocabularies. Nil keeps the default for that classifier.
func WithTaxonomies(conditions, lesions *Taxonomy) Option {
	return func(e *Engine) {
		if conditions != nil {
			e.conditions = conditions
		}
		if lesions != nil {
			e.lesions = lesions
		}
	}
}

// WithCanonicalizer replaces the skin type alias table.
func WithCanonicalizer(c *Canonicalizer) Option {
	return func(e *Engine) {
		if c != nil {
			e.canon = c
		}
	}
}

// NewEngine validates cfg and builds an engine.
func NewEngine(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		cfg:        cfg,
		conditions: DefaultConditionTaxonomy(),
		lesions:    DefaultLesionTaxonomy(),
		canon:      NewCanonicalizer(nil),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.cfg.SkinTypes = append([]string(nil), cfg.SkinTypes...)
	e.picker = NewSkinTypePicker(e.cfg.SkinTypes, cfg.FallbackToTop, e.canon)
	return e, nil
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() Config {
	c := e.cfg
	c.SkinTypes = append([]string(nil), e.cfg.SkinTypes...)
	return c
}

// Canonicalizer returns the skin type alias table the engine uses. It is read-only.
func (e *Engine) Canonicalizer() *Canonicalizer {
	return e.canon
}

// Taxonomy returns the vocabulary for "conditions" or "lesions".
func (e *Engine) Taxonomy(classifier string) (*Taxonomy, bool) {
	switch classifier {
	case SourceConditions:
		return e.conditions, true
	case SourceLesions:
		return e.lesions, true
	default:
		return nil, false
	}
}

// MapLabel maps a raw label to a concern. Skin type labels, the ignore sentinel and unmapped
// labels report false.
func (e *Engine) MapLabel(raw string, t *Taxonomy) (string, bool) {
	if raw == IgnoreLabel || e.canon.IsSkinType(raw) {
		return "", false
	}
	return t.Lookup(raw)
}

// Aggregate maps every prediction in set through t and combines each concern's contributors.
// Concerns keep the order in which their first contributor appeared.
func (e *Engine) Aggregate(set PredictionSet, t *Taxonomy) []AggregatedConcern {
	b := newBucket()
	e.collect(b, set, t)
	return b.aggregate(e.cfg.Combine)
}

func (e *Engine) collect(b *bucket, set PredictionSet, t *Taxonomy) {
	for _, p := range set {
		if c, ok := e.MapLabel(p.Label, t); ok {
			b.add(c, p)
		}
	}
}

// PickSkinType applies the configured skin type picker to the condition predictions.
func (e *Engine) PickSkinType(conditions PredictionSet) *SkinTypeSelection {
	return e.picker.Pick(conditions)
}

// Fuse runs the full pipeline for one inference call.
func (e *Engine) Fuse(conditions, lesions PredictionSet) Result {
	res := Result{
		SkinType:     e.picker.Pick(conditions),
		SkinConcerns: []Scored{},
	}

	switch e.cfg.Mode {
	case ModePooled:
		b := newBucket()
		e.collect(b, conditions, e.conditions)
		e.collect(b, lesions, e.lesions)
		res.MainConcerns, res.LowConcerns = e.cfg.Thresholds.Split(b.aggregate(e.cfg.Combine), e.cfg.TopKMain, e.cfg.TopKLow)
		res.Merged = Merge([]Section{
			{Tag: SourceCombined, Items: res.MainConcerns},
			{Tag: SourceCombinedLow, Items: res.LowConcerns},
		})
	default:
		for _, c := range e.Aggregate(conditions, e.conditions) {
			if c.Probability >= e.cfg.ConditionThreshold {
				res.SkinConcerns = append(res.SkinConcerns, Scored{Label: c.Concern, Probability: c.Probability})
			}
		}
		sortScored(res.SkinConcerns)
		res.MainConcerns, res.LowConcerns = e.cfg.Thresholds.Split(e.Aggregate(lesions, e.lesions), e.cfg.TopKMain, e.cfg.TopKLow)
		res.Merged = Merge([]Section{
			{Tag: SourceConditions, Items: res.SkinConcerns},
			{Tag: SourceLesions, Items: res.MainConcerns},
			{Tag: SourceLesionsLow, Items: res.LowConcerns},
		})
	}
	return res
}
