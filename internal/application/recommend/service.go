package recommend

import (
	"context"
	"errors"
	"math"
	"sort"
	"strings"

	"github.com/bryanwahyu/skinlens/internal/domain/catalog"
	"github.com/bryanwahyu/skinlens/internal/domain/concerns"
	"github.com/bryanwahyu/skinlens/internal/domain/profiles"
)

const (
	candidateLimit = 300
	resultLimit    = 48
	// manualProbability is assigned to concerns the client names explicitly.
	manualProbability = 0.3

	genericLimit = 24
	// topRatedMinRatings keeps products with only a couple of ratings out of top_rated.
	topRatedMinRatings = 2
)

// Service ranks catalog products against a user's merged concerns.
type Service struct {
	Catalog  catalog.Repository
	Profiles profiles.Repository
	Canon    *concerns.Canonicalizer
}

// Query selects the signals to rank against. A stored profile for UserID wins over manual signals.
type Query struct {
	TenantID string
	UserID   string
	SkinType string
	Concerns []string
}

// Item is one ranked product.
type Item struct {
	Product *catalog.Product `json:"product"`
	Score   float64          `json:"score"`
	Matches []string         `json:"matches"`
}

// Generic picks are shown when there is nothing to personalize on.
type Generic struct {
	NewArrivals []*catalog.Product `json:"new_arrivals"`
	TopRated    []*catalog.Product `json:"top_rated"`
}

// Result lists recommendations. Personalized is false when no signals were available,
// and Generic is filled instead of Items.
type Result struct {
	Personalized bool     `json:"personalized"`
	Reason       string   `json:"reason,omitempty"`
	SkinType     string   `json:"skin_type,omitempty"`
	Signals      []string `json:"signals"`
	Items        []Item   `json:"items"`
	Generic      *Generic `json:"generic,omitempty"`
}

// Recommend ranks up to 48 products, best first.
func (s *Service) Recommend(ctx context.Context, q Query) (Result, error) {
	skinLabel, merged, err := s.signals(ctx, q)
	if err != nil {
		return Result{}, err
	}
	if merged == nil {
		generic, err := s.generic(ctx, q.TenantID)
		if err != nil {
			return Result{}, err
		}
		return Result{
			Personalized: false,
			Reason:       "no profile and no signals supplied, showing generic picks",
			Signals:      []string{},
			Items:        []Item{},
			Generic:      generic,
		}, nil
	}

	products, err := s.Catalog.ListPublic(ctx, q.TenantID, candidateLimit)
	if err != nil {
		return Result{}, err
	}

	skinKey, _ := catalog.SkinTypeKey(skinLabel, s.Canon)
	items := make([]Item, 0, len(products))
	for _, p := range products {
		score, matches := catalog.Score(p, merged, skinKey)
		if score <= 0 {
			continue
		}
		items = append(items, Item{Product: p, Score: math.Round(score*1000) / 1000, Matches: matches})
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Score > items[j].Score })
	if len(items) > resultLimit {
		items = items[:resultLimit]
	}

	signals := make([]string, 0, len(merged))
	for lbl := range merged {
		signals = append(signals, lbl)
	}
	sort.Strings(signals)

	return Result{
		Personalized: true,
		SkinType:     skinLabel,
		Signals:      signals,
		Items:        items,
	}, nil
}

func (s *Service) generic(ctx context.Context, tenant string) (*Generic, error) {
	arrivals, err := s.Catalog.ListPublic(ctx, tenant, genericLimit)
	if err != nil {
		return nil, err
	}
	rated, err := s.Catalog.ListTopRated(ctx, tenant, topRatedMinRatings, genericLimit)
	if err != nil {
		return nil, err
	}
	g := &Generic{NewArrivals: arrivals, TopRated: rated}
	if g.NewArrivals == nil {
		g.NewArrivals = []*catalog.Product{}
	}
	if g.TopRated == nil {
		g.TopRated = []*catalog.Product{}
	}
	return g, nil
}

// signals returns a nil map when the query carries nothing to rank against.
func (s *Service) signals(ctx context.Context, q Query) (string, map[string]concerns.MergedConcern, error) {
	if q.UserID != "" && s.Profiles != nil {
		p, err := s.Profiles.Get(ctx, q.TenantID, q.UserID)
		switch {
		case err == nil:
			merged := p.Result.Merged
			if merged == nil {
				merged = map[string]concerns.MergedConcern{}
			}
			return p.SkinTypeLabel(), merged, nil
		case !errors.Is(err, profiles.ErrNotFound):
			return "", nil, err
		}
	}

	skin := strings.TrimSpace(q.SkinType)
	var manual []concerns.Scored
	for _, c := range q.Concerns {
		if c = strings.TrimSpace(c); c != "" {
			manual = append(manual, concerns.Scored{Label: c, Probability: manualProbability})
		}
	}
	if skin == "" && len(manual) == 0 {
		return "", nil, nil
	}
	return skin, concerns.Merge([]concerns.Section{{Tag: concerns.SourceManual, Items: manual}}), nil
}
