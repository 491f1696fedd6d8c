package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bryanwahyu/skinlens/internal/domain/concerns"
)

func TestScore(t *testing.T) {
	merged := map[string]concerns.MergedConcern{
		"Acne":     {Probability: 0.5, Sources: []string{"lesions"}},
		"Redness":  {Probability: 0.2, Sources: []string{"lesions-low"}},
		"Scarring": {Probability: 0.4, Sources: []string{"lesions"}},
	}
	p := &Product{
		Concerns:  []string{"Scarring", "Acne", "Dryness/Flaking"},
		SkinTypes: []string{"oily_skin", "normal_skin"},
	}

	score, matches := Score(p, merged, "oily_skin")
	assert.InDelta(t, 2*0.5+2*0.4+1, score, 1e-9)
	assert.Equal(t, []string{"Acne", "Scarring", "skin:oily_skin"}, matches)

	score, matches = Score(p, merged, "dry_skin")
	assert.InDelta(t, 1.8, score, 1e-9)
	assert.Equal(t, []string{"Acne", "Scarring"}, matches)
}

func TestScore_NoMatch(t *testing.T) {
	score, matches := Score(&Product{Concerns: []string{"Hives"}}, nil, "")
	assert.Zero(t, score)
	assert.Empty(t, matches)
}

func TestSkinTypeKey(t *testing.T) {
	tests := []struct {
		label string
		want  string
		ok    bool
	}{
		{"Oily Skin", "oily_skin", true},
		{"dry", "dry_skin", true},
		{" Normal Skin ", "normal_skin", true},
		{"Combination", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := SkinTypeKey(tt.label, nil)
		assert.Equal(t, tt.ok, ok, tt.label)
		assert.Equal(t, tt.want, got, tt.label)
	}
}
