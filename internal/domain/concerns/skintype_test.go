package concerns

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalizer_Defaults(t *testing.T) {
	c := NewCanonicalizer(nil)
	tests := []struct {
		raw  string
		want SkinType
		ok   bool
	}{
		{"Oily Skin", SkinOily, true},
		{"  oily  ", SkinOily, true},
		{"NORMAL SKIN", SkinNormal, true},
		{"normal", SkinNormal, true},
		{"Dry Skin", SkinDry, true},
		{"dry", SkinDry, true},
		{"oily-skin", "", false},
		{"Oily Skinned", "", false},
		{"Acne", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := c.Canonicalize(tt.raw)
		assert.Equal(t, tt.ok, ok, "raw %q", tt.raw)
		assert.Equal(t, tt.want, got, "raw %q", tt.raw)
	}
}

func TestCanonicalizer_CustomAliasesAreNormalized(t *testing.T) {
	c := NewCanonicalizer(map[string]SkinType{" Combination Skin ": "combination"})

	st, ok := c.Canonicalize("combination skin")
	require.True(t, ok)
	assert.Equal(t, SkinType("combination"), st)
	assert.False(t, c.IsSkinType("oily"))
}

func TestSkinTypePicker_TieResolvesToFirstCandidate(t *testing.T) {
	p := NewSkinTypePicker([]string{"Oily Skin", "Dry Skin", "Normal Skin"}, false, nil)
	preds := PredictionSet{
		{Label: "Normal Skin", Probability: 0.10},
		{Label: "Dry Skin", Probability: 0.40},
		{Label: "Oily Skin", Probability: 0.40},
	}

	got := p.Pick(preds)
	require.NotNil(t, got)
	assert.Equal(t, SkinTypeSelection{Label: "Oily Skin", Probability: 0.40}, *got)

	// candidate order, not prediction order, decides the tie
	p = NewSkinTypePicker([]string{"Dry Skin", "Oily Skin", "Normal Skin"}, false, nil)
	got = p.Pick(preds)
	require.NotNil(t, got)
	assert.Equal(t, "Dry Skin", got.Label)
}

func TestSkinTypePicker_MatchesAliases(t *testing.T) {
	p := NewSkinTypePicker(DefaultSkinTypes(), false, nil)
	got := p.Pick(PredictionSet{
		{Label: "oily", Probability: 0.2},
		{Label: "dry", Probability: 0.7},
		{Label: "Acne", Probability: 0.9},
	})
	require.NotNil(t, got)
	assert.Equal(t, SkinTypeSelection{Label: "Dry Skin", Probability: 0.7}, *got)
}

func TestSkinTypePicker_MissingCandidateDefaultsToZero(t *testing.T) {
	p := NewSkinTypePicker(DefaultSkinTypes(), false, nil)
	got := p.Pick(PredictionSet{{Label: "Acne", Probability: 0.9}})
	require.NotNil(t, got)
	assert.Equal(t, SkinTypeSelection{Label: "Oily Skin", Probability: 0}, *got)
}

func TestSkinTypePicker_FallbackToTop(t *testing.T) {
	p := NewSkinTypePicker(DefaultSkinTypes(), true, nil)

	got := p.Pick(PredictionSet{
		{Label: "Acne", Probability: 0.6},
		{Label: "Wrinkles", Probability: 0.6},
		{Label: "Dark Spots", Probability: 0.1},
	})
	require.NotNil(t, got)
	assert.Equal(t, SkinTypeSelection{Label: "Acne", Probability: 0.6}, *got)

	// a present candidate disables the fallback even when it is not the overall top
	got = p.Pick(PredictionSet{
		{Label: "Acne", Probability: 0.9},
		{Label: "Normal Skin", Probability: 0.05},
	})
	require.NotNil(t, got)
	assert.Equal(t, SkinTypeSelection{Label: "Normal Skin", Probability: 0.05}, *got)
}

func TestSkinTypePicker_Empty(t *testing.T) {
	assert.Nil(t, NewSkinTypePicker(DefaultSkinTypes(), true, nil).Pick(nil))
	assert.Nil(t, NewSkinTypePicker(nil, true, nil).Pick(PredictionSet{{Label: "Oily Skin", Probability: 1}}))
}
