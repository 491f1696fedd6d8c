package concerns

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestMerge_OrderAndProvenance(t *testing.T) {
	got := Merge([]Section{
		{Tag: SourceConditions, Items: []Scored{{Label: "Acne", Probability: 0.5}}},
		{Tag: SourceLesions, Items: []Scored{{Label: "Acne", Probability: 0.6}}},
		{Tag: SourceLesionsLow, Items: []Scored{{Label: "Acne", Probability: 0.6}}},
	})

	want := map[string]MergedConcern{
		"Acne": {Label: "Acne", Probability: 0.6, Sources: []string{"conditions", "lesions", "lesions-low"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Merge() mismatch (-want +got):\n%s", diff)
	}
}

func TestMerge_KeepsMaxWhenLaterSectionIsLower(t *testing.T) {
	got := Merge([]Section{
		{Tag: SourceLesions, Items: []Scored{{Label: "Redness", Probability: 0.7}}},
		{Tag: SourceConditions, Items: []Scored{{Label: "Redness", Probability: 0.2}, {Label: "Acne", Probability: 0.3}}},
	})

	assert.Equal(t, 0.7, got["Redness"].Probability)
	assert.Equal(t, []string{"lesions", "conditions"}, got["Redness"].Sources)
	assert.Equal(t, []string{"conditions"}, got["Acne"].Sources)
}

func TestMerge_Idempotent(t *testing.T) {
	s := Section{Tag: SourceLesions, Items: []Scored{
		{Label: "Acne", Probability: 0.4},
		{Label: "Scarring", Probability: 0.31},
	}}

	once := Merge([]Section{s})
	twice := Merge([]Section{s, s})

	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("merging a section twice changed the result (-once +twice):\n%s", diff)
	}
	assert.Equal(t, []string{"lesions"}, twice["Acne"].Sources)
}

func TestMerge_Empty(t *testing.T) {
	assert.Empty(t, Merge(nil))
	assert.Empty(t, Merge([]Section{{Tag: SourceLesions}}))
}
