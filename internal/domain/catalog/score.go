package catalog

import (
	"sort"
	"strings"

	"github.com/bryanwahyu/skinlens/internal/domain/concerns"
)

const (
	concernWeight  = 2.0
	skinTypeWeight = 1.0
)

var skinTypeKeys = map[concerns.SkinType]string{
	concerns.SkinOily:   "oily_skin",
	concerns.SkinDry:    "dry_skin",
	concerns.SkinNormal: "normal_skin",
}

// SkinTypeKey converts a skin type label ("Oily Skin", "oily") to the catalog key ("oily_skin").
func SkinTypeKey(label string, canon *concerns.Canonicalizer) (string, bool) {
	if canon == nil {
		canon = concerns.NewCanonicalizer(nil)
	}
	st, ok := canon.Canonicalize(label)
	if !ok {
		return "", false
	}
	key, ok := skinTypeKeys[st]
	return key, ok
}

// Score rates p against merged concerns: 2*prob per matched concern and +1 when the product
// supports skinKey. Matches lists matched concern labels alphabetically, then "skin:<key>".
func Score(p *Product, merged map[string]concerns.MergedConcern, skinKey string) (float64, []string) {
	var (
		score   float64
		matches []string
	)
	labels := make([]string, 0, len(merged))
	for lbl := range merged {
		labels = append(labels, lbl)
	}
	sort.Strings(labels)

	supported := make(map[string]struct{}, len(p.Concerns))
	for _, c := range p.Concerns {
		supported[c] = struct{}{}
	}
	for _, lbl := range labels {
		if _, ok := supported[lbl]; ok {
			score += concernWeight * merged[lbl].Probability
			matches = append(matches, lbl)
		}
	}

	if skinKey != "" {
		for _, st := range p.SkinTypes {
			if strings.EqualFold(strings.TrimSpace(st), skinKey) {
				score += skinTypeWeight
				matches = append(matches, "skin:"+skinKey)
				break
			}
		}
	}
	return score, matches
}
