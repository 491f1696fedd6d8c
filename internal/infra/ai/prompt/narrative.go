package prompt

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/bryanwahyu/skinlens/internal/domain/concerns"
)

// GetSystemPrompt provides strict directions and schema for JSON output.
func GetSystemPrompt() string {
	return `You are a cosmetic skincare advisor. You are not a doctor and never diagnose. You must produce one valid JSON object only (no markdown, no commentary) that follows the schema below. Do not include code fences.

Requirements:
- Output must be a single JSON object.
- Mention only the concerns you are given, highest probability first.
- routine is an ordered list of at most 5 steps.
- Always include the disclaimer field.

Schema (example with empty values):
{
  "skin_type": "<string>",
  "summary": "<string>",
  "concerns": [
    {"label": "<string>", "probability": 0.0, "note": "<string>"}
  ],
  "routine": [
    {"step": "<string>", "advice": "<string>"}
  ],
  "disclaimer": "<string>"
}`
}

// ConcernLine is one merged concern as sent to the model.
type ConcernLine struct {
	Label       string   `json:"label"`
	Probability float64  `json:"probability"`
	Sources     []string `json:"sources"`
}

// Ranked orders merged concerns by probability desc, then label.
func Ranked(merged map[string]concerns.MergedConcern) []ConcernLine {
	out := make([]ConcernLine, 0, len(merged))
	for label, m := range merged {
		out = append(out, ConcernLine{Label: label, Probability: m.Probability, Sources: m.Sources})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Probability != out[j].Probability {
			return out[i].Probability > out[j].Probability
		}
		return out[i].Label < out[j].Label
	})
	return out
}

// GetUserPrompt builds a compact user message around the fused concerns.
func GetUserPrompt(skinType string, merged map[string]concerns.MergedConcern) string {
	if skinType == "" {
		skinType = "unknown"
	}
	b, _ := json.Marshal(Ranked(merged))
	return fmt.Sprintf("Skin type: %s\nConcerns (probability 0..1): %s\nRespond with the JSON per schema.", skinType, b)
}

// Narrative matches the schema used by the system prompt.
type Narrative struct {
	SkinType string `json:"skin_type"`
	Summary  string `json:"summary"`
	Concerns []struct {
		Label       string  `json:"label"`
		Probability float64 `json:"probability"`
		Note        string  `json:"note"`
	} `json:"concerns"`
	Routine []struct {
		Step   string `json:"step"`
		Advice string `json:"advice"`
	} `json:"routine"`
	Disclaimer string `json:"disclaimer"`
}

const Disclaimer = "This is cosmetic guidance from an automated image analysis, not a medical diagnosis. See a dermatologist for persistent or painful symptoms."

var notes = map[string]string{
	"Acne":                   "Look for salicylic acid or benzoyl peroxide; avoid heavy occlusive products.",
	"Blackheads":             "BHA exfoliation two to three times a week helps keep pores clear.",
	"Dark Spots":             "Daily sunscreen plus niacinamide or vitamin C can fade spots over time.",
	"Wrinkles":               "Retinoids at night and sunscreen by day are the usual baseline.",
	"Fine Lines/Wrinkles":    "Retinoids at night and sunscreen by day are the usual baseline.",
	"Redness":                "Choose fragrance-free soothing products with centella or azelaic acid.",
	"Dryness/Flaking":        "Use a ceramide moisturizer and a gentle, non-foaming cleanser.",
	"Texture/Roughness":      "Gentle chemical exfoliation evens out texture better than scrubs.",
	"Scarring":               "Consistent sunscreen limits darkening; persistent scars need professional care.",
	"Hives":                  "Hives can be allergic; stop new products and seek advice if it spreads.",
	"Wound/Barrier Damage":   "Keep the area clean and protected; skip actives until it heals.",
	"Inflammation/Swelling":  "Avoid pressing or picking; see a professional if it is painful.",
	"Broken Capillaries":     "Avoid hot water and harsh scrubs; sunscreen protects fragile vessels.",
	"Hypopigmentation":       "Protect with sunscreen; uneven tone changes are worth a professional look.",
	"Bruising/Discoloration": "Unexplained bruising should be checked by a doctor.",
}

// LocalNarrative renders the schema without calling a model. It never fails.
func LocalNarrative(skinType string, merged map[string]concerns.MergedConcern) string {
	var out Narrative
	out.SkinType = strings.ToLower(skinType)
	out.Disclaimer = Disclaimer

	ranked := Ranked(merged)
	labels := make([]string, 0, len(ranked))
	for _, c := range ranked {
		note, ok := notes[c.Label]
		if !ok {
			note = "Monitor this area and keep your routine gentle."
		}
		out.Concerns = append(out.Concerns, struct {
			Label       string  `json:"label"`
			Probability float64 `json:"probability"`
			Note        string  `json:"note"`
		}{c.Label, c.Probability, note})
		labels = append(labels, c.Label)
	}

	switch {
	case len(labels) == 0:
		out.Summary = "No notable concerns were detected."
	case len(labels) == 1:
		out.Summary = fmt.Sprintf("The main concern detected is %s.", labels[0])
	default:
		out.Summary = fmt.Sprintf("The main concerns detected are %s and %s.",
			strings.Join(labels[:len(labels)-1], ", "), labels[len(labels)-1])
	}

	for _, s := range baseRoutine(out.SkinType) {
		out.Routine = append(out.Routine, struct {
			Step   string `json:"step"`
			Advice string `json:"advice"`
		}{s[0], s[1]})
	}

	b, _ := json.Marshal(out)
	return string(b)
}

func baseRoutine(skinType string) [][2]string {
	moisturizer := "Use a light moisturizer."
	switch {
	case strings.Contains(skinType, "oily"):
		moisturizer = "Use an oil-free gel moisturizer."
	case strings.Contains(skinType, "dry"):
		moisturizer = "Use a rich cream with ceramides."
	}
	return [][2]string{
		{"cleanse", "Wash with a gentle cleanser morning and night."},
		{"treat", "Apply one targeted treatment for your top concern."},
		{"moisturize", moisturizer},
		{"protect", "Finish mornings with SPF 30 or higher."},
	}
}
