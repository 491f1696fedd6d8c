package concerns

import "sort"

// Taxonomy maps one classifier vocabulary onto concern names. It is immutable once built.
type Taxonomy struct {
	name    string
	entries map[string]string
}

// NewTaxonomy builds a taxonomy from raw label -> concern entries. An empty concern marks the
// label as excluded, which behaves exactly like an absent entry.
func NewTaxonomy(name string, entries map[string]string) *Taxonomy {
	t := &Taxonomy{name: name, entries: make(map[string]string, len(entries))}
	for raw, concern := range entries {
		if concern == "" {
			continue
		}
		t.entries[raw] = concern
	}
	return t
}

// Name identifies the vocabulary, e.g. "lesions".
func (t *Taxonomy) Name() string { return t.name }

// Lookup returns the concern for raw. The boolean is false for excluded or unknown labels.
func (t *Taxonomy) Lookup(raw string) (string, bool) {
	if t == nil {
		return "", false
	}
	c, ok := t.entries[raw]
	return c, ok
}

// Len is the number of mapped (non-excluded) labels.
func (t *Taxonomy) Len() int { return len(t.entries) }

// Entries returns a copy of the mapped labels sorted by raw label.
func (t *Taxonomy) Entries() []TaxonomyEntry {
	out := make([]TaxonomyEntry, 0, len(t.entries))
	for raw, c := range t.entries {
		out = append(out, TaxonomyEntry{Raw: raw, Concern: c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Raw < out[j].Raw })
	return out
}

// TaxonomyEntry is one mapped label.
type TaxonomyEntry struct {
	Raw     string `json:"raw" yaml:"raw"`
	Concern string `json:"concern" yaml:"concern"`
}

// DefaultLesionTaxonomy is the lesion vocabulary used in production.
func DefaultLesionTaxonomy() *Taxonomy {
	return NewTaxonomy("lesions", map[string]string{
		"Papule": "Acne", "Pustule": "Acne", "Nodule": "Acne", "Cyst": "Acne",
		"Comedo":      "Blackheads",
		"Dome-shaped": "Bumps", "Acuminate": "Bumps", "Umbilicated": "Bumps",

		"Brown(Hyperpigmentation)": "Dark Spots",
		"Pigmented":                "Dark Spots",
		"Poikiloderma":             "Dark Spots",

		"Erythema": "Redness", "Salmon": "Redness",
		"Telangiectasia":    "Broken Capillaries",
		"Purpura/Petechiae": "Bruising/Discoloration", "Purple": "Bruising/Discoloration",

		"Scale": "Dryness/Flaking", "Xerosis": "Dryness/Flaking", "Fissure": "Dryness/Flaking",
		"Plaque": "Texture/Roughness", "Patch": "Texture/Roughness",
		"Lichenification": "Texture/Roughness", "Sclerosis": "Texture/Roughness",

		"Erosion": "Wound/Barrier Damage", "Ulcer": "Wound/Barrier Damage", "Friable": "Wound/Barrier Damage",
		"Exudate": "Oozing/Crusting", "Crust": "Oozing/Crusting",

		"Scar": "Scarring", "Atrophy": "Fine Lines/Wrinkles",

		"Vesicle": "Blistering", "Bulla": "Blistering",

		"White(Hypopigmentation)": "Hypopigmentation",
		"Blue":                    "Discoloration", "Black": "Discoloration", "Gray": "Discoloration", "Translucent": "Discoloration",

		"Warty/Papillomatous": "Warts/Skin Growth", "Pedunculated": "Skin Tag",
		"Exophytic/Fungating": "Abnormal Growth",

		"Wheal": "Hives",

		"Induration": "Inflammation/Swelling",
		"Abscess":    "Inflammation/Swelling",
		IgnoreLabel:  "",
		"Burrow":     "Abnormal Finding",
	})
}

// DefaultConditionTaxonomy passes condition classes through under their own names.
// Skin type classes are not listed; the engine excludes them through the canonicalizer.
func DefaultConditionTaxonomy() *Taxonomy {
	return NewTaxonomy("conditions", map[string]string{
		"Acne":       "Acne",
		"Dark Spots": "Dark Spots",
		"Blackheads": "Blackheads",
		"Wrinkles":   "Wrinkles",
	})
}
