package concerns

import "strings"

// SkinType is a canonical skin type identifier.
type SkinType string

const (
	SkinOily   SkinType = "oily"
	SkinNormal SkinType = "normal"
	SkinDry    SkinType = "dry"
)

// DefaultSkinAliases is the alias table used by the condition classifier's vocabulary.
func DefaultSkinAliases() map[string]SkinType {
	return map[string]SkinType{
		"oily skin":   SkinOily,
		"oily":        SkinOily,
		"normal skin": SkinNormal,
		"normal":      SkinNormal,
		"dry skin":    SkinDry,
		"dry":         SkinDry,
	}
}

// Canonicalizer normalizes raw classifier labels into canonical skin types.
type Canonicalizer struct {
	aliases map[string]SkinType
}

// NewCanonicalizer copies aliases; keys are normalized the same way lookups are.
// A nil or empty table falls back to DefaultSkinAliases.
func NewCanonicalizer(aliases map[string]SkinType) *Canonicalizer {
	if len(aliases) == 0 {
		aliases = DefaultSkinAliases()
	}
	c := &Canonicalizer{aliases: make(map[string]SkinType, len(aliases))}
	for k, v := range aliases {
		c.aliases[normalizeLabel(k)] = v
	}
	return c
}

// Canonicalize returns the skin type for raw, or false when raw is not a known alias.
func (c *Canonicalizer) Canonicalize(raw string) (SkinType, bool) {
	st, ok := c.aliases[normalizeLabel(raw)]
	return st, ok
}

// IsSkinType reports whether raw names a skin type rather than a concern.
func (c *Canonicalizer) IsSkinType(raw string) bool {
	_, ok := c.Canonicalize(raw)
	return ok
}

func normalizeLabel(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
