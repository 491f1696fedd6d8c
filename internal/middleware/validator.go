package middleware

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/bryanwahyu/skinlens/internal/domain/concerns"
)

// Input validation and sanitization utilities

const (
	// MaxPredictions bounds one classifier payload.
	MaxPredictions = 512
	maxLabelLen    = 128
)

var (
	tenantPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)
	userPattern   = regexp.MustCompile(`^[a-zA-Z0-9_.@:-]{1,128}$`)
)

// ValidateTenantID validates tenant ID format
func ValidateTenantID(tenant string) error {
	if tenant == "" {
		return fmt.Errorf("tenant ID cannot be empty")
	}
	if !tenantPattern.MatchString(tenant) {
		return fmt.Errorf("invalid tenant ID format (alphanumeric, dash, underscore only, max 64 chars)")
	}
	return nil
}

// ValidateUserID validates an optional user ID. Empty means anonymous.
func ValidateUserID(user string) error {
	if user == "" {
		return nil
	}
	if !userPattern.MatchString(user) {
		return fmt.Errorf("invalid user ID format (alphanumeric and _.@:- only, max 128 chars)")
	}
	return nil
}

// ValidatePredictions checks one classifier payload. Probabilities must be finite and in [0,1].
func ValidatePredictions(name string, set concerns.PredictionSet) error {
	if len(set) > MaxPredictions {
		return fmt.Errorf("%s: too many predictions (%d > %d)", name, len(set), MaxPredictions)
	}
	for i, p := range set {
		if strings.TrimSpace(p.Label) == "" {
			return fmt.Errorf("%s[%d]: label cannot be empty", name, i)
		}
		if len(p.Label) > maxLabelLen {
			return fmt.Errorf("%s[%d]: label too long", name, i)
		}
		if math.IsNaN(p.Probability) || p.Probability < 0 || p.Probability > 1 {
			return fmt.Errorf("%s[%d]: probability %v outside [0,1]", name, i, p.Probability)
		}
	}
	return nil
}

// ValidateImageContentType accepts the formats the model server decodes.
func ValidateImageContentType(ct string) error {
	switch strings.ToLower(strings.TrimSpace(strings.SplitN(ct, ";", 2)[0])) {
	case "image/jpeg", "image/jpg", "image/png", "image/webp", "application/octet-stream", "":
		return nil
	default:
		return fmt.Errorf("unsupported image content type %q", ct)
	}
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")

	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}
	return strings.TrimSpace(result.String())
}

// ParseConcernList splits a comma-separated query value, keeping first-seen order without
// duplicates.
func ParseConcernList(raw string) []string {
	var out []string
	seen := map[string]bool{}
	for _, part := range strings.Split(raw, ",") {
		c := SanitizeString(part)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

// ValidateLimit validates pagination limit
func ValidateLimit(limit int) int {
	if limit <= 0 {
		return 20 // default
	}
	if limit > 100 {
		return 100 // max limit
	}
	return limit
}

// ValidatePage clamps the page number to >= 1.
func ValidatePage(page int) int {
	if page <= 0 {
		return 1
	}
	return page
}
