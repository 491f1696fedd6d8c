package narrative

import (
	"context"
	"errors"

	"github.com/bryanwahyu/skinlens/internal/domain/concerns"
)

// ErrQuotaExceeded indicates the LLM provider returned a quota/limit error (HTTP 429 or similar).
var ErrQuotaExceeded = errors.New("narrator quota exceeded")

// ErrDisabled is returned when no narrator is configured.
var ErrDisabled = errors.New("narrator disabled")

// Request is what the narrator sees of a profile.
type Request struct {
	SkinType string
	Concerns map[string]concerns.MergedConcern
}

// Narrator turns merged concerns into a JSON advice document.
type Narrator interface {
	Narrate(ctx context.Context, req Request) (string, error)
}
