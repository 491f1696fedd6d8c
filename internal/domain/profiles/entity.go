package profiles

import (
	"errors"
	"time"

	"github.com/bryanwahyu/skinlens/internal/domain/concerns"
)

// ErrNotFound is returned when a tenant/user pair has no stored analysis.
var ErrNotFound = errors.New("profile not found")

// ProfileID identifier type
type ProfileID string

// Profile is the latest fused analysis stored for one user.
// There is at most one profile per (tenant, user); a new analysis replaces it.
type Profile struct {
	ID          ProfileID       `json:"id"`
	TenantID    string          `json:"tenant_id"`
	UserID      string          `json:"user_id"`
	ArtifactKey string          `json:"artifact_key,omitempty"`
	ArtifactURL string          `json:"artifact_url,omitempty"`
	Result      concerns.Result `json:"result"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// SkinTypeLabel returns the winning skin type label or "" when none was selected.
func (p *Profile) SkinTypeLabel() string {
	if p == nil || p.Result.SkinType == nil {
		return ""
	}
	return p.Result.SkinType.Label
}
