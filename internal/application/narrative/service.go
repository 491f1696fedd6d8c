package narrative

import (
	"context"

	"github.com/bryanwahyu/skinlens/internal/domain/narrative"
	"github.com/bryanwahyu/skinlens/internal/domain/profiles"
)

type Service struct {
	narrator narrative.Narrator
	profiles profiles.Repository
}

func NewService(narrator narrative.Narrator, repo profiles.Repository) *Service {
	return &Service{narrator: narrator, profiles: repo}
}

// Describe returns a JSON advice document for the user's stored profile.
func (s *Service) Describe(ctx context.Context, tenant, user string) (string, error) {
	if s == nil || s.narrator == nil {
		return "", narrative.ErrDisabled
	}
	if s.profiles == nil {
		return "", profiles.ErrNotFound
	}
	p, err := s.profiles.Get(ctx, tenant, user)
	if err != nil {
		return "", err
	}
	return s.narrator.Narrate(ctx, narrative.Request{
		SkinType: p.SkinTypeLabel(),
		Concerns: p.Result.Merged,
	})
}
