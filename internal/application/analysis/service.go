package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/bryanwahyu/skinlens/internal/application"
	"github.com/bryanwahyu/skinlens/internal/domain/concerns"
	"github.com/bryanwahyu/skinlens/internal/domain/inference"
	"github.com/bryanwahyu/skinlens/internal/domain/profiles"
)

// Service implements the analysis use-cases.
// It is safe for concurrent use as long as its ports are.
type Service struct {
	Engine *concerns.Engine
	// Predictor, Profiles and Artifacts are optional. Without Profiles nothing is persisted.
	Predictor inference.Predictor
	Profiles  profiles.Repository
	Artifacts profiles.ArtifactStore
	Clock     application.Clock
	Logger    *slog.Logger
}

// AnalyzeCommand carries already computed classifier outputs.
type AnalyzeCommand struct {
	TenantID   string
	UserID     string
	Conditions concerns.PredictionSet
	Lesions    concerns.PredictionSet
}

// ImageCommand carries an image for the model server.
type ImageCommand struct {
	TenantID string
	UserID   string
	Image    inference.Image
}

// AnalyzeResult is returned to the HTTP layer.
type AnalyzeResult struct {
	ID          string          `json:"id"`
	Saved       bool            `json:"saved"`
	ArtifactURL string          `json:"artifact_url,omitempty"`
	Result      concerns.Result `json:"result"`
	DurationMS  int64           `json:"duration_ms"`
}

// archive is the document kept in the artifact store for auditing.
type archive struct {
	ID         string                 `json:"id"`
	TenantID   string                 `json:"tenant_id"`
	UserID     string                 `json:"user_id"`
	Config     concerns.Config        `json:"config"`
	Conditions concerns.PredictionSet `json:"conditions"`
	Lesions    concerns.PredictionSet `json:"lesions"`
	Result     concerns.Result        `json:"result"`
	CreatedAt  time.Time              `json:"created_at"`
}

// AnalyzePredictions fuses the supplied predictions and, when a user is given, stores the profile.
func (s *Service) AnalyzePredictions(ctx context.Context, cmd AnalyzeCommand) (AnalyzeResult, error) {
	start := s.now()
	id := uuid.New().String()

	res := s.Engine.Fuse(cmd.Conditions, cmd.Lesions)
	out := AnalyzeResult{ID: id, Result: res}

	log := s.logger().With("tenant", cmd.TenantID, "analysis_id", id)
	log.Debug("fused predictions",
		"conditions", len(cmd.Conditions),
		"lesions", len(cmd.Lesions),
		"main", len(res.MainConcerns),
		"low", len(res.LowConcerns),
	)

	if cmd.UserID == "" || s.Profiles == nil {
		out.DurationMS = s.now().Sub(start).Milliseconds()
		return out, nil
	}

	p := &profiles.Profile{
		ID:        profiles.ProfileID(id),
		TenantID:  cmd.TenantID,
		UserID:    cmd.UserID,
		Result:    res,
		UpdatedAt: start,
	}

	// kalau profile lama ada, artifact lamanya dibuang setelah row baru tersimpan
	prev, err := s.Profiles.Get(ctx, cmd.TenantID, cmd.UserID)
	if err != nil && !errors.Is(err, profiles.ErrNotFound) {
		return out, fmt.Errorf("load profile: %w", err)
	}

	if s.Artifacts != nil {
		key := fmt.Sprintf("%s/%s/%s.json", cmd.TenantID, cmd.UserID, id)
		url, err := s.Artifacts.PutJSON(ctx, key, archive{
			ID:         id,
			TenantID:   cmd.TenantID,
			UserID:     cmd.UserID,
			Config:     s.Engine.Config(),
			Conditions: cmd.Conditions,
			Lesions:    cmd.Lesions,
			Result:     res,
			CreatedAt:  start,
		})
		if err != nil {
			return out, fmt.Errorf("archive analysis: %w", err)
		}
		p.ArtifactKey, p.ArtifactURL = key, url
	}

	if err := s.Profiles.Save(ctx, p); err != nil {
		// artifact baru tidak punya row, ikut dibuang
		s.dropArtifact(ctx, p)
		return out, fmt.Errorf("save profile: %w", err)
	}
	out.ArtifactURL = p.ArtifactURL
	out.Saved = true
	s.dropArtifact(ctx, prev)

	out.DurationMS = s.now().Sub(start).Milliseconds()
	log.Info("profile saved", "user", cmd.UserID, "artifact", out.ArtifactURL)
	return out, nil
}

// AnalyzeImage runs both classifiers on the image, then behaves like AnalyzePredictions.
func (s *Service) AnalyzeImage(ctx context.Context, cmd ImageCommand) (AnalyzeResult, error) {
	if s.Predictor == nil {
		return AnalyzeResult{}, inference.ErrUnavailable
	}
	preds, err := s.Predictor.Predict(ctx, cmd.Image)
	if err != nil {
		return AnalyzeResult{}, err
	}
	return s.AnalyzePredictions(ctx, AnalyzeCommand{
		TenantID:   cmd.TenantID,
		UserID:     cmd.UserID,
		Conditions: preds.Conditions,
		Lesions:    preds.Lesions,
	})
}

// Profile returns the stored profile of a user.
func (s *Service) Profile(ctx context.Context, tenant, user string) (*profiles.Profile, error) {
	if s.Profiles == nil {
		return nil, profiles.ErrNotFound
	}
	return s.Profiles.Get(ctx, tenant, user)
}

// ListProfiles pages through a tenant's profiles, newest first.
func (s *Service) ListProfiles(ctx context.Context, tenant string, page, pageSize int) ([]*profiles.Profile, error) {
	if s.Profiles == nil {
		return []*profiles.Profile{}, nil
	}
	return s.Profiles.Paginate(ctx, tenant, page, pageSize)
}

// DeleteProfile removes the profile and its archived payload. Deleting a missing profile is not an error.
func (s *Service) DeleteProfile(ctx context.Context, tenant, user string) error {
	if s.Profiles == nil {
		return nil
	}
	p, err := s.Profiles.Get(ctx, tenant, user)
	if errors.Is(err, profiles.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := s.Profiles.Delete(ctx, tenant, user); err != nil {
		return err
	}
	s.dropArtifact(ctx, p)
	return nil
}

func (s *Service) dropArtifact(ctx context.Context, p *profiles.Profile) {
	if p == nil || p.ArtifactKey == "" || s.Artifacts == nil {
		return
	}
	if err := s.Artifacts.Delete(ctx, p.ArtifactKey); err != nil {
		// row sudah terhapus/terganti, cukup dicatat
		s.logger().Warn("failed to delete artifact", "key", p.ArtifactKey, "error", err)
	}
}

func (s *Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now()
}

func (s *Service) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}
