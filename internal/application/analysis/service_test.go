package analysis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/skinlens/internal/application"
	"github.com/bryanwahyu/skinlens/internal/domain/concerns"
	"github.com/bryanwahyu/skinlens/internal/domain/inference"
	"github.com/bryanwahyu/skinlens/internal/domain/profiles"
)

type memProfiles struct {
	mu      sync.Mutex
	rows    map[string]*profiles.Profile
	saveErr error
	getErr  error
}

func newMemProfiles() *memProfiles { return &memProfiles{rows: map[string]*profiles.Profile{}} }

func (m *memProfiles) Save(_ context.Context, p *profiles.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	cp := *p
	m.rows[p.TenantID+"/"+p.UserID] = &cp
	return nil
}

func (m *memProfiles) Get(_ context.Context, tenant, user string) (*profiles.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	p, ok := m.rows[tenant+"/"+user]
	if !ok {
		return nil, profiles.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memProfiles) Delete(_ context.Context, tenant, user string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, tenant+"/"+user)
	return nil
}

func (m *memProfiles) Paginate(_ context.Context, tenant string, _, _ int) ([]*profiles.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*profiles.Profile
	for _, p := range m.rows {
		if p.TenantID == tenant {
			out = append(out, p)
		}
	}
	return out, nil
}

type memArtifacts struct {
	objects map[string]any
	deleted []string
	failPut bool
}

func (m *memArtifacts) PutJSON(_ context.Context, key string, v any) (string, error) {
	if m.failPut {
		return "", errors.New("bucket unavailable")
	}
	if m.objects == nil {
		m.objects = map[string]any{}
	}
	m.objects[key] = v
	return "http://minio.local/analyses/" + key, nil
}

func (m *memArtifacts) Delete(_ context.Context, key string) error {
	m.deleted = append(m.deleted, key)
	delete(m.objects, key)
	return nil
}

type stubPredictor struct {
	preds inference.Predictions
	err   error
	got   inference.Image
}

func (s *stubPredictor) Predict(_ context.Context, img inference.Image) (inference.Predictions, error) {
	s.got = img
	return s.preds, s.err
}

func newService(t *testing.T) (*Service, *memProfiles, *memArtifacts) {
	t.Helper()
	e, err := concerns.NewEngine(concerns.DefaultConfig())
	require.NoError(t, err)
	repo := newMemProfiles()
	store := &memArtifacts{}
	return &Service{
		Engine:    e,
		Profiles:  repo,
		Artifacts: store,
		Clock:     application.FixedClock{T: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)},
	}, repo, store
}

var (
	sampleConditions = concerns.PredictionSet{
		{Label: "Acne", Probability: 0.3},
		{Label: "Dry Skin", Probability: 0.6},
	}
	sampleLesions = concerns.PredictionSet{
		{Label: "Papule", Probability: 0.5},
		{Label: "Scale", Probability: 0.2},
	}
)

func TestAnalyzePredictions_Anonymous(t *testing.T) {
	svc, repo, store := newService(t)

	out, err := svc.AnalyzePredictions(context.Background(), AnalyzeCommand{
		TenantID:   "shop",
		Conditions: sampleConditions,
		Lesions:    sampleLesions,
	})
	require.NoError(t, err)
	assert.False(t, out.Saved)
	assert.NotEmpty(t, out.ID)
	require.NotNil(t, out.Result.SkinType)
	assert.Equal(t, "Dry Skin", out.Result.SkinType.Label)
	assert.Empty(t, repo.rows)
	assert.Empty(t, store.objects)
}

func TestAnalyzePredictions_SavesProfileAndArchive(t *testing.T) {
	svc, repo, store := newService(t)
	ctx := context.Background()

	first, err := svc.AnalyzePredictions(ctx, AnalyzeCommand{TenantID: "shop", UserID: "u1", Conditions: sampleConditions, Lesions: sampleLesions})
	require.NoError(t, err)
	assert.True(t, first.Saved)
	assert.Contains(t, first.ArtifactURL, "shop/u1/"+first.ID+".json")

	p, err := svc.Profile(ctx, "shop", "u1")
	require.NoError(t, err)
	assert.Equal(t, profiles.ProfileID(first.ID), p.ID)
	assert.Equal(t, "Dry Skin", p.SkinTypeLabel())
	assert.Equal(t, []string{"conditions", "lesions"}, p.Result.Merged["Acne"].Sources)
	assert.Equal(t, time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC), p.UpdatedAt)

	second, err := svc.AnalyzePredictions(ctx, AnalyzeCommand{TenantID: "shop", UserID: "u1", Lesions: sampleLesions})
	require.NoError(t, err)
	assert.Len(t, repo.rows, 1)
	assert.Equal(t, []string{"shop/u1/" + first.ID + ".json"}, store.deleted, "replaced profile drops the old archive")
	assert.Contains(t, store.objects, "shop/u1/"+second.ID+".json")
}

func TestAnalyzePredictions_ArchiveFailure(t *testing.T) {
	svc, repo, store := newService(t)
	store.failPut = true

	_, err := svc.AnalyzePredictions(context.Background(), AnalyzeCommand{TenantID: "shop", UserID: "u1", Lesions: sampleLesions})
	require.Error(t, err)
	assert.Empty(t, repo.rows)
}

func TestAnalyzeImage(t *testing.T) {
	svc, _, _ := newService(t)

	_, err := svc.AnalyzeImage(context.Background(), ImageCommand{TenantID: "shop"})
	assert.ErrorIs(t, err, inference.ErrUnavailable)

	pred := &stubPredictor{preds: inference.Predictions{Conditions: sampleConditions, Lesions: sampleLesions}}
	svc.Predictor = pred
	out, err := svc.AnalyzeImage(context.Background(), ImageCommand{
		TenantID: "shop",
		Image:    inference.Image{Filename: "face.jpg", Data: []byte{0xff, 0xd8}},
	})
	require.NoError(t, err)
	assert.Equal(t, "face.jpg", pred.got.Filename)
	assert.Equal(t, []concerns.Scored{{Label: "Acne", Probability: 0.5}}, out.Result.MainConcerns)

	pred.err = inference.ErrBadImage
	_, err = svc.AnalyzeImage(context.Background(), ImageCommand{TenantID: "shop"})
	assert.ErrorIs(t, err, inference.ErrBadImage)
}

func TestDeleteProfile(t *testing.T) {
	svc, repo, store := newService(t)
	ctx := context.Background()

	require.NoError(t, svc.DeleteProfile(ctx, "shop", "nobody"))

	out, err := svc.AnalyzePredictions(ctx, AnalyzeCommand{TenantID: "shop", UserID: "u1", Lesions: sampleLesions})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteProfile(ctx, "shop", "u1"))

	assert.Empty(t, repo.rows)
	assert.Equal(t, []string{"shop/u1/" + out.ID + ".json"}, store.deleted)
	_, err = svc.Profile(ctx, "shop", "u1")
	assert.ErrorIs(t, err, profiles.ErrNotFound)
}

func TestService_WithoutRepository(t *testing.T) {
	e, err := concerns.NewEngine(concerns.DefaultConfig())
	require.NoError(t, err)
	svc := &Service{Engine: e}

	out, err := svc.AnalyzePredictions(context.Background(), AnalyzeCommand{TenantID: "shop", UserID: "u1", Lesions: sampleLesions})
	require.NoError(t, err)
	assert.False(t, out.Saved)

	_, err = svc.Profile(context.Background(), "shop", "u1")
	assert.ErrorIs(t, err, profiles.ErrNotFound)
	list, err := svc.ListProfiles(context.Background(), "shop", 1, 20)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestAnalyzePredictions_SaveFailureRemovesNewArtifact(t *testing.T) {
	svc, repo, store := newService(t)
	repo.saveErr = errors.New("db down")

	out, err := svc.AnalyzePredictions(context.Background(), AnalyzeCommand{
		TenantID: "shop", UserID: "u-1", Conditions: sampleConditions, Lesions: sampleLesions,
	})
	require.Error(t, err)
	assert.False(t, out.Saved)
	assert.Empty(t, out.ArtifactURL)
	assert.Empty(t, store.objects)
	assert.Equal(t, []string{"shop/u-1/" + out.ID + ".json"}, store.deleted)
}

func TestAnalyzePredictions_LoadFailureArchivesNothing(t *testing.T) {
	svc, repo, store := newService(t)
	repo.getErr = errors.New("db down")

	_, err := svc.AnalyzePredictions(context.Background(), AnalyzeCommand{
		TenantID: "shop", UserID: "u-1", Lesions: sampleLesions,
	})
	require.Error(t, err)
	assert.Empty(t, store.objects)
	assert.Empty(t, store.deleted)
}
