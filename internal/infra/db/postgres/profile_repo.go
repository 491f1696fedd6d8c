package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	domain "github.com/bryanwahyu/skinlens/internal/domain/profiles"
)

type ProfileRepository struct {
	db *sql.DB
}

func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Save inserts or replaces the profile of (tenant_id, user_id)
func (r *ProfileRepository) Save(ctx context.Context, p *domain.Profile) error {
	const q = `
INSERT INTO skin_profiles
  (id, tenant_id, user_id, skin_type, artifact_key, artifact_url, result_json, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (tenant_id, user_id) DO UPDATE SET
  id=EXCLUDED.id,
  skin_type=EXCLUDED.skin_type,
  artifact_key=EXCLUDED.artifact_key,
  artifact_url=EXCLUDED.artifact_url,
  result_json=EXCLUDED.result_json,
  updated_at=EXCLUDED.updated_at;
`
	result, err := json.Marshal(p.Result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	updated := p.UpdatedAt
	if updated.IsZero() {
		updated = time.Now().UTC()
	}
	_, err = r.db.ExecContext(ctx, q,
		string(p.ID), p.TenantID, p.UserID,
		stringOrDash(p.SkinTypeLabel()),
		stringOrDash(p.ArtifactKey),
		stringOrDash(p.ArtifactURL),
		result, updated,
	)
	return err
}

func (r *ProfileRepository) Get(ctx context.Context, tenant, user string) (*domain.Profile, error) {
	const q = `
SELECT id, tenant_id, user_id, artifact_key, artifact_url, result_json, updated_at
FROM skin_profiles
WHERE tenant_id=$1 AND user_id=$2
LIMIT 1;
`
	var (
		p        domain.Profile
		id       string
		key, url string
		result   []byte
	)
	err := r.db.QueryRowContext(ctx, q, tenant, user).
		Scan(&id, &p.TenantID, &p.UserID, &key, &url, &result, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(result, &p.Result); err != nil {
		return nil, fmt.Errorf("decode result %s: %w", id, err)
	}
	p.ID = domain.ProfileID(id)
	p.ArtifactKey = dashToEmpty(key)
	p.ArtifactURL = dashToEmpty(url)
	return &p, nil
}

func (r *ProfileRepository) Delete(ctx context.Context, tenant, user string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM skin_profiles WHERE tenant_id=$1 AND user_id=$2;`, tenant, user)
	return err
}

// Paginate returns a page of profiles ordered by updated_at desc
func (r *ProfileRepository) Paginate(ctx context.Context, tenant string, page, pageSize int) ([]*domain.Profile, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	const q = `
SELECT id, tenant_id, user_id, artifact_key, artifact_url, result_json, updated_at
FROM skin_profiles
WHERE tenant_id=$1
ORDER BY updated_at DESC, id DESC
LIMIT $2 OFFSET $3;
`
	rows, err := r.db.QueryContext(ctx, q, tenant, pageSize, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Profile
	for rows.Next() {
		var (
			p        domain.Profile
			id       string
			key, url string
			result   []byte
		)
		if err := rows.Scan(&id, &p.TenantID, &p.UserID, &key, &url, &result, &p.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(result, &p.Result); err != nil {
			return nil, fmt.Errorf("decode result %s: %w", id, err)
		}
		p.ID = domain.ProfileID(id)
		p.ArtifactKey = dashToEmpty(key)
		p.ArtifactURL = dashToEmpty(url)
		out = append(out, &p)
	}
	return out, rows.Err()
}
