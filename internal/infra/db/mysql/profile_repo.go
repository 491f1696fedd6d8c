package mysql

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

// Save upserts the profile of (tenant_id, user_id)
func (r *ProfileRepository) Save(ctx context.Context, p *domain.Profile) error {
	const q = `
INSERT INTO skin_profiles
  (id, tenant_id, user_id, skin_type, artifact_key, artifact_url, result_json, updated_at)
VALUES (?,?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
  id=VALUES(id), skin_type=VALUES(skin_type), artifact_key=VALUES(artifact_key),
  artifact_url=VALUES(artifact_url), result_json=VALUES(result_json), updated_at=VALUES(updated_at);
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
WHERE tenant_id=? AND user_id=?
LIMIT 1;
`
	p, err := scanProfile(r.db.QueryRowContext(ctx, q, tenant, user))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return p, err
}

func (r *ProfileRepository) Delete(ctx context.Context, tenant, user string) error {
	const q = `DELETE FROM skin_profiles WHERE tenant_id=? AND user_id=?;`
	_, err := r.db.ExecContext(ctx, q, tenant, user)
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
WHERE tenant_id=?
ORDER BY updated_at DESC, id DESC
LIMIT ? OFFSET ?;
`
	rows, err := r.db.QueryContext(ctx, q, tenant, pageSize, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*domain.Profile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*domain.Profile, error) {
	var (
		p        domain.Profile
		id       string
		key, url string
		result   []byte
	)
	if err := row.Scan(&id, &p.TenantID, &p.UserID, &key, &url, &result, &p.UpdatedAt); err != nil {
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
