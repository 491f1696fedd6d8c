package profiles

import "context"

// Repository port for persisting and querying profiles
type Repository interface {
	// Save upserts by (tenant, user).
	Save(ctx context.Context, p *Profile) error
	// Get returns ErrNotFound when the user has no profile.
	Get(ctx context.Context, tenant, user string) (*Profile, error)
	Delete(ctx context.Context, tenant, user string) error
	Paginate(ctx context.Context, tenant string, page, pageSize int) ([]*Profile, error)
}

// ArtifactStore keeps the raw analysis payloads next to the profile rows.
type ArtifactStore interface {
	PutJSON(ctx context.Context, key string, v any) (string, error)
	Delete(ctx context.Context, key string) error
}
