package postgres

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	domain "github.com/bryanwahyu/skinlens/internal/domain/catalog"
)

const productColumns = `id, tenant_id, name, COALESCE(brand, ''), price, currency, COALESCE(hero_image, ''), concerns, skin_types, rating_avg, rating_count`

type ProductRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// ListPublic returns active public products, newest first
func (r *ProductRepository) ListPublic(ctx context.Context, tenant string, limit int) ([]*domain.Product, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `
SELECT ` + productColumns + `
FROM products
WHERE tenant_id=$1 AND status='active' AND visibility='public'
ORDER BY created_at DESC, id DESC
LIMIT $2;
`
	rows, err := r.db.QueryContext(ctx, q, tenant, limit)
	if err != nil {
		return nil, err
	}
	return scanProducts(rows)
}

func (r *ProductRepository) ListTopRated(ctx context.Context, tenant string, minRatings, limit int) ([]*domain.Product, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `
SELECT ` + productColumns + `
FROM products
WHERE tenant_id=$1 AND status='active' AND visibility='public' AND rating_count > $2
ORDER BY rating_avg DESC, rating_count DESC, id ASC
LIMIT $3;
`
	rows, err := r.db.QueryContext(ctx, q, tenant, minRatings, limit)
	if err != nil {
		return nil, err
	}
	return scanProducts(rows)
}

func scanProducts(rows *sql.Rows) ([]*domain.Product, error) {
	defer rows.Close()

	var out []*domain.Product
	for rows.Next() {
		var (
			p  domain.Product
			id string
		)
		if err := rows.Scan(&id, &p.TenantID, &p.Name, &p.Brand, &p.Price, &p.Currency, &p.HeroImage,
			pq.Array(&p.Concerns), pq.Array(&p.SkinTypes), &p.RatingAvg, &p.RatingCount); err != nil {
			return nil, err
		}
		p.ID = domain.ProductID(id)
		out = append(out, &p)
	}
	return out, rows.Err()
}

// Upsert writes a catalog row keyed by (tenant_id, id).
func (r *ProductRepository) Upsert(ctx context.Context, p *domain.Product) error {
	const q = `
INSERT INTO products
  (id, tenant_id, name, brand, price, currency, hero_image, concerns, skin_types, created_at)
VALUES ($1,$2,$3,NULLIF($4,''),$5,$6,NULLIF($7,''),$8,$9,NOW())
ON CONFLICT (tenant_id, id) DO UPDATE SET
  name=EXCLUDED.name,
  brand=EXCLUDED.brand,
  price=EXCLUDED.price,
  currency=EXCLUDED.currency,
  hero_image=EXCLUDED.hero_image,
  concerns=EXCLUDED.concerns,
  skin_types=EXCLUDED.skin_types;
`
	_, err := r.db.ExecContext(ctx, q, string(p.ID), p.TenantID, p.Name, p.Brand, p.Price, p.Currency, p.HeroImage,
		textArray(p.Concerns), textArray(p.SkinTypes))
	return err
}
