package mysql

import (
	"context"
	"database/sql"

	domain "github.com/bryanwahyu/skinlens/internal/domain/catalog"
)

const productColumns = `id, tenant_id, name, brand, price, currency, hero_image, concerns_json, skin_types_json, rating_avg, rating_count`

type ProductRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// ListPublic returns active public products ordered by created_at desc
func (r *ProductRepository) ListPublic(ctx context.Context, tenant string, limit int) ([]*domain.Product, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `
SELECT ` + productColumns + `
FROM products
WHERE tenant_id=? AND status='active' AND visibility='public'
ORDER BY created_at DESC, id DESC
LIMIT ?;
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
WHERE tenant_id=? AND status='active' AND visibility='public' AND rating_count > ?
ORDER BY rating_avg DESC, rating_count DESC, id ASC
LIMIT ?;
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
			p                  domain.Product
			id                 string
			brand, hero        sql.NullString
			concerns, skinJSON []byte
		)
		if err := rows.Scan(&id, &p.TenantID, &p.Name, &brand, &p.Price, &p.Currency, &hero, &concerns, &skinJSON,
			&p.RatingAvg, &p.RatingCount); err != nil {
			return nil, err
		}
		p.ID = domain.ProductID(id)
		p.Brand = brand.String
		p.HeroImage = hero.String
		p.Concerns = stringList(concerns)
		p.SkinTypes = stringList(skinJSON)
		out = append(out, &p)
	}
	return out, rows.Err()
}

// Upsert writes a catalog row keyed by (tenant_id, id).
func (r *ProductRepository) Upsert(ctx context.Context, p *domain.Product) error {
	const q = `
INSERT INTO products
  (id, tenant_id, name, brand, price, currency, hero_image, concerns_json, skin_types_json, created_at)
VALUES (?,?,?,NULLIF(?,''),?,?,NULLIF(?,''),?,?,UTC_TIMESTAMP(6))
ON DUPLICATE KEY UPDATE
  name=VALUES(name), brand=VALUES(brand), price=VALUES(price), currency=VALUES(currency),
  hero_image=VALUES(hero_image), concerns_json=VALUES(concerns_json), skin_types_json=VALUES(skin_types_json);
`
	concerns, err := jsonList(p.Concerns)
	if err != nil {
		return err
	}
	skinTypes, err := jsonList(p.SkinTypes)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, q, string(p.ID), p.TenantID, p.Name, p.Brand, p.Price, p.Currency, p.HeroImage,
		concerns, skinTypes)
	return err
}
