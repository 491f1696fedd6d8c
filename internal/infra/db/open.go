// Package db selects the SQL dialect adapters from the configured driver.
package db

import (
	"context"
	"database/sql"
	"strings"

	"github.com/bryanwahyu/skinlens/internal/domain/catalog"
	"github.com/bryanwahyu/skinlens/internal/domain/profiles"
	mysqlp "github.com/bryanwahyu/skinlens/internal/infra/db/mysql"
	pgp "github.com/bryanwahyu/skinlens/internal/infra/db/postgres"
)

// Products is what both dialects' product repositories implement.
type Products interface {
	catalog.Repository
	catalog.Writer
}

func Connect(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	if IsPostgres(driver) {
		return pgp.Connect(ctx, dsn)
	}
	return mysqlp.Connect(ctx, dsn)
}

func Repositories(driver string, db *sql.DB) (profiles.Repository, Products) {
	if IsPostgres(driver) {
		return pgp.NewProfileRepository(db), pgp.NewProductRepository(db)
	}
	return mysqlp.NewProfileRepository(db), mysqlp.NewProductRepository(db)
}

func IsPostgres(driver string) bool {
	d := strings.ToLower(strings.TrimSpace(driver))
	return d == "postgres" || d == "postgresql"
}
