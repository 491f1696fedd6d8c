package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/skinlens/internal/domain/catalog"
	"github.com/bryanwahyu/skinlens/internal/domain/profiles"
)

var productColumnNames = []string{"id", "tenant_id", "name", "brand", "price", "currency", "hero_image",
	"concerns", "skin_types", "rating_avg", "rating_count"}

func TestProfileRepository_SaveUpsertsByUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	p := &profiles.Profile{
		ID: "p-9", TenantID: "shop", UserID: "u-1",
		ArtifactKey: "shop/u-1/p-9.json", ArtifactURL: "http://minio/skin/shop/u-1/p-9.json",
		UpdatedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	result, _ := json.Marshal(p.Result)
	mock.ExpectExec(`INSERT INTO skin_profiles .+ ON CONFLICT \(tenant_id, user_id\)`).
		WithArgs("p-9", "shop", "u-1", "-", p.ArtifactKey, p.ArtifactURL, result, p.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, NewProfileRepository(db).Save(context.Background(), p))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepository_Get(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cols := []string{"id", "tenant_id", "user_id", "artifact_key", "artifact_url", "result_json", "updated_at"}
	mock.ExpectQuery("SELECT (.+) FROM skin_profiles").
		WithArgs("shop", "u-1").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("p-1", "shop", "u-1", "-", "-", []byte(`{"skin_type":null,"merged":{"Acne":{"probability":0.4,"sources":["lesions"]}}}`), time.Now()))

	got, err := NewProfileRepository(db).Get(context.Background(), "shop", "u-1")
	require.NoError(t, err)
	assert.Equal(t, "Acne", got.Result.Merged["Acne"].Label)
	assert.Empty(t, got.SkinTypeLabel())

	mock.ExpectQuery("SELECT (.+) FROM skin_profiles").
		WithArgs("shop", "none").
		WillReturnRows(sqlmock.NewRows(cols))
	_, err = NewProfileRepository(db).Get(context.Background(), "shop", "none")
	assert.True(t, errors.Is(err, profiles.ErrNotFound))
}

func TestProfileRepository_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("DELETE FROM skin_profiles").WithArgs("shop", "u-1").WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, NewProfileRepository(db).Delete(context.Background(), "shop", "u-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_ListPublicScansArrays(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM products").
		WithArgs("shop", 100).
		WillReturnRows(sqlmock.NewRows(productColumnNames).
			AddRow("sku-1", "shop", "Spot Serum", "", 10.0, "IDR", "", []byte(`{Acne,"Dark Spots"}`), []byte(`{oily_skin}`), 0.0, 0))

	got, err := NewProductRepository(db).ListPublic(context.Background(), "shop", 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, catalog.ProductID("sku-1"), got[0].ID)
	assert.Equal(t, []string{"Acne", "Dark Spots"}, got[0].Concerns)
	assert.Equal(t, []string{"oily_skin"}, got[0].SkinTypes)
}

func TestProductRepository_Upsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`(?s)INSERT INTO products.+ON CONFLICT \(tenant_id, id\) DO UPDATE`).
		WithArgs("sku-1", "shop", "Spot Serum", "", 10.0, "IDR", "", `{"Acne"}`, `{"oily_skin"}`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = NewProductRepository(db).Upsert(context.Background(), &catalog.Product{
		ID: "sku-1", TenantID: "shop", Name: "Spot Serum", Price: 10, Currency: "IDR",
		Concerns: []string{"Acne"}, SkinTypes: []string{"oily_skin"},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSchema_ProductsKeyedByTenant(t *testing.T) {
	b, err := os.ReadFile("schema.sql")
	require.NoError(t, err)
	assert.Contains(t, string(b), "PRIMARY KEY (tenant_id, id)")
	assert.NotRegexp(t, `id\s+VARCHAR\(64\)\s+PRIMARY KEY`, string(b))
}

func TestProductRepository_ListTopRated(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`(?s)SELECT\s.+\sFROM products\s.+rating_count > \$2.+ORDER BY rating_avg DESC`).
		WithArgs("shop", 2, 100).
		WillReturnRows(sqlmock.NewRows(productColumnNames).
			AddRow("sku-9", "shop", "Sunscreen", "Acme", 75.0, "IDR", "", []byte(`{}`), []byte(`{}`), 4.8, 31))

	got, err := NewProductRepository(db).ListTopRated(context.Background(), "shop", 2, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 4.8, got[0].RatingAvg)
	assert.Equal(t, 31, got[0].RatingCount)
	assert.Empty(t, got[0].Concerns)
	assert.NoError(t, mock.ExpectationsWereMet())
}
