package taxonomy

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wichananm65/pet-shop-admin/internal/database/databasetest"
	"github.com/wichananm65/pet-shop-admin/internal/resource"
)

func strPtr(s string) *string { return &s }

func TestSQLRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLRepository[BrandKind](databasetest.Open(t))

	acme, err := repo.Create(ctx, Brand{Name: "Acme", ImageURL: strPtr("https://img.test/acme.png")})
	require.NoError(t, err)
	assert.NotEmpty(t, acme.ID)
	assert.Equal(t, 1, acme.Version)
	assert.Equal(t, "https://img.test/acme.png", acme.Image())
	assert.NotEmpty(t, acme.CreatedAt)

	zeta, err := repo.Create(ctx, Brand{Name: "Zeta"})
	require.NoError(t, err)
	assert.Nil(t, zeta.ImageURL)

	rows, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Acme", rows[0].Name)
	assert.Equal(t, "Zeta", rows[1].Name)

	zeta.Name = "Zeta Pets"
	updated, err := repo.Update(ctx, zeta, zeta.Version)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Version)
	assert.Equal(t, "Zeta Pets", updated.Name)

	_, err = repo.Update(ctx, zeta, 1)
	assert.ErrorIs(t, err, resource.ErrConflict)

	_, err = repo.Update(ctx, Brand{ID: "missing", Name: "x"}, 0)
	assert.ErrorIs(t, err, resource.ErrNotFound)

	require.NoError(t, repo.Delete(ctx, acme.ID))
	assert.ErrorIs(t, repo.Delete(ctx, acme.ID), resource.ErrNotFound)

	_, err = repo.Get(ctx, acme.ID)
	assert.ErrorIs(t, err, resource.ErrNotFound)
}

func TestSQLRepositoryDuplicateBrand(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLRepository[BrandKind](databasetest.Open(t))

	_, err := repo.Create(ctx, Brand{Name: "Acme"})
	require.NoError(t, err)
	_, err = repo.Create(ctx, Brand{Name: "Acme"})
	assert.ErrorIs(t, err, resource.ErrDuplicate)
}

func TestSQLRepositoryProductCount(t *testing.T) {
	ctx := context.Background()
	db := databasetest.Open(t)
	repo := NewSQLRepository[CategoryKind](db)

	food, err := repo.Create(ctx, Category{Name: "Food", ImageURL: strPtr("/uploads/food.png")})
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO products (id, name, price, category_id, created_at) VALUES ('p1', 'Kibble', 29.99, ?, '2026-01-01T00:00:00.000000Z')`, food.ID)
	require.NoError(t, err)

	got, err := repo.Get(ctx, food.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.ProductCount)

	assert.ErrorIs(t, repo.Delete(ctx, food.ID), resource.ErrInUse)
}

func TestSQLRepositoryListError(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	repo := NewSQLRepository[PetTypeKind](sqlx.NewDb(mockDB, "pgx"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM pet_types t ORDER BY t.created_at, t.id")).
		WillReturnError(errors.New("connection reset"))

	_, err = repo.List(context.Background())
	assert.EqualError(t, err, "connection reset")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLRepositoryGetUsesPostgresPlaceholders(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	repo := NewSQLRepository[BrandKind](sqlx.NewDb(mockDB, "pgx"))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE t.id = $1")).
		WithArgs("b1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "image_url", "version", "created_at", "product_count"}).
			AddRow("b1", "Acme", nil, 4, "2026-01-01T00:00:00.000000Z", 2))

	got, err := repo.Get(context.Background(), "b1")
	require.NoError(t, err)
	assert.Equal(t, Brand{ID: "b1", Name: "Acme", Version: 4, CreatedAt: "2026-01-01T00:00:00.000000Z", ProductCount: 2}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}
