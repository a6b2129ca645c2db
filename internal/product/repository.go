package product

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/wichananm65/pet-shop-admin/internal/database"
	"github.com/wichananm65/pet-shop-admin/internal/resource"
)

const selectProducts = `SELECT p.id, p.name, COALESCE(p.description, '') AS description, p.price, p.original_price,
	p.weight, p.dimensions, p.quantity, (p.quantity > 0) AS in_stock, p.images, p.rating, p.reviews_count,
	p.category_id, p.brand_id, p.pet_type_id, p.user_id, p.version, p.created_at,
	c.name AS category_name, b.name AS brand_name, t.name AS pet_type_name
FROM products p
LEFT JOIN categories c ON c.id = p.category_id
LEFT JOIN brands b ON b.id = p.brand_id
LEFT JOIN pet_types t ON t.id = p.pet_type_id`

const (
	listProductsQuery = selectProducts + ` ORDER BY p.created_at, p.id`
	getProductQuery   = selectProducts + ` WHERE p.id = ?`

	insertProductQuery = `INSERT INTO products (id, name, description, price, original_price, weight, dimensions,
	quantity, images, rating, reviews_count, category_id, brand_id, pet_type_id, user_id, version, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?)`

	updateProductQuery = `UPDATE products SET name = ?, description = ?, price = ?, original_price = ?, weight = ?,
	dimensions = ?, quantity = ?, images = ?, rating = ?, reviews_count = ?, category_id = ?, brand_id = ?,
	pet_type_id = ?, user_id = ?, version = version + 1
WHERE id = ?`

	productExistsQuery = `SELECT COUNT(*) FROM products WHERE id = ?`
	deleteProductQuery = `DELETE FROM products WHERE id = ?`
)

type SQLRepository struct {
	db *sqlx.DB
}

func NewSQLRepository(db *sqlx.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

func (r *SQLRepository) List(ctx context.Context) ([]Product, error) {
	rows := []Product{}
	if err := r.db.SelectContext(ctx, &rows, listProductsQuery); err != nil {
		return nil, database.Translate(err)
	}
	return rows, nil
}

func (r *SQLRepository) Get(ctx context.Context, id string) (Product, error) {
	var p Product
	if err := r.db.GetContext(ctx, &p, r.db.Rebind(getProductQuery), id); err != nil {
		return Product{}, database.Translate(err)
	}
	return p, nil
}

func (r *SQLRepository) Create(ctx context.Context, p Product) (Product, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, r.db.Rebind(insertProductQuery),
		p.ID, p.Name, p.Description, p.Price, p.OriginalPrice, p.Weight, p.Dimensions,
		p.Quantity, p.Images, p.Rating, p.ReviewsCount, p.CategoryID, p.BrandID, p.PetTypeID, p.UserID,
		database.Now(),
	)
	if err != nil {
		return Product{}, database.TranslateWrite(err)
	}
	return r.Get(ctx, p.ID)
}

func (r *SQLRepository) Update(ctx context.Context, p Product, ifVersion int) (Product, error) {
	query := updateProductQuery
	args := []any{
		p.Name, p.Description, p.Price, p.OriginalPrice, p.Weight, p.Dimensions, p.Quantity, p.Images,
		p.Rating, p.ReviewsCount, p.CategoryID, p.BrandID, p.PetTypeID, p.UserID, p.ID,
	}
	if ifVersion > 0 {
		query += ` AND version = ?`
		args = append(args, ifVersion)
	}

	res, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return Product{}, database.TranslateWrite(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return Product{}, err
	}
	if affected == 0 {
		var n int
		if err := r.db.GetContext(ctx, &n, r.db.Rebind(productExistsQuery), p.ID); err != nil {
			return Product{}, database.Translate(err)
		}
		if n == 0 {
			return Product{}, resource.ErrNotFound
		}
		return Product{}, resource.ErrConflict
	}
	return r.Get(ctx, p.ID)
}

func (r *SQLRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(deleteProductQuery), id)
	if err != nil {
		return database.Translate(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return resource.ErrNotFound
	}
	return nil
}
