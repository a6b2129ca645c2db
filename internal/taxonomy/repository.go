package taxonomy

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/wichananm65/pet-shop-admin/internal/database"
	"github.com/wichananm65/pet-shop-admin/internal/resource"
)

// SQLRepository reads and writes one taxonomy table. product_count is computed
// on every read and never written.
type SQLRepository[K Spec] struct {
	db *sqlx.DB

	listQuery     string
	getQuery      string
	insertQuery   string
	updateQuery   string
	updateIfQuery string
	existsQuery   string
	deleteQuery   string
}

func NewSQLRepository[K Spec](db *sqlx.DB) *SQLRepository[K] {
	k := KindOf[K]()
	sel := fmt.Sprintf(`SELECT t.id, t.name, t.%[1]s AS image_url, t.version, t.created_at,
	(SELECT COUNT(*) FROM products p WHERE p.%[2]s = t.id) AS product_count
FROM %[3]s t`, k.ImageKey, k.ForeignKey, k.Table)
	update := fmt.Sprintf(`UPDATE %s SET name = ?, %s = ?, version = version + 1 WHERE id = ?`, k.Table, k.ImageKey)

	return &SQLRepository[K]{
		db:            db,
		listQuery:     sel + ` ORDER BY t.created_at, t.id`,
		getQuery:      db.Rebind(sel + ` WHERE t.id = ?`),
		insertQuery:   db.Rebind(fmt.Sprintf(`INSERT INTO %s (id, name, %s, version, created_at) VALUES (?, ?, ?, 1, ?)`, k.Table, k.ImageKey)),
		updateQuery:   db.Rebind(update),
		updateIfQuery: db.Rebind(update + ` AND version = ?`),
		existsQuery:   db.Rebind(fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE id = ?`, k.Table)),
		deleteQuery:   db.Rebind(fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, k.Table)),
	}
}

func (r *SQLRepository[K]) List(ctx context.Context) ([]Taxonomy[K], error) {
	rows := []Taxonomy[K]{}
	if err := r.db.SelectContext(ctx, &rows, r.listQuery); err != nil {
		return nil, database.Translate(err)
	}
	return rows, nil
}

func (r *SQLRepository[K]) Get(ctx context.Context, id string) (Taxonomy[K], error) {
	var row Taxonomy[K]
	if err := r.db.GetContext(ctx, &row, r.getQuery, id); err != nil {
		return Taxonomy[K]{}, database.Translate(err)
	}
	return row, nil
}

func (r *SQLRepository[K]) Create(ctx context.Context, t Taxonomy[K]) (Taxonomy[K], error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if _, err := r.db.ExecContext(ctx, r.insertQuery, t.ID, t.Name, t.ImageURL, database.Now()); err != nil {
		return Taxonomy[K]{}, database.Translate(err)
	}
	return r.Get(ctx, t.ID)
}

func (r *SQLRepository[K]) Update(ctx context.Context, t Taxonomy[K], ifVersion int) (Taxonomy[K], error) {
	query, args := r.updateQuery, []any{t.Name, t.ImageURL, t.ID}
	if ifVersion > 0 {
		query, args = r.updateIfQuery, append(args, ifVersion)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return Taxonomy[K]{}, database.Translate(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return Taxonomy[K]{}, err
	}
	if affected == 0 {
		return Taxonomy[K]{}, r.missOrConflict(ctx, t.ID)
	}
	return r.Get(ctx, t.ID)
}

func (r *SQLRepository[K]) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, r.deleteQuery, id)
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

func (r *SQLRepository[K]) missOrConflict(ctx context.Context, id string) error {
	var n int
	if err := r.db.GetContext(ctx, &n, r.existsQuery, id); err != nil {
		return database.Translate(err)
	}
	if n == 0 {
		return resource.ErrNotFound
	}
	return resource.ErrConflict
}
