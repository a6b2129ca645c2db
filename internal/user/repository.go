package user

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/wichananm65/pet-shop-admin/internal/database"
	"github.com/wichananm65/pet-shop-admin/internal/resource"
)

const (
	listUsersQuery = `SELECT id, first_name, last_name, phone, is_admin, has_pets, pets, interests, newsletter,
	preferences, version, created_at
FROM users ORDER BY created_at, id`

	getUserQuery = `SELECT id, first_name, last_name, phone, is_admin, has_pets, pets, interests, newsletter,
	preferences, version, created_at
FROM users WHERE id = ?`

	insertUserQuery = `INSERT INTO users (id, first_name, last_name, phone, is_admin, has_pets, pets, interests,
	newsletter, preferences, version, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?)`

	updateUserQuery = `UPDATE users SET first_name = ?, last_name = ?, phone = ?, is_admin = ?, has_pets = ?,
	pets = ?, interests = ?, newsletter = ?, preferences = ?, version = version + 1
WHERE id = ?`

	userExistsQuery = `SELECT COUNT(*) FROM users WHERE id = ?`
	deleteUserQuery = `DELETE FROM users WHERE id = ?`
)

type SQLRepository struct {
	db *sqlx.DB
}

func NewSQLRepository(db *sqlx.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

func (r *SQLRepository) List(ctx context.Context) ([]User, error) {
	users := []User{}
	if err := r.db.SelectContext(ctx, &users, listUsersQuery); err != nil {
		return nil, database.Translate(err)
	}
	return users, nil
}

func (r *SQLRepository) Get(ctx context.Context, id string) (User, error) {
	var u User
	if err := r.db.GetContext(ctx, &u, r.db.Rebind(getUserQuery), id); err != nil {
		return User{}, database.Translate(err)
	}
	return u, nil
}

func (r *SQLRepository) Create(ctx context.Context, u User) (User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, r.db.Rebind(insertUserQuery),
		u.ID, u.FirstName, u.LastName, u.Phone, u.IsAdmin, u.HasPets, u.Pets, u.Interests,
		u.Newsletter, u.Preferences, database.Now(),
	)
	if err != nil {
		return User{}, database.Translate(err)
	}
	return r.Get(ctx, u.ID)
}

func (r *SQLRepository) Update(ctx context.Context, u User, ifVersion int) (User, error) {
	query := updateUserQuery
	args := []any{u.FirstName, u.LastName, u.Phone, u.IsAdmin, u.HasPets, u.Pets, u.Interests, u.Newsletter, u.Preferences, u.ID}
	if ifVersion > 0 {
		query += ` AND version = ?`
		args = append(args, ifVersion)
	}

	res, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return User{}, database.Translate(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return User{}, err
	}
	if affected == 0 {
		var n int
		if err := r.db.GetContext(ctx, &n, r.db.Rebind(userExistsQuery), u.ID); err != nil {
			return User{}, database.Translate(err)
		}
		if n == 0 {
			return User{}, resource.ErrNotFound
		}
		return User{}, resource.ErrConflict
	}
	return r.Get(ctx, u.ID)
}

func (r *SQLRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(deleteUserQuery), id)
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
