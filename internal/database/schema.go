package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// The DDL sticks to the subset postgres, mysql and sqlite all accept.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS brands (
		id VARCHAR(64) PRIMARY KEY,
		name VARCHAR(255) NOT NULL UNIQUE,
		logo_url TEXT,
		version INTEGER NOT NULL DEFAULT 1,
		created_at VARCHAR(40) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS categories (
		id VARCHAR(64) PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		image_url TEXT,
		version INTEGER NOT NULL DEFAULT 1,
		created_at VARCHAR(40) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS pet_types (
		id VARCHAR(64) PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		image_url TEXT,
		version INTEGER NOT NULL DEFAULT 1,
		created_at VARCHAR(40) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id VARCHAR(64) PRIMARY KEY,
		first_name VARCHAR(255) NOT NULL,
		last_name VARCHAR(255) NOT NULL,
		phone VARCHAR(64),
		is_admin BOOLEAN NOT NULL DEFAULT FALSE,
		has_pets VARCHAR(8),
		pets TEXT,
		interests TEXT,
		newsletter BOOLEAN NOT NULL DEFAULT FALSE,
		preferences TEXT,
		version INTEGER NOT NULL DEFAULT 1,
		created_at VARCHAR(40) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id VARCHAR(64) PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		description TEXT,
		price NUMERIC(10,2) NOT NULL,
		original_price NUMERIC(10,2),
		weight VARCHAR(64),
		dimensions VARCHAR(128),
		quantity INTEGER NOT NULL DEFAULT 0,
		images TEXT,
		rating DOUBLE PRECISION NOT NULL DEFAULT 0,
		reviews_count INTEGER NOT NULL DEFAULT 0,
		category_id VARCHAR(64),
		brand_id VARCHAR(64),
		pet_type_id VARCHAR(64),
		user_id VARCHAR(64),
		version INTEGER NOT NULL DEFAULT 1,
		created_at VARCHAR(40) NOT NULL,
		FOREIGN KEY (category_id) REFERENCES categories (id) ON DELETE RESTRICT,
		FOREIGN KEY (brand_id) REFERENCES brands (id) ON DELETE RESTRICT,
		FOREIGN KEY (pet_type_id) REFERENCES pet_types (id) ON DELETE RESTRICT,
		FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE SET NULL
	)`,
}

func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i+1, err)
		}
	}
	return nil
}
