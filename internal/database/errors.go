package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/wichananm65/pet-shop-admin/internal/resource"
)

const (
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"

	mysqlDuplicateEntry  = 1062
	mysqlRowIsReferenced = 1451
	mysqlNoReferencedRow = 1452
)

// Translate maps driver errors onto resource sentinels and leaves the rest untouched.
func Translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return resource.ErrNotFound
	}
	if sentinel := classify(err); sentinel != nil {
		return fmt.Errorf("%w: %v", sentinel, err)
	}
	return err
}

// TranslateWrite is Translate for inserting or updating a row that holds
// foreign keys. A violation there means the referenced row is missing.
func TranslateWrite(err error) error {
	out := Translate(err)
	if errors.Is(out, resource.ErrInUse) {
		return fmt.Errorf("%w: %v", missingReference(), err)
	}
	return out
}

func missingReference() error {
	return resource.Invalid("reference", "points to a missing row")
}

func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return byCode(pgErr.Code, pgErr.Message)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return byCode(string(pqErr.Code), pqErr.Message)
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case mysqlRowIsReferenced:
			return resource.ErrInUse
		case mysqlNoReferencedRow:
			return missingReference()
		case mysqlDuplicateEntry:
			return resource.ErrDuplicate
		}
		return nil
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return resource.ErrInUse
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return resource.ErrDuplicate
		}
		if strings.Contains(liteErr.Error(), "FOREIGN KEY constraint failed") {
			return resource.ErrInUse
		}
	}
	return nil
}

// byCode reads the statement kind from the message: postgres reports
// "insert or update on table ..." for a missing parent and
// "update or delete on table ..." for a referenced one.
func byCode(code, message string) error {
	switch code {
	case pgForeignKeyViolation:
		if strings.HasPrefix(message, "insert or update") {
			return missingReference()
		}
		return resource.ErrInUse
	case pgUniqueViolation:
		return resource.ErrDuplicate
	}
	return nil
}
