// Package bunstore implements the academy durable-store ports on top of bun.
// Every method is one atomic statement (or one transaction where the
// contract demands it); ErrNotFound is wrapped around sql.ErrNoRows so
// coordinators can categorize misses.
package bunstore

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/goliatone/go-academy-core/academy"
)

// New wraps an opened *sql.DB with the bun sqlite dialect.
func New(sqldb *sql.DB) *bun.DB {
	return bun.NewDB(sqldb, sqlitedialect.New())
}

// notFound converts a no-rows result into the shared sentinel.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return academy.ErrNotFound
	}
	return err
}

// CreateSchema creates every table this module persists. Intended for the
// example binary and tests; production schemas are managed externally.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	models := []any{
		(*academy.Academy)(nil),
		(*academy.AcademicYear)(nil),
		(*academy.Trimester)(nil),
		(*academy.Class)(nil),
		(*academy.ClassYear)(nil),
		(*academy.Course)(nil),
		(*academy.CourseClass)(nil),
		(*academy.Student)(nil),
		(*academy.Inscription)(nil),
		(*academy.Test)(nil),
		(*academy.Note)(nil),
	}
	for _, model := range models {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return err
		}
	}
	_, err := db.ExecContext(ctx,
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_notes_student_test ON notes (student_id, test_id)")
	return err
}
