package migrations

import (
	"context"
	_ "embed"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

//go:embed 2026101901_create_classroom_schema.sql
var createClassroomSchemaSQL string

var Migrations = migrate.NewMigrations()

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			return execStatements(ctx, db, createClassroomSchemaSQL)
		},
		func(ctx context.Context, db *bun.DB) error {
			return execStatements(ctx, db, `
DROP TABLE IF EXISTS quizzes;
--bun:split
DROP TABLE IF EXISTS class_members;
--bun:split
DROP TABLE IF EXISTS classes;
--bun:split
DROP TABLE IF EXISTS users;`)
		},
	)
}

// execStatements runs each --bun:split separated statement in order.
func execStatements(ctx context.Context, db *bun.DB, script string) error {
	for _, stmt := range strings.Split(script, "--bun:split") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
