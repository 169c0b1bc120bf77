package sqltable

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

// Dialect carries the few SQL differences between supported engines.
type Dialect struct {
	Name     string
	BlobType string
	IntType  string
	// Placeholder renders the n-th (1-based) bind parameter.
	Placeholder func(n int) string
}

var (
	SQLite = Dialect{
		Name:        "sqlite3",
		BlobType:    "BLOB",
		IntType:     "INTEGER",
		Placeholder: func(int) string { return "?" },
	}
	Postgres = Dialect{
		Name:        "postgres",
		BlobType:    "BYTEA",
		IntType:     "BIGINT",
		Placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
	}
)

// placeholders renders count parameters starting at from, comma separated.
func (d Dialect) placeholders(from, count int) string {
	var b strings.Builder
	for i := 0; i < count; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(d.Placeholder(from + i))
	}
	return b.String()
}

// OpenSQLite opens a sqlite3 database. The pool is limited to one connection so
// ":memory:" databases are shared and writers do not contend on the file lock.
func OpenSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// OpenPostgres opens a PostgreSQL database through pgx's database/sql driver.
func OpenPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}
