// Package sqltable stores entries in a relational table (k, v, t) where t is
// the absolute unix expiration or NULL. Rows past their expiration are invisible
// to reads and removed by Prune.
package sqltable

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	pr "github.com/unkn0wn-root/tiercache/provider"
)

var (
	ErrNilDB        = errors.New("sqltable: nil db")
	ErrInvalidTable = errors.New("sqltable: invalid table name")
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

type Config struct {
	DB      *sql.DB
	Table   string  // default "cache"
	Dialect Dialect // default SQLite
	CloseDB bool    // set true only if this provider exclusively owns DB
	Now     func() time.Time
}

type Table struct {
	db      *sql.DB
	dialect Dialect
	closeDB bool
	now     func() time.Time

	qGet, qSet, qDel, qClear, qPrune string
	table                            string
}

var _ pr.BatchProvider = (*Table)(nil)

// New validates cfg and creates the table when it does not exist.
func New(ctx context.Context, cfg Config) (*Table, error) {
	if cfg.DB == nil {
		return nil, ErrNilDB
	}
	if cfg.Table == "" {
		cfg.Table = "cache"
	}
	if !identRe.MatchString(cfg.Table) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTable, cfg.Table)
	}
	if cfg.Dialect.Placeholder == nil {
		cfg.Dialect = SQLite
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	d := cfg.Dialect
	t := &Table{
		db:      cfg.DB,
		dialect: d,
		closeDB: cfg.CloseDB,
		now:     cfg.Now,
		table:   cfg.Table,
	}
	t.qGet = fmt.Sprintf("SELECT v FROM %s WHERE k = %s AND (t IS NULL OR t > %s)",
		t.table, d.Placeholder(1), d.Placeholder(2))
	t.qSet = fmt.Sprintf("INSERT INTO %s (k, v, t) VALUES (%s) ON CONFLICT (k) DO UPDATE SET v = excluded.v, t = excluded.t",
		t.table, d.placeholders(1, 3))
	t.qDel = fmt.Sprintf("DELETE FROM %s WHERE k = %s", t.table, d.Placeholder(1))
	t.qClear = fmt.Sprintf("DELETE FROM %s", t.table)
	t.qPrune = fmt.Sprintf("DELETE FROM %s WHERE t IS NOT NULL AND t <= %s", t.table, d.Placeholder(1))

	ddl := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (k TEXT PRIMARY KEY, v %s NOT NULL, t %s NULL)",
		t.table, d.BlobType, d.IntType)
	if _, err := t.db.ExecContext(ctx, ddl); err != nil {
		return nil, fmt.Errorf("failed to create table %s: %w", t.table, err)
	}
	return t, nil
}

func (t *Table) nowUnix() int64 { return t.now().Unix() }

// expiresAt turns a relative ttl into the t column. Partial seconds round up.
func (t *Table) expiresAt(ttl time.Duration) sql.NullInt64 {
	if ttl <= 0 {
		return sql.NullInt64{}
	}
	secs := int64(ttl / time.Second)
	if ttl%time.Second > 0 {
		secs++
	}
	return sql.NullInt64{Int64: t.nowUnix() + secs, Valid: true}
}

func (t *Table) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var v []byte
	err := t.db.QueryRowContext(ctx, t.qGet, key, t.nowUnix()).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func (t *Table) Set(ctx context.Context, key string, value []byte, _ int64, ttl time.Duration) (bool, error) {
	if _, err := t.db.ExecContext(ctx, t.qSet, key, value, t.expiresAt(ttl)); err != nil {
		return false, err
	}
	return true, nil
}

func (t *Table) Del(ctx context.Context, key string) error {
	_, err := t.db.ExecContext(ctx, t.qDel, key)
	return err
}

func (t *Table) GetMany(ctx context.Context, keys []string) (map[string][]byte, error) {
	out := make(map[string][]byte, len(keys))
	if len(keys) == 0 {
		return out, nil
	}
	d := t.dialect
	q := fmt.Sprintf("SELECT k, v FROM %s WHERE k IN (%s) AND (t IS NULL OR t > %s)",
		t.table, d.placeholders(1, len(keys)), d.Placeholder(len(keys)+1))
	args := make([]any, 0, len(keys)+1)
	for _, k := range keys {
		args = append(args, k)
	}
	args = append(args, t.nowUnix())

	rows, err := t.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			k string
			v []byte
		)
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, rows.Err()
}

// SetMany writes every item in one transaction.
func (t *Table) SetMany(ctx context.Context, items map[string][]byte, ttl time.Duration) (ok bool, err error) {
	if len(items) == 0 {
		return true, nil
	}
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, t.qSet)
	if err != nil {
		return false, err
	}
	defer stmt.Close()

	exp := t.expiresAt(ttl)
	for k, v := range items {
		if _, err = stmt.ExecContext(ctx, k, v, exp); err != nil {
			return false, err
		}
	}
	if err = tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

func (t *Table) DelMany(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	q := fmt.Sprintf("DELETE FROM %s WHERE k IN (%s)", t.table, t.dialect.placeholders(1, len(keys)))
	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}
	_, err := t.db.ExecContext(ctx, q, args...)
	return err
}

func (t *Table) Clear(ctx context.Context) error {
	_, err := t.db.ExecContext(ctx, t.qClear)
	return err
}

// Prune deletes expired rows and returns how many were removed.
func (t *Table) Prune(ctx context.Context) (int64, error) {
	res, err := t.db.ExecContext(ctx, t.qPrune, t.nowUnix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (t *Table) Close(context.Context) error {
	if t.closeDB {
		return t.db.Close()
	}
	return nil
}
