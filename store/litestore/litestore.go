// Package litestore persists account records in a sqlite database.
//
// It implements the same store contract as the flat-file store but
// moves duplicate detection into the database: usernames are a primary
// key with COLLATE NOCASE, so concurrent signups for the same name
// resolve to exactly one winner no matter how writes interleave.
// Records are kept as JSON so the two store kinds stay interchangeable
// per realm.
package litestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/cyberheroes/portal/account"
	"github.com/cyberheroes/portal/internal/logutil"
	"github.com/cyberheroes/portal/store"
)

type (
	// Store is a sqlite-backed account store for one realm.
	Store[T account.Record[T]] struct {
		db    *sql.DB
		table string
	}
)

// Open opens (creating if needed) the database at path and binds the
// store to table. seed, when non-nil, provides records inserted the
// first time the table turns out empty.
func Open[T account.Record[T]](ctx context.Context, path, table string, seed func() []T) (*Store[T], error) {
	connstr := fmt.Sprintf("file:%v?_journal=wal&_busy_timeout=5000&mode=rwc", path)
	db, err := sql.Open("sqlite3", connstr)
	if err != nil {
		return nil, fmt.Errorf("litestore: unable to open %v, cause %w", path, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("litestore: unable to ping %v, cause %w", path, err)
	}
	s := &Store[T]{db: db, table: table}
	if err := s.init(ctx, seed); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying database handle.
func (s *Store[T]) Close() error { return s.db.Close() }

func (s *Store[T]) init(ctx context.Context, seed func() []T) error {
	ddl := fmt.Sprintf(`create table if not exists %v (
		name text primary key collate nocase,
		record text not null)`, s.table)
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("litestore: unable to create table %v, cause %w", s.table, err)
	}
	if seed == nil {
		return nil
	}
	var total int
	row := s.db.QueryRowContext(ctx, fmt.Sprintf(`select count(*) from %v`, s.table))
	if err := row.Scan(&total); err != nil {
		return fmt.Errorf("litestore: counting %v: %w", s.table, err)
	}
	if total > 0 {
		return nil
	}
	recs := seed()
	if len(recs) == 0 {
		return nil
	}
	logger := logutil.GetOrDefault(ctx)
	logger.Warn().
		Str("store.table", s.table).
		Int("store.seeded", len(recs)).
		Msg("Store table empty, inserting seed records")
	for _, rec := range recs {
		if err := s.Insert(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

// ReadAll returns every record in insertion order.
func (s *Store[T]) ReadAll(ctx context.Context) ([]T, error) {
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`select record from %v order by rowid`, s.table))
	if err != nil {
		return nil, fmt.Errorf("litestore: reading %v: %w", s.table, err)
	}
	defer rows.Close()
	var out []T
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("litestore: scanning %v: %w", s.table, err)
		}
		var rec T
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("litestore: decoding record in %v: %w", s.table, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("litestore: reading %v: %w", s.table, err)
	}
	return out, nil
}

// WriteAll replaces the entire table content in one transaction.
func (s *Store[T]) WriteAll(ctx context.Context, recs []T) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("litestore: starting write to %v: %w", s.table, err)
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`delete from %v`, s.table)); err != nil {
		return fmt.Errorf("litestore: clearing %v: %w", s.table, err)
	}
	for _, rec := range recs {
		if err := insertTx(ctx, tx, s.table, rec); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Insert stores rec, failing with store.ErrDuplicate when the username
// is already taken (any casing).
func (s *Store[T]) Insert(ctx context.Context, rec T) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("litestore: starting insert into %v: %w", s.table, err)
	}
	defer tx.Rollback()
	if err := insertTx(ctx, tx, s.table, rec); err != nil {
		return err
	}
	return tx.Commit()
}

func insertTx[T account.Record[T]](ctx context.Context, tx *sql.Tx, table string, rec T) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("litestore: encoding record for %v: %w", table, err)
	}
	_, err = tx.ExecContext(ctx,
		fmt.Sprintf(`insert into %v (name, record) values (?, ?)`, table),
		rec.AccountName(), string(raw))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrDuplicate
		}
		return fmt.Errorf("litestore: inserting into %v: %w", table, err)
	}
	return nil
}
