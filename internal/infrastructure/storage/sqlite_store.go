package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"HNDigest/internal/domain"
	"HNDigest/internal/ports"
)

const (
	ledgerTable  = "ledger"
	historyTable = "history"
	insertChunk  = 200
)

const schema = `
CREATE TABLE IF NOT EXISTS ledger (
    item_id INTEGER PRIMARY KEY,
    score   INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS history (
    position INTEGER PRIMARY KEY,
    payload  TEXT NOT NULL
);`

// SQLiteStore persists the ledger and history in an embedded SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

var _ ports.StateStore = (*SQLiteStore)(nil)

// OpenSQLiteStore opens (or creates) the database at path and ensures the schema.
func OpenSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Load reads both tables. An empty database yields the empty state.
func (s *SQLiteStore) Load(ctx context.Context) (domain.State, error) {
	state := domain.EmptyState()

	query, args, err := sq.Select("item_id", "score").From(ledgerTable).ToSql()
	if err != nil {
		return domain.State{}, fmt.Errorf("build ledger query: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return domain.State{}, fmt.Errorf("query ledger: %w", err)
	}
	for rows.Next() {
		var id, score int
		if err := rows.Scan(&id, &score); err != nil {
			_ = rows.Close()
			return domain.State{}, fmt.Errorf("scan ledger: %w", err)
		}
		state.Ledger[id] = score
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return domain.State{}, fmt.Errorf("ledger rows: %w", err)
	}
	if err := rows.Close(); err != nil {
		return domain.State{}, fmt.Errorf("close ledger rows: %w", err)
	}

	query, args, err = sq.Select("payload").From(historyTable).OrderBy("position").ToSql()
	if err != nil {
		return domain.State{}, fmt.Errorf("build history query: %w", err)
	}
	rows, err = s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return domain.State{}, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return domain.State{}, fmt.Errorf("scan history: %w", err)
		}
		var rec entryRecord
		if err := json.Unmarshal([]byte(payload), &rec); err != nil {
			return domain.EmptyState(), fmt.Errorf("%w: history payload: %v", ErrCorruptState, err)
		}
		state.History = append(state.History, decodeEntry(rec))
	}
	if err := rows.Err(); err != nil {
		return domain.State{}, fmt.Errorf("history rows: %w", err)
	}

	return state, nil
}

// Save replaces both tables inside one transaction.
func (s *SQLiteStore) Save(ctx context.Context, state domain.State) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, table := range []string{ledgerTable, historyTable} {
		query, args, buildErr := sq.Delete(table).ToSql()
		if buildErr != nil {
			return fmt.Errorf("build delete %s: %w", table, buildErr)
		}
		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	ids := sortedIDs(state.Ledger)
	for start := 0; start < len(ids); start += insertChunk {
		end := min(start+insertChunk, len(ids))
		insert := sq.Insert(ledgerTable).Columns("item_id", "score")
		for _, id := range ids[start:end] {
			insert = insert.Values(id, state.Ledger[id])
		}
		if err = execBuilder(ctx, tx, insert); err != nil {
			return fmt.Errorf("insert ledger: %w", err)
		}
	}

	for start := 0; start < len(state.History); start += insertChunk {
		end := min(start+insertChunk, len(state.History))
		insert := sq.Insert(historyTable).Columns("position", "payload")
		for i, e := range state.History[start:end] {
			payload, marshalErr := json.Marshal(encodeEntry(e))
			if marshalErr != nil {
				return fmt.Errorf("encode history entry: %w", marshalErr)
			}
			insert = insert.Values(start+i, string(payload))
		}
		if err = execBuilder(ctx, tx, insert); err != nil {
			return fmt.Errorf("insert history: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func execBuilder(ctx context.Context, tx *sql.Tx, b sq.Sqlizer) error {
	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("build statement: %w", err)
	}
	_, err = tx.ExecContext(ctx, query, args...)
	return err
}
