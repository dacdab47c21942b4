package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/mintpool-net/premintpool/premint"
)

// SQLStore is the durable, SQL-backed Store named in spec §4.5 and §6. It
// uses modernc.org/sqlite, a pure-Go sqlite driver, so the binary stays
// cgo-free the way the teacher's own `probedb`/leveldb storage layer does.
type SQLStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS premints (
	kind    TEXT NOT NULL,
	id      TEXT NOT NULL,
	version INTEGER NOT NULL,
	payload TEXT NOT NULL,
	PRIMARY KEY (kind, id)
);
CREATE TABLE IF NOT EXISTS seen (
	kind TEXT NOT NULL,
	id   TEXT NOT NULL,
	PRIMARY KEY (kind, id)
);
CREATE TABLE IF NOT EXISTS claims (
	chain_id   INTEGER NOT NULL,
	tx_hash    TEXT NOT NULL,
	log_index  INTEGER NOT NULL,
	premint_id TEXT NOT NULL,
	kind       TEXT NOT NULL,
	PRIMARY KEY (chain_id, tx_hash, log_index)
);
`

// OpenSQLStore opens (creating if absent) a sqlite database at dsn — either
// a file path or ":memory:" — and applies the schema above.
func OpenSQLStore(dsn string) (*SQLStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: opening sqlite at %q: %w", dsn, err)
	}
	db.SetMaxOpenConns(1) // sqlite writers are serialized anyway; keep it simple
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: applying schema: %w", err)
	}
	return &SQLStore{db: db}, nil
}

func (s *SQLStore) StorePremint(ctx context.Context, p premint.Premint) error {
	meta := p.Metadata()
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("store: marshaling premint: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var existingVersion uint64
	err = tx.QueryRowContext(ctx,
		`SELECT version FROM premints WHERE kind = ? AND id = ?`, meta.Kind, meta.ID,
	).Scan(&existingVersion)
	switch {
	case err == sql.ErrNoRows:
		// first write for this (kind, id)
	case err != nil:
		return err
	case meta.Version <= existingVersion:
		return ErrVersionConflict
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO premints (kind, id, version, payload) VALUES (?, ?, ?, ?)
		 ON CONFLICT (kind, id) DO UPDATE SET version = excluded.version, payload = excluded.payload`,
		meta.Kind, meta.ID, meta.Version, string(payload),
	); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLStore) ListAll(ctx context.Context) ([]premint.Premint, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.kind, p.payload FROM premints p
		LEFT JOIN seen s ON s.kind = p.kind AND s.id = p.id
		WHERE s.id IS NULL`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []premint.Premint
	for rows.Next() {
		var kind, payload string
		if err := rows.Scan(&kind, &payload); err != nil {
			return nil, err
		}
		p, err := premint.DecodeJSON(kind, json.RawMessage(payload))
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLStore) GetForIDAndKind(ctx context.Context, kind, id string) (premint.Premint, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM premints WHERE kind = ? AND id = ?`, kind, id,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return premint.DecodeJSON(kind, json.RawMessage(payload))
}

func (s *SQLStore) IsSeenOnChain(ctx context.Context, kind, id string) (bool, error) {
	var x int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM seen WHERE kind = ? AND id = ?`, kind, id,
	).Scan(&x)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

func (s *SQLStore) MarkSeenOnChain(ctx context.Context, c premint.InclusionClaim) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO claims (chain_id, tx_hash, log_index, premint_id, kind) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (chain_id, tx_hash, log_index) DO NOTHING`,
		c.ChainID, c.TxHash.Hex(), c.LogIndex, c.PremintID, c.Kind,
	); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO seen (kind, id) VALUES (?, ?) ON CONFLICT (kind, id) DO NOTHING`,
		c.Kind, c.PremintID,
	); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLStore) Close() error { return s.db.Close() }

var _ Store = (*SQLStore)(nil)
