// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package monomer

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// Store persists a monomer library in SQLite.
type Store struct {
	db *sql.DB
}

// OpenStore opens or creates the monomer database at path and creates the
// schema if it does not exist.
func OpenStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS monomers (
			polymer_type TEXT NOT NULL,
			symbol TEXT NOT NULL,
			name TEXT,
			natural_analog TEXT,
			smiles TEXT NOT NULL,
			PRIMARY KEY (polymer_type, symbol)
		)`,
		`CREATE TABLE IF NOT EXISTS attachments (
			polymer_type TEXT NOT NULL,
			symbol TEXT NOT NULL,
			label TEXT NOT NULL,
			cap TEXT NOT NULL,
			PRIMARY KEY (polymer_type, symbol, label),
			FOREIGN KEY (polymer_type, symbol) REFERENCES monomers(polymer_type, symbol) ON DELETE CASCADE
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Import upserts every monomer of lib in one transaction and returns the
// number written.
func (s *Store) Import(ctx context.Context, lib *Library) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	upsert, err := tx.PrepareContext(ctx,
		`INSERT INTO monomers (polymer_type, symbol, name, natural_analog, smiles)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(polymer_type, symbol) DO UPDATE SET
			name=excluded.name, natural_analog=excluded.natural_analog, smiles=excluded.smiles`)
	if err != nil {
		return 0, fmt.Errorf("preparing monomer upsert: %w", err)
	}
	defer upsert.Close()

	detach, err := tx.PrepareContext(ctx,
		`DELETE FROM attachments WHERE polymer_type = ? AND symbol = ?`)
	if err != nil {
		return 0, fmt.Errorf("preparing attachment delete: %w", err)
	}
	defer detach.Close()

	insert, err := tx.PrepareContext(ctx,
		`INSERT INTO attachments (polymer_type, symbol, label, cap) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing attachment insert: %w", err)
	}
	defer insert.Close()

	n := 0
	for _, m := range lib.Monomers() {
		if _, err := upsert.ExecContext(ctx, m.PolymerType, m.Symbol, m.Name, m.NaturalAnalog, m.SMILES); err != nil {
			return 0, fmt.Errorf("upserting monomer %s: %w", m.Symbol, err)
		}
		if _, err := detach.ExecContext(ctx, m.PolymerType, m.Symbol); err != nil {
			return 0, fmt.Errorf("clearing attachments of %s: %w", m.Symbol, err)
		}
		for _, a := range m.Attachments {
			if _, err := insert.ExecContext(ctx, m.PolymerType, m.Symbol, a.Label, a.Cap); err != nil {
				return 0, fmt.Errorf("inserting attachment %s of %s: %w", a.Label, m.Symbol, err)
			}
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing import: %w", err)
	}
	return n, nil
}

// Load reads every stored monomer into a new library. Rows that fail
// validation abort the load.
func (s *Store) Load(ctx context.Context) (*Library, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT polymer_type, symbol, COALESCE(name, ''), COALESCE(natural_analog, ''), smiles
		 FROM monomers ORDER BY polymer_type, symbol`)
	if err != nil {
		return nil, fmt.Errorf("querying monomers: %w", err)
	}
	defer rows.Close()

	var monomers []*Monomer
	byKey := make(map[key]*Monomer)
	for rows.Next() {
		m := &Monomer{}
		if err := rows.Scan(&m.PolymerType, &m.Symbol, &m.Name, &m.NaturalAnalog, &m.SMILES); err != nil {
			return nil, fmt.Errorf("scanning monomer: %w", err)
		}
		monomers = append(monomers, m)
		byKey[key{m.PolymerType, m.Symbol}] = m
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating monomers: %w", err)
	}

	arows, err := s.db.QueryContext(ctx,
		`SELECT polymer_type, symbol, label, cap FROM attachments ORDER BY polymer_type, symbol, label`)
	if err != nil {
		return nil, fmt.Errorf("querying attachments: %w", err)
	}
	defer arows.Close()

	for arows.Next() {
		var k key
		var a Attachment
		if err := arows.Scan(&k.polymerType, &k.symbol, &a.Label, &a.Cap); err != nil {
			return nil, fmt.Errorf("scanning attachment: %w", err)
		}
		if m, ok := byKey[k]; ok {
			m.Attachments = append(m.Attachments, a)
		}
	}
	if err := arows.Err(); err != nil {
		return nil, fmt.Errorf("iterating attachments: %w", err)
	}

	lib := NewLibrary()
	for _, m := range monomers {
		if err := lib.Add(m); err != nil {
			return nil, fmt.Errorf("loading stored library: %w", err)
		}
	}
	return lib, nil
}
