// Package sqlite provides a SQLite-backed SessionStore using the pure-Go modernc driver.
//
// Edges are stored one row per log entry, keyed by (session, seq), so the raw log
// keeps its order and its duplicates.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/gamebook/pkg/domain"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA foreign_keys=ON",
}

// Store implements ports.SessionStore on a SQLite database.
type Store struct {
	conn *sql.DB
	path string
}

// Open opens or creates the database at path. Use ":memory:" for a private
// in-memory database.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}
	if path == ":memory:" {
		// every pooled connection would otherwise see its own empty database
		conn.SetMaxOpenConns(1)
	}

	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("applying pragma %q: %w", pragma, err)
		}
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}

	return &Store{conn: conn, path: path}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Save replaces the session log inside one transaction.
func (s *Store) Save(ctx context.Context, sessionID string, session *domain.Session) error {
	if sessionID == "" {
		return errors.New("sessionID cannot be empty")
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	// 1. Upsert the session row
	_, err = tx.ExecContext(ctx,
		`INSERT INTO sessions (id, updated_at) VALUES (?, ?)
		 ON CONFLICT(id) DO UPDATE SET updated_at = excluded.updated_at`,
		sessionID, time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("upserting session: %w", err)
	}

	// 2. Drop the previous log
	if _, err := tx.ExecContext(ctx, `DELETE FROM edges WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("clearing edges: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM required_nodes WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("clearing required nodes: %w", err)
	}

	// 3. Insert the new log in order
	edgeStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO edges (session_id, seq, from_node, to_node, chosen, tag, is_secret) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing edge insert: %w", err)
	}
	defer edgeStmt.Close()
	for i, e := range session.Edges {
		if _, err := edgeStmt.ExecContext(ctx, sessionID, i, e.From, e.To, e.Chosen, e.Tag, e.IsSecret); err != nil {
			return fmt.Errorf("inserting edge %d: %w", i, err)
		}
	}

	reqStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO required_nodes (session_id, seq, node) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing required insert: %w", err)
	}
	defer reqStmt.Close()
	for i, id := range session.Required {
		if _, err := reqStmt.ExecContext(ctx, sessionID, i, id); err != nil {
			return fmt.Errorf("inserting required node %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Load reads the session log back in recording order.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	var updated int64
	err := s.conn.QueryRowContext(ctx,
		`SELECT updated_at FROM sessions WHERE id = ?`, sessionID,
	).Scan(&updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying session: %w", err)
	}

	session := domain.NewSession(sessionID)
	session.UpdatedAt = time.UnixMilli(updated).UTC()

	rows, err := s.conn.QueryContext(ctx,
		`SELECT from_node, to_node, chosen, tag, is_secret FROM edges WHERE session_id = ? ORDER BY seq`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying edges: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var e domain.Edge
		if err := rows.Scan(&e.From, &e.To, &e.Chosen, &e.Tag, &e.IsSecret); err != nil {
			return nil, fmt.Errorf("scanning edge: %w", err)
		}
		session.Edges = append(session.Edges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating edges: %w", err)
	}

	reqRows, err := s.conn.QueryContext(ctx,
		`SELECT node FROM required_nodes WHERE session_id = ? ORDER BY seq`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying required nodes: %w", err)
	}
	defer reqRows.Close()
	for reqRows.Next() {
		var id string
		if err := reqRows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning required node: %w", err)
		}
		session.Required = append(session.Required, id)
	}
	if err := reqRows.Err(); err != nil {
		return nil, fmt.Errorf("iterating required nodes: %w", err)
	}

	return session, nil
}

// Delete removes the session and its log.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		`DELETE FROM edges WHERE session_id = ?`,
		`DELETE FROM required_nodes WHERE session_id = ?`,
		`DELETE FROM sessions WHERE id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, sessionID); err != nil {
			return fmt.Errorf("deleting session: %w", err)
		}
	}
	return tx.Commit()
}

// List returns stored session IDs in lexical order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT id FROM sessions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	sessions := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning session id: %w", err)
		}
		sessions = append(sessions, id)
	}
	return sessions, rows.Err()
}
