package graph

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps the graph in two tables of an embedded SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the graph database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("graph: mkdir %s: %w", filepath.Dir(path), err)
	}
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("graph: open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite: single writer
	if err := initSQLiteSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("graph: init schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func initSQLiteSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS graph_nodes (
			id       INTEGER PRIMARY KEY AUTOINCREMENT,
			label    TEXT NOT NULL,
			node_key TEXT,
			props    TEXT NOT NULL DEFAULT '{}'
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_graph_nodes_key
			ON graph_nodes(label, node_key) WHERE node_key IS NOT NULL`,
		`CREATE INDEX IF NOT EXISTS idx_graph_nodes_label ON graph_nodes(label)`,
		`CREATE INDEX IF NOT EXISTS idx_graph_nodes_job_source
			ON graph_nodes(json_extract(props, '$.source')) WHERE label = 'JobPosting'`,
		`CREATE TABLE IF NOT EXISTS graph_edges (
			id    INTEGER PRIMARY KEY AUTOINCREMENT,
			label TEXT NOT NULL,
			src   INTEGER NOT NULL REFERENCES graph_nodes(id) ON DELETE CASCADE,
			dst   INTEGER NOT NULL REFERENCES graph_nodes(id) ON DELETE CASCADE,
			props TEXT NOT NULL DEFAULT '{}',
			UNIQUE(label, src, dst)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_graph_edges_src ON graph_edges(src, label)`,
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// InTx runs fn in one SQLite transaction.
func (s *SQLiteStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("graph: begin: %w", err)
	}
	if err := fn(&sqliteTx{tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("graph: commit: %w", err)
	}
	return nil
}

type sqliteTx struct {
	tx *sql.Tx
}

// Lock is a no-op: the single connection already serializes writers.
func (t *sqliteTx) Lock(context.Context, string, string) error { return nil }

func (t *sqliteTx) FindByKey(ctx context.Context, label, key string) (*Node, error) {
	var (
		id  int64
		raw string
	)
	err := t.tx.QueryRowContext(ctx,
		`SELECT id, props FROM graph_nodes WHERE label = ? AND node_key = ?`, label, key,
	).Scan(&id, &raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	props, err := decodeProps(raw)
	if err != nil {
		return nil, err
	}
	return &Node{ID: id, Label: label, Props: props}, nil
}

func (t *sqliteTx) Nodes(ctx context.Context, label string) ([]Node, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT id, props FROM graph_nodes WHERE label = ? ORDER BY id`, label)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var nodes []Node
	for rows.Next() {
		var (
			id  int64
			raw string
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, err
		}
		props, err := decodeProps(raw)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, Node{ID: id, Label: label, Props: props})
	}
	return nodes, rows.Err()
}

func (t *sqliteTx) CreateNode(ctx context.Context, label string, props Props) (int64, error) {
	raw, err := json.Marshal(nonNil(props))
	if err != nil {
		return 0, err
	}
	var key any
	if k := keyOf(label, props); k != "" {
		key = k
	}
	res, err := t.tx.ExecContext(ctx,
		`INSERT INTO graph_nodes (label, node_key, props) VALUES (?, ?, ?)`, label, key, string(raw))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (t *sqliteTx) SetProps(ctx context.Context, id int64, props Props) error {
	var raw string
	err := t.tx.QueryRowContext(ctx, `SELECT props FROM graph_nodes WHERE id = ?`, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	current, err := decodeProps(raw)
	if err != nil {
		return err
	}
	applyProps(current, props)
	out, err := json.Marshal(current)
	if err != nil {
		return err
	}
	_, err = t.tx.ExecContext(ctx, `UPDATE graph_nodes SET props = ? WHERE id = ?`, string(out), id)
	return err
}

func (t *sqliteTx) DeleteNode(ctx context.Context, id int64) error {
	_, err := t.tx.ExecContext(ctx, `DELETE FROM graph_nodes WHERE id = ?`, id)
	return err
}

func (t *sqliteTx) MergeEdge(ctx context.Context, from, to int64, label string, props Props) (bool, error) {
	var (
		id  int64
		raw string
	)
	err := t.tx.QueryRowContext(ctx,
		`SELECT id, props FROM graph_edges WHERE label = ? AND src = ? AND dst = ?`, label, from, to,
	).Scan(&id, &raw)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		out, err := json.Marshal(nonNil(props))
		if err != nil {
			return false, err
		}
		_, err = t.tx.ExecContext(ctx,
			`INSERT INTO graph_edges (label, src, dst, props) VALUES (?, ?, ?, ?)`,
			label, from, to, string(out))
		return err == nil, err
	case err != nil:
		return false, err
	}
	if len(props) == 0 {
		return false, nil
	}
	current, err := decodeProps(raw)
	if err != nil {
		return false, err
	}
	applyProps(current, props)
	out, err := json.Marshal(current)
	if err != nil {
		return false, err
	}
	_, err = t.tx.ExecContext(ctx, `UPDATE graph_edges SET props = ? WHERE id = ?`, string(out), id)
	return false, err
}

func (t *sqliteTx) DeleteEdge(ctx context.Context, from, to int64, label string) (bool, error) {
	res, err := t.tx.ExecContext(ctx,
		`DELETE FROM graph_edges WHERE label = ? AND src = ? AND dst = ?`, label, from, to)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (t *sqliteTx) Out(ctx context.Context, from int64, label string) ([]Link, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT e.props, n.id, n.label, n.props
		   FROM graph_edges e JOIN graph_nodes n ON n.id = e.dst
		  WHERE e.src = ? AND e.label = ?
		  ORDER BY e.id`, from, label)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []Link
	for rows.Next() {
		var (
			edgeRaw, nodeRaw string
			l                Link
		)
		if err := rows.Scan(&edgeRaw, &l.Node.ID, &l.Node.Label, &nodeRaw); err != nil {
			return nil, err
		}
		if l.Props, err = decodeProps(edgeRaw); err != nil {
			return nil, err
		}
		if l.Node.Props, err = decodeProps(nodeRaw); err != nil {
			return nil, err
		}
		l.Label = label
		links = append(links, l)
	}
	return links, rows.Err()
}

func decodeProps(raw string) (Props, error) {
	props := Props{}
	if raw == "" {
		return props, nil
	}
	if err := json.Unmarshal([]byte(raw), &props); err != nil {
		return nil, fmt.Errorf("decode props: %w", err)
	}
	return props, nil
}

func applyProps(dst, src Props) {
	for k, v := range src {
		if v == nil {
			delete(dst, k)
			continue
		}
		dst[k] = v
	}
}
