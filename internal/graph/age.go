package graph

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// ageSetup runs at the start of every graph transaction.
const ageSetup = `LOAD 'age'; SET LOCAL search_path TO ag_catalog, "$user", public`

// AGEStore keeps the graph in Postgres through the Apache AGE extension.
type AGEStore struct {
	pool  *pgxpool.Pool
	graph string
}

// ConnectAGE creates a pgx pool, ensures the graph exists and applies schema files.
func ConnectAGE(ctx context.Context, databaseURL, graphName string) (*AGEStore, error) {
	if databaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if !validIdent(graphName) {
		return nil, fmt.Errorf("invalid graph name %q", graphName)
	}

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse DATABASE_URL: %w", err)
	}
	config.MaxConns = 10
	config.MinConns = 1

	// Plain SQL resolves to public; graph transactions switch via ageSetup.
	config.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		_, err := conn.Exec(ctx, "SET search_path TO public")
		return err
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := &AGEStore{pool: pool, graph: graphName}
	if err := s.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	slog.Info("graph postgres connected",
		slog.String("addr", config.ConnConfig.Host),
		slog.String("graph", graphName))
	return s, nil
}

// Close closes the pool.
func (s *AGEStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *AGEStore) runMigrations(ctx context.Context) error {
	entries, err := schemaFS.ReadDir("schema")
	if err != nil {
		return fmt.Errorf("read schema dir: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire migration connection: %w", err)
	}
	defer conn.Release()

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		data, err := schemaFS.ReadFile("schema/" + entry.Name())
		if err != nil {
			return fmt.Errorf("read %s: %w", entry.Name(), err)
		}
		stmt := strings.ReplaceAll(string(data), "{{graph}}", s.graph)

		_, err = conn.Exec(ctx, stmt)
		// Every file moves search_path to ag_catalog; reset it for the next one.
		_, _ = conn.Exec(ctx, "SET search_path TO public")
		if err != nil {
			if strings.HasPrefix(entry.Name(), "001") {
				return fmt.Errorf("execute %s: %w", entry.Name(), err)
			}
			slog.Warn("graph index migration failed, uniqueness falls back to merge locks",
				slog.String("file", entry.Name()),
				slog.Any("error", err))
			continue
		}
		slog.Info("migration applied", slog.String("file", entry.Name()))
	}
	return nil
}

// InTx runs fn inside one Postgres transaction.
func (s *AGEStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, ageSetup); err != nil {
			return fmt.Errorf("age setup: %w", err)
		}
		return fn(&ageTx{tx: tx, graph: s.graph})
	})
}

type ageTx struct {
	tx    pgx.Tx
	graph string
}

func (t *ageTx) Lock(ctx context.Context, label, key string) error {
	_, err := t.tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, t.graph+":"+label+":"+key)
	return err
}

func (t *ageTx) FindByKey(ctx context.Context, label, key string) (*Node, error) {
	keyProp, ok := Keys[label]
	if !ok {
		return nil, fmt.Errorf("find %s: label has no key", label)
	}
	nodes, err := t.queryNodes(ctx, label,
		fmt.Sprintf(`MATCH (n:%s) WHERE n.%s = $key RETURN id(n), properties(n) LIMIT 1`, label, keyProp),
		Props{"key": key})
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, ErrNotFound
	}
	return &nodes[0], nil
}

func (t *ageTx) Nodes(ctx context.Context, label string) ([]Node, error) {
	return t.queryNodes(ctx, label,
		fmt.Sprintf(`MATCH (n:%s) RETURN id(n), properties(n) ORDER BY id(n)`, label), nil)
}

func (t *ageTx) CreateNode(ctx context.Context, label string, props Props) (int64, error) {
	literal, params, err := propMap(nonNil(props))
	if err != nil {
		return 0, err
	}
	rows, err := t.cypher(ctx,
		fmt.Sprintf(`CREATE (n:%s %s) RETURN id(n)`, label, literal), params, "id agtype")
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", label, err)
	}
	ids, err := scanAGEIntIDs(rows)
	if err != nil {
		return 0, err
	}
	if len(ids) != 1 {
		return 0, fmt.Errorf("create %s: no id returned", label)
	}
	return ids[0], nil
}

func (t *ageTx) SetProps(ctx context.Context, id int64, props Props) error {
	clause, params, err := setClause("n", props)
	if err != nil || clause == "" {
		return err
	}
	params["id"] = id
	return t.exec(ctx, fmt.Sprintf(`MATCH (n) WHERE id(n) = $id %s`, clause), params)
}

func (t *ageTx) DeleteNode(ctx context.Context, id int64) error {
	return t.exec(ctx, `MATCH (n) WHERE id(n) = $id DETACH DELETE n`, Props{"id": id})
}

func (t *ageTx) MergeEdge(ctx context.Context, from, to int64, label string, props Props) (bool, error) {
	edgeID, found, err := t.findEdge(ctx, from, to, label)
	if err != nil {
		return false, err
	}
	if found {
		clause, params, err := setClause("r", props)
		if err != nil || clause == "" {
			return false, err
		}
		params["rid"] = edgeID
		return false, t.exec(ctx,
			fmt.Sprintf(`MATCH ()-[r:%s]->() WHERE id(r) = $rid %s`, label, clause), params)
	}

	literal, params, err := propMap(nonNil(props))
	if err != nil {
		return false, err
	}
	params["from"] = from
	params["to"] = to
	err = t.exec(ctx, fmt.Sprintf(
		`MATCH (a), (b) WHERE id(a) = $from AND id(b) = $to CREATE (a)-[r:%s %s]->(b)`, label, literal), params)
	return err == nil, err
}

func (t *ageTx) DeleteEdge(ctx context.Context, from, to int64, label string) (bool, error) {
	edgeID, found, err := t.findEdge(ctx, from, to, label)
	if err != nil || !found {
		return false, err
	}
	err = t.exec(ctx, fmt.Sprintf(`MATCH ()-[r:%s]->() WHERE id(r) = $rid DELETE r`, label), Props{"rid": edgeID})
	return err == nil, err
}

func (t *ageTx) Out(ctx context.Context, from int64, label string) ([]Link, error) {
	rows, err := t.cypher(ctx,
		fmt.Sprintf(`MATCH (a)-[r:%s]->(b) WHERE id(a) = $from
			RETURN properties(r), id(b), label(b), properties(b) ORDER BY id(r)`, label),
		Props{"from": from},
		"rprops agtype, bid agtype, blabel agtype, bprops agtype")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []Link
	for rows.Next() {
		var rprops, bid, blabel, bprops string
		if err := rows.Scan(&rprops, &bid, &blabel, &bprops); err != nil {
			return nil, err
		}
		l := Link{Label: label}
		if l.Props, err = decodeAGEProps(rprops); err != nil {
			return nil, err
		}
		if l.Node.ID, err = parseAGEInt(bid); err != nil {
			return nil, err
		}
		l.Node.Label = strings.Trim(strings.TrimSpace(blabel), `"`)
		if l.Node.Props, err = decodeAGEProps(bprops); err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

func (t *ageTx) findEdge(ctx context.Context, from, to int64, label string) (int64, bool, error) {
	rows, err := t.cypher(ctx,
		fmt.Sprintf(`MATCH (a)-[r:%s]->(b) WHERE id(a) = $from AND id(b) = $to RETURN id(r) LIMIT 1`, label),
		Props{"from": from, "to": to}, "id agtype")
	if err != nil {
		return 0, false, err
	}
	ids, err := scanAGEIntIDs(rows)
	if err != nil || len(ids) == 0 {
		return 0, false, err
	}
	return ids[0], true, nil
}

func (t *ageTx) queryNodes(ctx context.Context, label, query string, params Props) ([]Node, error) {
	rows, err := t.cypher(ctx, query, params, "id agtype, props agtype")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var nodes []Node
	for rows.Next() {
		var rawID, rawProps string
		if err := rows.Scan(&rawID, &rawProps); err != nil {
			return nil, err
		}
		id, err := parseAGEInt(rawID)
		if err != nil {
			return nil, err
		}
		props, err := decodeAGEProps(rawProps)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, Node{ID: id, Label: label, Props: props})
	}
	return nodes, rows.Err()
}

func (t *ageTx) exec(ctx context.Context, query string, params Props) error {
	rows, err := t.cypher(ctx, query, params, "result agtype")
	if err != nil {
		return err
	}
	rows.Close()
	return rows.Err()
}
