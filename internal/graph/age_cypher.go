package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func validIdent(s string) bool { return identRe.MatchString(s) }

// cypher runs query through ag_catalog.cypher. Values travel as the agtype
// parameter map ($1), so no user text is ever spliced into the query.
func (t *ageTx) cypher(ctx context.Context, query string, params Props, columns string) (pgx.Rows, error) {
	if params == nil {
		params = Props{}
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("encode cypher params: %w", err)
	}
	sql := fmt.Sprintf(`SELECT * FROM ag_catalog.cypher('%s', $$ %s $$, $1) AS (%s)`, t.graph, query, columns)
	return t.tx.Query(ctx, sql, string(raw))
}

// propMap renders props as a Cypher map literal of parameter references.
func propMap(props Props) (string, Props, error) {
	params := Props{}
	keys := sortedKeys(props)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		if !validIdent(k) {
			return "", nil, fmt.Errorf("invalid property name %q", k)
		}
		parts = append(parts, fmt.Sprintf("%s: $p_%s", k, k))
		params["p_"+k] = props[k]
	}
	return "{" + strings.Join(parts, ", ") + "}", params, nil
}

// setClause renders SET/REMOVE clauses for variable v.
func setClause(v string, props Props) (string, Props, error) {
	params := Props{}
	var sets, removes []string
	for _, k := range sortedKeys(props) {
		if !validIdent(k) {
			return "", nil, fmt.Errorf("invalid property name %q", k)
		}
		if props[k] == nil {
			removes = append(removes, fmt.Sprintf("%s.%s", v, k))
			continue
		}
		sets = append(sets, fmt.Sprintf("%s.%s = $p_%s", v, k, k))
		params["p_"+k] = props[k]
	}
	var b strings.Builder
	if len(sets) > 0 {
		b.WriteString("SET " + strings.Join(sets, ", "))
	}
	if len(removes) > 0 {
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString("REMOVE " + strings.Join(removes, ", "))
	}
	return b.String(), params, nil
}

func sortedKeys(props Props) []string {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// scanAGEIntIDs scans agtype integer results into []int64.
func scanAGEIntIDs(rows pgx.Rows) ([]int64, error) {
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		id, err := parseAGEInt(raw)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func parseAGEInt(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse agtype id %q: %w", raw, err)
	}
	return id, nil
}

// decodeAGEProps parses an agtype map; its text form is JSON.
func decodeAGEProps(raw string) (Props, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return Props{}, nil
	}
	return decodeProps(raw)
}
