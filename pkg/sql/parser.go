package sql

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"treestore/pkg/common"
	"treestore/pkg/core"
)

// SelectStmt represents a parsed tree query.
type SelectStmt struct {
	Table string
	Where *WhereClause
}

// WhereClause selects records by their relation to Value:
//
//	id         = v   the record with id v
//	parent     = v   direct children of v
//	ancestor   = v   descendants of v (records that have v as an ancestor)
//	descendant = v   ancestors of v (records that have v as a descendant)
type WhereClause struct {
	Field string
	Value common.Identifier
}

var selectRe = regexp.MustCompile(`(?i)^SELECT\s+\*\s+FROM\s+([a-zA-Z_][a-zA-Z0-9_]*)(?:\s+WHERE\s+([a-zA-Z_][a-zA-Z0-9_]*)\s*=\s*(-?\d+|'[^']*'|"[^"]*"))?\s*$`)

// Parse parses simple queries:
// "SELECT * FROM tree"
// "SELECT * FROM tree WHERE parent = 2"
// "SELECT * FROM tree WHERE id = 'abc'"
// Integer literals are integer ids; quoted literals are string ids.
func Parse(s string) (*SelectStmt, error) {
	orig := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), ";"))
	if orig == "" {
		return nil, errors.New("empty query")
	}

	matches := selectRe.FindStringSubmatch(orig)
	if matches == nil {
		return nil, errors.New("syntax: expected SELECT * FROM <table> [WHERE id|parent|ancestor|descendant = <id>]")
	}

	stmt := &SelectStmt{Table: matches[1]}
	if matches[2] == "" {
		return stmt, nil
	}

	field := strings.ToLower(matches[2])
	switch field {
	case "id", "parent", "ancestor", "descendant":
	default:
		return nil, fmt.Errorf("unsupported WHERE field %q", matches[2])
	}

	value, err := parseLiteral(matches[3])
	if err != nil {
		return nil, err
	}
	stmt.Where = &WhereClause{Field: field, Value: value}
	return stmt, nil
}

func parseLiteral(lit string) (common.Identifier, error) {
	if lit[0] == '\'' || lit[0] == '"' {
		return common.StringID(lit[1 : len(lit)-1]), nil
	}
	n, err := strconv.ParseInt(lit, 10, 64)
	if err != nil {
		return common.Identifier{}, errors.New("invalid WHERE value")
	}
	return common.IntID(n), nil
}

// Execute runs the statement against ts. With guard set, descendant and
// ancestor walks fail with core.ErrCycle instead of looping.
func (stmt *SelectStmt) Execute(ts *core.TreeStore, guard bool) ([]*common.Record, error) {
	if stmt.Where == nil {
		all := ts.All()
		out := make([]*common.Record, len(all))
		for i := range all {
			out[i] = &all[i]
		}
		return out, nil
	}

	id := stmt.Where.Value
	switch stmt.Where.Field {
	case "id":
		if rec, ok := ts.Get(id); ok {
			return []*common.Record{rec}, nil
		}
		return []*common.Record{}, nil
	case "parent":
		return ts.Children(id), nil
	case "ancestor":
		if guard {
			return ts.DescendantsChecked(id)
		}
		return ts.Descendants(id), nil
	default:
		if guard {
			return ts.AncestorsChecked(id)
		}
		return ts.Ancestors(id), nil
	}
}
