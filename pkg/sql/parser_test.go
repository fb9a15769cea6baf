package sql

import (
	"errors"
	"testing"

	"treestore/pkg/common"
	"treestore/pkg/core"
)

func TestParseSelect(t *testing.T) {
	tests := []struct {
		sql   string
		table string
		field string
		value common.Identifier
		err   bool
	}{
		{"SELECT * FROM tree", "tree", "", common.Identifier{}, false},
		{"select * from tree", "tree", "", common.Identifier{}, false},
		{"SELECT * FROM tree;", "tree", "", common.Identifier{}, false},
		{"  SELECT * FROM my_tree_1  ", "my_tree_1", "", common.Identifier{}, false},
		{"SELECT * FROM tree WHERE id = 7", "tree", "id", common.IntID(7), false},
		{"SELECT * FROM tree WHERE id = '7'", "tree", "id", common.StringID("7"), false},
		{`SELECT * FROM tree WHERE parent = "root"`, "tree", "parent", common.StringID("root"), false},
		{"SELECT * FROM tree WHERE ANCESTOR = -2", "tree", "ancestor", common.IntID(-2), false},
		{"SELECT * FROM tree WHERE descendant=8", "tree", "descendant", common.IntID(8), false},
		{"SELECT * FROM tree WHERE name = 1", "", "", common.Identifier{}, true},
		{"SELECT * FROM tree WHERE id >= 1", "", "", common.Identifier{}, true},
		{"SELECT * FROM ", "", "", common.Identifier{}, true},
		{"SELECT a FROM tree", "", "", common.Identifier{}, true},
		{"INSERT INTO tree", "", "", common.Identifier{}, true},
		{"", "", "", common.Identifier{}, true},
	}
	for _, tt := range tests {
		stmt, err := Parse(tt.sql)
		if tt.err {
			if err == nil {
				t.Errorf("Parse(%q): expected error", tt.sql)
			}
			continue
		}
		if err != nil {
			t.Errorf("Parse(%q): %v", tt.sql, err)
			continue
		}
		if stmt.Table != tt.table {
			t.Errorf("Parse(%q): table got %q, want %q", tt.sql, stmt.Table, tt.table)
		}
		if tt.field == "" {
			if stmt.Where != nil {
				t.Errorf("Parse(%q): unexpected WHERE %+v", tt.sql, stmt.Where)
			}
			continue
		}
		if stmt.Where == nil || stmt.Where.Field != tt.field || stmt.Where.Value != tt.value {
			t.Errorf("Parse(%q): where got %+v, want %s = %s", tt.sql, stmt.Where, tt.field, tt.value)
		}
	}
}

func TestExecute(t *testing.T) {
	items := []common.Record{
		{ID: common.IntID(1), Parent: common.StringID("root")},
		{ID: common.IntID(2), Parent: common.IntID(1)},
		{ID: common.IntID(3), Parent: common.IntID(2)},
		{ID: common.IntID(4), Parent: common.IntID(2)},
	}
	ts := core.New(items)

	tests := []struct {
		query string
		want  []int64
	}{
		{"SELECT * FROM tree", []int64{1, 2, 3, 4}},
		{"SELECT * FROM tree WHERE id = 3", []int64{3}},
		{"SELECT * FROM tree WHERE id = '3'", nil},
		{"SELECT * FROM tree WHERE parent = 2", []int64{3, 4}},
		{"SELECT * FROM tree WHERE ancestor = 1", []int64{2, 3, 4}},
		{"SELECT * FROM tree WHERE descendant = 4", []int64{2, 1}},
	}
	for _, tt := range tests {
		stmt, err := Parse(tt.query)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tt.query, err)
		}
		got, err := stmt.Execute(ts, false)
		if err != nil {
			t.Fatalf("Execute(%q): %v", tt.query, err)
		}
		if len(got) != len(tt.want) {
			t.Fatalf("Execute(%q): got %d records, want %d", tt.query, len(got), len(tt.want))
		}
		for i, w := range tt.want {
			if got[i].ID != common.IntID(w) {
				t.Errorf("Execute(%q)[%d]: got %s, want %d", tt.query, i, got[i].ID, w)
			}
		}
	}
}

func TestExecuteGuarded(t *testing.T) {
	ts := core.New([]common.Record{
		{ID: common.IntID(1), Parent: common.IntID(2)},
		{ID: common.IntID(2), Parent: common.IntID(1)},
	})
	stmt, err := Parse("SELECT * FROM tree WHERE ancestor = 1")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := stmt.Execute(ts, true); !errors.Is(err, core.ErrCycle) {
		t.Fatalf("expected ErrCycle, got %v", err)
	}
}
