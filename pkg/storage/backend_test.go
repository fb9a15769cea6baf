package storage

import (
	"os"
	"path/filepath"
	"testing"

	"treestore/pkg/common"
	"treestore/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecords() []common.Record {
	return []common.Record{
		{ID: common.IntID(1), Parent: common.StringID("root")},
		{ID: common.StringID("7"), Parent: common.IntID(1), Type: common.TypeOf("test")},
		{ID: common.IntID(7), Parent: common.StringID("7"), Type: common.TypeOf("")},
		{ID: common.IntID(-3), Parent: common.IntID(7)},
	}
}

func TestSQLiteRoundTripPreservesOrderAndKinds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tree.db")
	b, err := NewSQLiteBackend(path, "records")
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, b.Replace(sampleRecords()))

	got, err := b.LoadAll()
	require.NoError(t, err)
	assert.Equal(t, sampleRecords(), got)
}

func TestSQLiteReplaceDiscardsOldRows(t *testing.T) {
	b, err := NewSQLiteBackend(filepath.Join(t.TempDir(), "tree.db"), "nodes")
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, b.Replace(sampleRecords()))
	require.NoError(t, b.Replace(sampleRecords()[:2]))

	got, err := b.LoadAll()
	require.NoError(t, err)
	assert.Equal(t, sampleRecords()[:2], got)

	require.NoError(t, b.Replace(nil))
	got, err = b.LoadAll()
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSQLiteRejectsBadTableName(t *testing.T) {
	_, err := NewSQLiteBackend(filepath.Join(t.TempDir(), "tree.db"), "records; DROP TABLE x")
	assert.Error(t, err)
}

func TestJSONSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.json")
	content := `[
  {"id": 1, "parent": "root"},
  {"id": "7", "parent": 1, "type": "test"},
  {"id": 7, "parent": "7", "type": ""},
  {"id": -3, "parent": 7}
]`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	got, err := NewJSONSource(path).LoadAll()
	require.NoError(t, err)
	assert.Equal(t, sampleRecords(), got)
}

func TestJSONSourceErrors(t *testing.T) {
	_, err := NewJSONSource(filepath.Join(t.TempDir(), "missing.json")).LoadAll()
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id": 1.5, "parent": "root"}]`), 0644))
	_, err = NewJSONSource(path).LoadAll()
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	src, err := Open(config.SourceConfig{Kind: "json", Path: filepath.Join(dir, "r.json")})
	require.NoError(t, err)
	assert.IsType(t, &JSONSource{}, src)

	src, err = Open(config.SourceConfig{Kind: "sqlite", Path: filepath.Join(dir, "r.db"), Table: "records"})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteBackend{}, src)
	require.NoError(t, src.Close())

	_, err = Open(config.SourceConfig{Kind: "csv"})
	assert.ErrorIs(t, err, ErrUnknownSource)
}

func TestImportReplacesSQLiteContents(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "records.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`[
  {"id": 1, "parent": "root"},
  {"id": "7", "parent": 1, "type": "test"},
  {"id": 7, "parent": "7", "type": ""},
  {"id": -3.0, "parent": 7}
]`), 0644))

	b, err := NewSQLiteBackend(filepath.Join(dir, "tree.db"), "records")
	require.NoError(t, err)
	defer b.Close()
	require.NoError(t, b.Replace([]common.Record{{ID: common.IntID(99), Parent: common.StringID("root")}}))

	n, err := Import(b, NewJSONSource(jsonPath))
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	got, err := b.LoadAll()
	require.NoError(t, err)
	assert.Equal(t, sampleRecords(), got)

	_, err = Import(b, NewJSONSource(filepath.Join(dir, "missing.json")))
	assert.Error(t, err)
	got, err = b.LoadAll()
	require.NoError(t, err)
	assert.Len(t, got, 4, "a failed import leaves the table alone")
}

func TestJSONSourceRejectsMissingID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id": 1, "parent": "root"}, {"parent": 1}]`), 0644))

	_, err := NewJSONSource(path).LoadAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "record 1 has no id")
}
