package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"treestore/pkg/common"
	"treestore/pkg/config"
)

var ErrUnknownSource = errors.New("unknown record source")

// Source supplies the flat record list an index is built from.
type Source interface {
	LoadAll() ([]common.Record, error)
	Close() error
}

var (
	_ Source = (*JSONSource)(nil)
	_ Source = (*SQLiteBackend)(nil)
)

// JSONSource reads a JSON array of records from a file.
type JSONSource struct {
	path string
}

func NewJSONSource(path string) *JSONSource {
	return &JSONSource{path: path}
}

func (s *JSONSource) LoadAll() ([]common.Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}
	records := make([]common.Record, 0)
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	for i := range records {
		if records[i].ID.IsZero() {
			return nil, fmt.Errorf("decode %s: record %d has no id", s.path, i)
		}
	}
	return records, nil
}

func (s *JSONSource) Close() error { return nil }

// Open returns the source described by cfg.
func Open(cfg config.SourceConfig) (Source, error) {
	switch cfg.Kind {
	case "json":
		return NewJSONSource(cfg.Path), nil
	case "sqlite":
		b, err := NewSQLiteBackend(cfg.Path, cfg.Table)
		if err != nil {
			return nil, err
		}
		return b, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, cfg.Kind)
	}
}

// Import replaces the contents of dst with the records of src, keeping their
// order. It returns the number of records written.
func Import(dst *SQLiteBackend, src Source) (int, error) {
	records, err := src.LoadAll()
	if err != nil {
		return 0, err
	}
	if err := dst.Replace(records); err != nil {
		return 0, fmt.Errorf("write %s: %w", dst.table, err)
	}
	return len(records), nil
}
