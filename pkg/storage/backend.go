package storage

import (
	"database/sql"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"sync"

	"treestore/pkg/common"

	_ "modernc.org/sqlite"
)

var tableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// SQLiteBackend keeps a flat record list in one table. Rows come back in
// insertion order, which is the order the index relies on for children.
type SQLiteBackend struct {
	db    *sql.DB
	table string
	mu    sync.Mutex
}

func NewSQLiteBackend(path, table string) (*SQLiteBackend, error) {
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	query := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %s (
		seq         INTEGER PRIMARY KEY AUTOINCREMENT,
		id_kind     INTEGER NOT NULL,
		id          TEXT NOT NULL,
		parent_kind INTEGER NOT NULL,
		parent      TEXT NOT NULL,
		type        TEXT
	);`, table)
	if _, err := db.Exec(query); err != nil {
		db.Close()
		return nil, fmt.Errorf("init table %s: %w", table, err)
	}

	_, err = db.Exec(`
		PRAGMA journal_mode = WAL;
		PRAGMA synchronous = NORMAL;
	`)
	if err != nil {
		log.Printf("[Store] Warning: Failed to set PRAGMA: %v", err)
	}

	return &SQLiteBackend{db: db, table: table}, nil
}

// Replace swaps the table contents for records in one transaction, keeping
// their order.
func (s *SQLiteBackend) Replace(records []common.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(fmt.Sprintf("DELETE FROM %s", s.table)); err != nil {
		tx.Rollback()
		return err
	}

	stmt, err := tx.Prepare(fmt.Sprintf(
		"INSERT INTO %s (id_kind, id, parent_kind, parent, type) VALUES (?, ?, ?, ?, ?)", s.table))
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, rec := range records {
		var typ sql.NullString
		if rec.Type != nil {
			typ = sql.NullString{String: *rec.Type, Valid: true}
		}
		_, err := stmt.Exec(int(rec.ID.Kind()), rec.ID.Raw(), int(rec.Parent.Kind()), rec.Parent.Raw(), typ)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("insert record %s: %w", rec.ID, err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteBackend) LoadAll() ([]common.Record, error) {
	rows, err := s.db.Query(fmt.Sprintf(
		"SELECT id_kind, id, parent_kind, parent, type FROM %s ORDER BY seq ASC", s.table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]common.Record, 0)
	for rows.Next() {
		var (
			idKind, parentKind int
			id, parent         string
			typ                sql.NullString
		)
		if err := rows.Scan(&idKind, &id, &parentKind, &parent, &typ); err != nil {
			return nil, err
		}
		rec := common.Record{}
		if rec.ID, err = decodeID(common.IDKind(idKind), id); err != nil {
			return nil, err
		}
		if rec.Parent, err = decodeID(common.IDKind(parentKind), parent); err != nil {
			return nil, err
		}
		if typ.Valid {
			rec.Type = common.TypeOf(typ.String)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func decodeID(kind common.IDKind, raw string) (common.Identifier, error) {
	switch kind {
	case common.KindInt:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return common.Identifier{}, fmt.Errorf("corrupt integer id %q: %w", raw, err)
		}
		return common.IntID(n), nil
	case common.KindString:
		return common.StringID(raw), nil
	default:
		return common.Identifier{}, nil
	}
}

func (s *SQLiteBackend) Close() error {
	return s.db.Close()
}
