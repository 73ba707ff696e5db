package zombiezen

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/revelaction/dialmark/storage"
)

var ErrTableNotFound = errors.New("table not found")

const registry = "dialmark_tables"

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// TableStore keeps review tables in a SQLite database, one SQL table per
// review table, every column TEXT. Row order is insertion order.
type TableStore struct {
	pool *sqlitex.Pool
}

var _ storage.TableRepository = (*TableStore)(nil)

func NewTableStore(pool *sqlitex.Pool) *TableStore {
	return &TableStore{pool: pool}
}

// WriteTable drops and recreates the table and inserts every row in one
// savepoint. Short rows are padded with empty cells.
func (h *TableStore) WriteTable(name string, t storage.Table) (err error) {
	if err := checkTable(name, t); err != nil {
		return err
	}

	conn, err := h.pool.Take(context.TODO())
	if err != nil {
		return err
	}
	defer h.pool.Put(conn)

	defer sqlitex.Save(conn)(&err)

	if err = sqlitex.ExecuteTransient(conn, "DROP TABLE IF EXISTS "+quote(name), nil); err != nil {
		return fmt.Errorf("failed to drop table %s: %w", name, err)
	}

	cols := make([]string, len(t.Header))
	for i, col := range t.Header {
		cols[i] = quote(col) + " TEXT NOT NULL DEFAULT ''"
	}
	create := fmt.Sprintf("CREATE TABLE %s (%s)", quote(name), strings.Join(cols, ", "))
	if err = sqlitex.ExecuteTransient(conn, create, nil); err != nil {
		return fmt.Errorf("failed to create table %s: %w", name, err)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(t.Header)), ", ")
	insert := fmt.Sprintf("INSERT INTO %s VALUES (%s)", quote(name), placeholders)

	for i, row := range t.Rows {
		args := make([]any, len(t.Header))
		for j := range args {
			args[j] = t.Value(row, j)
		}
		err = sqlitex.Execute(conn, insert, &sqlitex.ExecOptions{Args: args})
		if err != nil {
			return fmt.Errorf("failed to insert row %d: %w", i+1, err)
		}
	}

	err = sqlitex.Execute(conn, `
		INSERT INTO dialmark_tables (name, column_count, row_count, updated)
		VALUES (?, ?, ?, strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		ON CONFLICT(name) DO UPDATE SET
			column_count = excluded.column_count,
			row_count = excluded.row_count,
			updated = excluded.updated
	`, &sqlitex.ExecOptions{
		Args: []any{name, len(t.Header), len(t.Rows)},
	})

	return err
}

// ReadTable returns the header from PRAGMA table_info and the rows in
// insertion order.
func (h *TableStore) ReadTable(name string) (storage.Table, error) {
	if !tableName.MatchString(name) {
		return storage.Table{}, fmt.Errorf("invalid table name %q", name)
	}

	conn, err := h.pool.Take(context.TODO())
	if err != nil {
		return storage.Table{}, err
	}
	defer h.pool.Put(conn)

	var t storage.Table
	err = sqlitex.ExecuteTransient(conn, fmt.Sprintf("PRAGMA table_info(%s)", quote(name)), &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			t.Header = append(t.Header, stmt.ColumnText(1))
			return nil
		},
	})
	if err != nil {
		return storage.Table{}, err
	}
	if len(t.Header) == 0 {
		return storage.Table{}, fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}

	err = sqlitex.ExecuteTransient(conn, fmt.Sprintf("SELECT * FROM %s ORDER BY rowid", quote(name)), &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			row := make([]string, stmt.ColumnCount())
			for i := range row {
				row[i] = stmt.ColumnText(i)
			}
			t.Rows = append(t.Rows, row)
			return nil
		},
	})
	if err != nil {
		return storage.Table{}, err
	}

	return t, nil
}

// Names returns the tables written by WriteTable, sorted by name.
func (h *TableStore) Names() ([]string, error) {
	conn, err := h.pool.Take(context.TODO())
	if err != nil {
		return nil, err
	}
	defer h.pool.Put(conn)

	var names []string
	err = sqlitex.Execute(conn, "SELECT name FROM dialmark_tables ORDER BY name", &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			names = append(names, stmt.ColumnText(0))
			return nil
		},
	})
	if err != nil {
		return nil, err
	}
	return names, nil
}

func checkTable(name string, t storage.Table) error {
	if !tableName.MatchString(name) || strings.EqualFold(name, registry) {
		return fmt.Errorf("invalid table name %q", name)
	}
	if len(t.Header) == 0 {
		return fmt.Errorf("table %s has no columns", name)
	}

	seen := map[string]bool{}
	for _, col := range t.Header {
		k := strings.ToLower(col)
		if seen[k] {
			return fmt.Errorf("table %s: duplicate column %q", name, col)
		}
		seen[k] = true
	}

	for i, row := range t.Rows {
		if len(row) > len(t.Header) {
			return fmt.Errorf("table %s: row %d has %d cells, header has %d", name, i+1, len(row), len(t.Header))
		}
	}
	return nil
}

// quote returns s as a SQL identifier.
func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
