package filesystem

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/revelaction/dialmark/file"
	"github.com/revelaction/dialmark/storage"
)

// sniffLen is how much of a file is inspected to guess its delimiter.
const sniffLen = 4096

var bom = []byte("\ufeff")

// TableStore keeps one table in a CSV file. Spreadsheets exported in many
// European locales use ';', so the delimiter is detected on read unless
// set.
type TableStore struct {
	path string

	// Delimiter is used for reading when non-zero and always for writing
	// (',' when zero).
	Delimiter rune
}

var _ storage.TableRepository = (*TableStore)(nil)

func NewTableStore(path string) *TableStore {
	return &TableStore{path: path}
}

// ReadTable reads the whole file. name is ignored.
func (ts *TableStore) ReadTable(name string) (storage.Table, error) {
	data, err := os.ReadFile(ts.path)
	if err != nil {
		return storage.Table{}, err
	}

	t, err := ParseCSV(data, ts.Delimiter)
	if err != nil {
		return storage.Table{}, fmt.Errorf("%s: %w", ts.path, err)
	}
	return t, nil
}

// WriteTable replaces the file atomically. name is ignored.
func (ts *TableStore) WriteTable(name string, t storage.Table) error {
	return file.Write(ts.path, func(w io.Writer) error {
		return WriteCSV(w, t, ts.Delimiter)
	})
}

// ParseCSV parses a table. A leading UTF-8 BOM is dropped; a zero delim is
// detected with DetectDelimiter. Rows may be shorter or longer than the
// header.
func ParseCSV(data []byte, delim rune) (storage.Table, error) {
	data = bytes.TrimPrefix(data, bom)
	if delim == 0 {
		delim = DetectDelimiter(data)
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return storage.Table{}, err
	}
	if len(records) == 0 {
		return storage.Table{}, nil
	}

	return storage.Table{Header: records[0], Rows: records[1:]}, nil
}

// DetectDelimiter chooses between ';' and ',' by counting both in the
// start of data. Ties go to ';'.
func DetectDelimiter(data []byte) rune {
	sample := data[:min(len(data), sniffLen)]
	if bytes.Count(sample, []byte(";")) >= bytes.Count(sample, []byte(",")) {
		return ';'
	}
	return ','
}

// WriteCSV writes t with delim (',' when zero).
func WriteCSV(w io.Writer, t storage.Table, delim rune) error {
	if delim == 0 {
		delim = ','
	}

	cw := csv.NewWriter(w)
	cw.Comma = delim

	if err := cw.Write(t.Header); err != nil {
		return err
	}
	return cw.WriteAll(t.Rows)
}
