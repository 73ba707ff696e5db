package main

import (
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/revelaction/dialmark/storage"
	"github.com/revelaction/dialmark/storage/filesystem"
	"github.com/revelaction/dialmark/storage/sqlite/zombiezen"
)

// Pool opens the SQLite database on first use and keeps it for the rest of
// the run.
type Pool struct {
	p    *sqlitex.Pool
	path string
}

func (p *Pool) Open(path string) (*sqlitex.Pool, error) {
	if p.p != nil && p.path == path {
		return p.p, nil
	}
	if err := p.Close(); err != nil {
		return nil, err
	}

	pool, err := zombiezen.NewPool(path)
	if err != nil {
		return nil, err
	}
	p.p, p.path = pool, path
	return p.p, nil
}

func (p *Pool) Close() error {
	if p.p == nil {
		return nil
	}
	err := p.p.Close()
	p.p, p.path = nil, ""
	return err
}

// NewTableRepository returns the SQLite store for database paths and the
// CSV store for everything else. delim only applies to CSV.
func NewTableRepository(p *Pool, path string, delim rune) (storage.TableRepository, error) {
	if storage.IsSQLite(path) {
		pool, err := p.Open(path)
		if err != nil {
			return nil, err
		}
		return zombiezen.NewTableStore(pool), nil
	}

	ts := filesystem.NewTableStore(path)
	ts.Delimiter = delim
	return ts, nil
}
