// Package decision reads reviewed candidate tables into merge
// instructions.
package decision

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/revelaction/dialmark/candidate"
	"github.com/revelaction/dialmark/storage"
)

var (
	ErrColumn   = errors.New("missing column")
	ErrValue    = errors.New("invalid value")
	ErrConflict = errors.New("conflicting decisions")
)

// Row is one accepted decision: annotate Target in the context of Source.
type Row struct {
	Kind   candidate.Kind `json:"kind"`
	Source string         `json:"source"`
	Target string         `json:"target"`

	// co-construction only
	Deprel   string `json:"deprel,omitempty"`
	Governor int    `json:"governor,omitempty"`

	// row number in the table, the header being row 1
	Line int `json:"line"`
}

// same reports whether two rows carry the same decision.
func (r Row) same(o Row) bool {
	return r.Kind == o.Kind && r.Source == o.Source && r.Target == o.Target &&
		r.Deprel == o.Deprel && r.Governor == o.Governor
}

type Options struct {
	// KeepColumn holds the acceptance of backchannel rows.
	KeepColumn string

	// FilterColumn optionally suppresses co-construction rows whose value
	// is set and not truthy.
	FilterColumn string
}

func DefaultOptions() Options {
	return Options{KeepColumn: candidate.ColKeep, FilterColumn: candidate.ColIsCoco}
}

var truthy = map[string]bool{"1": true, "y": true, "yes": true, "true": true, "keep": true, "ok": true}

// IsTruthy reports whether a review cell accepts a row.
func IsTruthy(s string) bool {
	return truthy[strings.ToLower(strings.TrimSpace(s))]
}

// columns maps trimmed header names to their index.
type columns map[string]int

func newColumns(t storage.Table) columns {
	cols := columns{}
	for i, h := range t.Header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, ok := cols[h]; !ok {
			cols[h] = i
		}
	}
	return cols
}

func (c columns) require(names ...string) error {
	var errs []error
	for _, n := range names {
		if _, ok := c[n]; !ok {
			errs = append(errs, fmt.Errorf("%w %q", ErrColumn, n))
		}
	}
	return errors.Join(errs...)
}

func (c columns) value(row []string, name string) string {
	i, ok := c[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// ParseBackchannels returns the rows of a backchannel review table whose
// keep column is truthy.
func ParseBackchannels(t storage.Table, opts Options) ([]Row, error) {
	if opts.KeepColumn == "" {
		opts.KeepColumn = candidate.ColKeep
	}

	cols := newColumns(t)
	if err := cols.require(candidate.ColASentID, candidate.ColBSentID, opts.KeepColumn); err != nil {
		return nil, err
	}

	var rows []Row
	skipped := 0
	for i, r := range t.Rows {
		line := i + 2
		if !IsTruthy(cols.value(r, opts.KeepColumn)) {
			skipped++
			continue
		}

		a, b := cols.value(r, candidate.ColASentID), cols.value(r, candidate.ColBSentID)
		if a == "" || b == "" {
			return nil, fmt.Errorf("row %d: %w: kept row without %s or %s", line, ErrValue, candidate.ColASentID, candidate.ColBSentID)
		}

		rows = append(rows, Row{Kind: candidate.Backchannel, Source: a, Target: b, Line: line})
	}

	log.Debug().Int("rows", len(t.Rows)).Int("not_kept", skipped).Msg("backchannel decisions")

	return dedupe(rows)
}

// ParseCoconstructions returns the co-construction rows with every
// required value set.
func ParseCoconstructions(t storage.Table, opts Options) ([]Row, error) {
	cols := newColumns(t)
	if err := cols.require(candidate.ColCocoASentID, candidate.ColCocoBSentID, candidate.ColCocoDeprel, candidate.ColGovernorID); err != nil {
		return nil, err
	}

	_, hasFilter := cols[opts.FilterColumn]
	hasFilter = hasFilter && opts.FilterColumn != ""

	var rows []Row
	filtered, incomplete := 0, 0
	for i, r := range t.Rows {
		line := i + 2

		if hasFilter {
			if v := cols.value(r, opts.FilterColumn); v != "" && !IsTruthy(v) {
				filtered++
				continue
			}
		}

		a := cols.value(r, candidate.ColCocoASentID)
		b := cols.value(r, candidate.ColCocoBSentID)
		dep := cols.value(r, candidate.ColCocoDeprel)
		gov := cols.value(r, candidate.ColGovernorID)
		if a == "" || b == "" || dep == "" || gov == "" {
			incomplete++
			continue
		}

		g, err := parseGovernor(gov)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}

		rows = append(rows, Row{Kind: candidate.Coconstruction, Source: a, Target: b, Deprel: dep, Governor: g, Line: line})
	}

	log.Debug().
		Int("rows", len(t.Rows)).
		Int("filtered", filtered).
		Int("incomplete", incomplete).
		Msg("co-construction decisions")

	return dedupe(rows)
}

// parseGovernor accepts "7" and the "7.0" spreadsheets write.
func parseGovernor(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %s %q", ErrValue, candidate.ColGovernorID, s)
	}
	return int(f), nil
}

// dedupe drops repeated identical rows. Rows disagreeing on the same
// target are all reported.
func dedupe(rows []Row) ([]Row, error) {
	seen := map[string]Row{}
	var out []Row
	var errs []error
	for _, r := range rows {
		prev, ok := seen[r.Target]
		if !ok {
			seen[r.Target] = r
			out = append(out, r)
			continue
		}
		if !prev.same(r) {
			errs = append(errs, fmt.Errorf("%w for %q: row %d %s, row %d %s", ErrConflict, r.Target, prev.Line, prev, r.Line, r))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return out, nil
}

func (r Row) String() string {
	if r.Kind == candidate.Coconstruction {
		return fmt.Sprintf("%s::%s::%d", r.Deprel, r.Source, r.Governor)
	}
	return r.Source
}
