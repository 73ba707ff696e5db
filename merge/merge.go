// Package merge writes accepted review decisions into the MISC column of
// a corpus.
package merge

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/revelaction/dialmark/candidate"
	"github.com/revelaction/dialmark/corpus"
	"github.com/revelaction/dialmark/decision"
)

var ErrReference = errors.New("invalid reference")

// Stats counts the outcome of an Apply.
type Stats struct {
	Rows      int `json:"rows" yaml:"rows"`
	Patched   int `json:"patched" yaml:"patched"`
	Unchanged int `json:"unchanged" yaml:"unchanged"`
}

type Merger struct {
	// Progress is called after each applied row.
	Progress func(done, total int, name string)
}

func New() *Merger {
	return &Merger{}
}

// Validate checks every row against the corpus and returns all violations
// joined. A nil error means Apply cannot fail on these rows.
func (m *Merger) Validate(c *corpus.Corpus, rows []decision.Row) error {
	var errs []error
	for _, r := range rows {
		if err := validate(c, r); err != nil {
			errs = append(errs, fmt.Errorf("row %d: %w", r.Line, err))
		}
	}
	return errors.Join(errs...)
}

func validate(c *corpus.Corpus, r decision.Row) error {
	var errs []error

	src, ok := c.Sentence(r.Source)
	if !ok {
		errs = append(errs, fmt.Errorf("%w: source sentence %q not found", ErrReference, r.Source))
	}

	tgt, tok := c.Sentence(r.Target)
	if !tok {
		errs = append(errs, fmt.Errorf("%w: target sentence %q not found", ErrReference, r.Target))
	}

	if ok {
		switch r.Kind {
		case candidate.Coconstruction:
			if _, found := src.Token(r.Governor); !found {
				errs = append(errs, fmt.Errorf("%w: governor token %d not found in %q", ErrReference, r.Governor, r.Source))
			}
		case candidate.Backchannel:
			if _, err := src.Root(); err != nil {
				errs = append(errs, fmt.Errorf("source: %w", err))
			}
		}
	}

	if tok {
		if _, err := tgt.Root(); err != nil {
			errs = append(errs, fmt.Errorf("target: %w", err))
		}
	}

	if r.Kind == candidate.Coconstruction && strings.ContainsAny(r.Deprel, "|= \t") {
		errs = append(errs, fmt.Errorf("%w: deprel %q", decision.ErrValue, r.Deprel))
	}

	return errors.Join(errs...)
}

// Apply validates rows and returns a copy of c with one MISC key set on the
// root token of every target. c is never modified; on a validation error
// no corpus is returned.
func (m *Merger) Apply(c *corpus.Corpus, rows []decision.Row) (*corpus.Corpus, Stats, error) {
	if err := m.Validate(c, rows); err != nil {
		return nil, Stats{}, err
	}

	out := c.Clone()
	st := Stats{Rows: len(rows)}

	for i, r := range rows {
		tgt, _ := out.Sentence(r.Target)
		root, err := tgt.Root()
		if err != nil {
			return nil, Stats{}, err
		}

		key, value, err := annotation(out, r)
		if err != nil {
			return nil, Stats{}, err
		}

		if prev, ok := root.Misc.Get(key); ok && prev == value {
			st.Unchanged++
		} else {
			if err := out.SetMisc(r.Target, root.Id, key, value); err != nil {
				return nil, Stats{}, err
			}
			st.Patched++
		}

		if m.Progress != nil {
			m.Progress(i+1, len(rows), r.Target)
		}
	}

	log.Info().
		Int("rows", st.Rows).
		Int("patched", st.Patched).
		Int("unchanged", st.Unchanged).
		Msg("merge")

	return out, st, nil
}

// annotation returns the MISC key and value a row writes.
func annotation(c *corpus.Corpus, r decision.Row) (string, string, error) {
	src, _ := c.Sentence(r.Source)

	if r.Kind == candidate.Coconstruction {
		return candidate.KeyCoconstruct, fmt.Sprintf("%s::%s::%d", r.Deprel, r.Source, r.Governor), nil
	}

	root, err := src.Root()
	if err != nil {
		return "", "", err
	}
	return candidate.KeyBackchannel, fmt.Sprintf("%s::%d", r.Source, root.Id), nil
}
