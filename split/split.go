// Package split projects an annotated corpus onto the train/dev/test
// partition of a reference release.
package split

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/rs/zerolog/log"

	"github.com/revelaction/dialmark/corpus"
	"github.com/revelaction/dialmark/file"
)

var (
	ErrNoSentID = errors.New("sentence without sent_id")
	ErrOverlap  = errors.New("splits overlap")
	ErrMismatch = errors.New("splits do not cover the corpus")
)

// Ref is one reference split: its name and the sent_ids it holds, in
// order.
type Ref struct {
	Name string
	// base name of the reference file, reused for the output
	File string
	IDs  []string
}

// ReadRef reads the sent_ids of a reference split file.
func ReadRef(name, path string) (Ref, error) {
	c, err := corpus.ReadFile(path)
	if err != nil {
		return Ref{}, err
	}

	ids, err := sentIDs(c)
	if err != nil {
		return Ref{}, fmt.Errorf("%s: %w", path, err)
	}

	return Ref{Name: name, File: filepath.Base(path), IDs: ids}, nil
}

func sentIDs(c *corpus.Corpus) ([]string, error) {
	ids := make([]string, 0, c.Len())
	for _, s := range c.Sentences {
		if s.ID == "" {
			return nil, fmt.Errorf("%w (sentence %d)", ErrNoSentID, s.Index+1)
		}
		ids = append(ids, s.ID)
	}
	return ids, nil
}

// Output is the projection of the corpus onto one reference split.
type Output struct {
	Name      string
	File      string
	Sentences int
	Data      []byte
}

// Split checks that the references partition the corpus and returns, for
// each, the corpus sentences in reference order.
func Split(merged *corpus.Corpus, refs []Ref) ([]Output, error) {
	if _, err := sentIDs(merged); err != nil {
		return nil, err
	}

	owner := map[string]string{}
	var errs []error
	for _, r := range refs {
		for _, id := range r.IDs {
			if prev, ok := owner[id]; ok {
				errs = append(errs, fmt.Errorf("%w: %q in %s and %s", ErrOverlap, id, prev, r.Name))
				continue
			}
			owner[id] = r.Name
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	var missing, extra []string
	for _, s := range merged.Sentences {
		if _, ok := owner[s.ID]; !ok {
			missing = append(missing, s.ID)
		}
	}
	for id := range owner {
		if _, ok := merged.Sentence(id); !ok {
			extra = append(extra, id)
		}
	}
	slices.Sort(extra)
	if len(missing) > 0 || len(extra) > 0 {
		return nil, fmt.Errorf("%w: %d sentences in no split (first %q), %d split sentences not in corpus (first %q)",
			ErrMismatch, len(missing), first(missing), len(extra), first(extra))
	}

	outs := make([]Output, 0, len(refs))
	for _, r := range refs {
		var buf bytes.Buffer
		for _, id := range r.IDs {
			s, _ := merged.Sentence(id)
			buf.Write(merged.SentenceBytes(s))
			buf.WriteString("\n")
		}
		outs = append(outs, Output{Name: r.Name, File: r.File, Sentences: len(r.IDs), Data: buf.Bytes()})
	}

	return outs, nil
}

// WriteFiles writes every output under dir, named after its reference
// file.
func WriteFiles(dir string, outs []Output) error {
	for _, o := range outs {
		name := o.File
		if name == "" {
			name = o.Name + ".conllu"
		}
		path := filepath.Join(dir, name)
		if err := file.WriteBytes(path, o.Data); err != nil {
			return err
		}
		log.Info().Str("split", o.Name).Str("path", path).Int("sentences", o.Sentences).Msg("split written")
	}
	return nil
}

func first(s []string) string {
	if len(s) == 0 {
		return ""
	}
	return s[0]
}
