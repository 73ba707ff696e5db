package corpus

import (
	"errors"
	"fmt"
)

var (
	ErrRoot          = errors.New("root")
	ErrNoRoot        = fmt.Errorf("%w: no root token", ErrRoot)
	ErrMultipleRoots = fmt.Errorf("%w: more than one root token", ErrRoot)
)

// Comment is a "# key = value" metadata line of a sentence.
type Comment struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Sentence is one utterance of the corpus.
type Sentence struct {
	ID       string    `json:"sent_id"`
	Speaker  string    `json:"speaker_id"`
	Text     string    `json:"text"`
	SoundURL string    `json:"sound_url,omitempty"`
	DocID    string    `json:"doc_id"`
	Meta     []Comment `json:"meta"`
	Tokens   []Token   `json:"tokens"`

	// position of the sentence in the corpus
	Index int `json:"index"`

	doc *Document

	// line range [start, end) in the corpus line table
	start, end int
}

// Document is a run of sentences sharing the same newdoc id.
type Document struct {
	ID        string
	Sentences []*Sentence
}

func (s *Sentence) Doc() *Document {
	return s.doc
}

// Root returns the single token attached to the virtual root, i.e. with
// head 0 or deprel "root".
func (s *Sentence) Root() (*Token, error) {
	var root *Token
	n := 0
	for i := range s.Tokens {
		t := &s.Tokens[i]
		if t.Head == 0 || t.Deprel == "root" {
			n++
			if root == nil {
				root = t
			}
		}
	}

	switch n {
	case 0:
		return nil, fmt.Errorf("sentence %q: %w", s.ID, ErrNoRoot)
	case 1:
		return root, nil
	}

	return nil, fmt.Errorf("sentence %q: %w (%d)", s.ID, ErrMultipleRoots, n)
}

// Token returns the token with the given id.
func (s *Sentence) Token(id int) (*Token, bool) {
	for i := range s.Tokens {
		if s.Tokens[i].Id == id {
			return &s.Tokens[i], true
		}
	}
	return nil, false
}

// NonPunct returns the tokens that are not punctuation, in order.
func (s *Sentence) NonPunct() []Token {
	var out []Token
	for _, t := range s.Tokens {
		if !IsPunct(t) {
			out = append(out, t)
		}
	}
	return out
}

// HasMiscKey reports whether any token carries key in its MISC column.
func (s *Sentence) HasMiscKey(key string) bool {
	for _, t := range s.Tokens {
		if t.Misc.Has(key) {
			return true
		}
	}
	return false
}

// MetaValue returns the value of the first metadata comment named key.
func (s *Sentence) MetaValue(key string) (string, bool) {
	for _, c := range s.Meta {
		if c.Key == key {
			return c.Value, true
		}
	}
	return "", false
}
