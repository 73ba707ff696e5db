package corpus

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
)

const (
	numColumns = 10
	miscColumn = 9

	KeySentID   = "sent_id"
	KeySpeaker  = "speaker_id"
	KeyText     = "text"
	KeySoundURL = "sound_url"
	KeyNewDoc   = "newdoc id"
)

var (
	ErrMalformed   = errors.New("malformed line")
	ErrDuplicateID = errors.New("duplicate sent_id")
	ErrNotFound    = errors.New("not found")
)

const bom = "\ufeff"

// Corpus is a parsed CoNLL-U file. It keeps every raw line so that
// serialization reproduces the input byte for byte, except for the token
// lines patched through SetMisc.
type Corpus struct {
	Documents []*Document
	Sentences []*Sentence

	lines []Line
	index map[string]*Sentence
}

// Parse reads a whole CoNLL-U stream.
func Parse(r io.Reader) (*Corpus, error) {
	c := &Corpus{index: map[string]*Sentence{}}

	rd := NewReader(r)
	docID := ""
	var doc *Document

	for {
		b, err := rd.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		base := len(c.lines)
		c.lines = append(c.lines, b.Lines...)
		c.lines = append(c.lines, b.Sep...)

		if len(b.Lines) == 0 {
			continue
		}

		s, err := parseSentence(b.Lines, base)
		if err != nil {
			return nil, err
		}

		newDoc := false
		if id, ok := s.MetaValue(KeyNewDoc); ok {
			docID = id
			newDoc = true
		}
		s.DocID = docID

		if doc == nil || newDoc || doc.ID != docID {
			doc = &Document{ID: docID}
			c.Documents = append(c.Documents, doc)
		}

		if s.ID != "" {
			if prev, ok := c.index[s.ID]; ok {
				return nil, fmt.Errorf("line %d: %w %q (first at line %d)", b.Lines[0].Num, ErrDuplicateID, s.ID, c.lines[prev.start].Num)
			}
			c.index[s.ID] = s
		}

		s.doc = doc
		s.Index = len(c.Sentences)
		doc.Sentences = append(doc.Sentences, s)
		c.Sentences = append(c.Sentences, s)
	}

	return c, nil
}

func parseSentence(lines []Line, base int) (*Sentence, error) {
	s := &Sentence{start: base, end: base + len(lines)}

	for i, l := range lines {
		text := strings.TrimPrefix(l.Text, bom)

		if strings.HasPrefix(text, "#") {
			k, v, ok := strings.Cut(strings.TrimSpace(text[1:]), "=")
			if !ok {
				continue
			}
			cm := Comment{Key: strings.TrimSpace(k), Value: strings.TrimSpace(v)}
			s.Meta = append(s.Meta, cm)

			switch cm.Key {
			case KeySentID:
				s.ID = cm.Value
			case KeySpeaker:
				s.Speaker = cm.Value
			case KeyText:
				s.Text = cm.Value
			case KeySoundURL:
				s.SoundURL = cm.Value
			}
			continue
		}

		cols := strings.Split(text, "\t")
		if len(cols) != numColumns {
			continue
		}

		// multiword ranges and empty nodes
		if strings.ContainsAny(cols[0], "-.") {
			continue
		}

		id, err := strconv.Atoi(cols[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w: token id %q", l.Num, ErrMalformed, cols[0])
		}

		head, err := strconv.Atoi(cols[6])
		if err != nil || head < 0 {
			head = NoHead
		}

		s.Tokens = append(s.Tokens, Token{
			Id:     id,
			Form:   cols[1],
			Lemma:  cols[2],
			UPOS:   cols[3],
			Head:   head,
			Deprel: cols[7],
			Misc:   ParseMisc(cols[miscColumn]),
			line:   base + i,
		})
	}

	return s, nil
}

// Sentence returns the sentence with the given sent_id.
func (c *Corpus) Sentence(id string) (*Sentence, bool) {
	s, ok := c.index[id]
	return s, ok
}

func (c *Corpus) Len() int {
	return len(c.Sentences)
}

// NumLines returns the number of raw lines of the corpus.
func (c *Corpus) NumLines() int {
	return len(c.lines)
}

// WriteTo serializes the corpus.
func (c *Corpus) WriteTo(w io.Writer) (int64, error) {
	var n int64
	for _, l := range c.lines {
		m, err := io.WriteString(w, l.Text+l.EOL)
		n += int64(m)
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

func (c *Corpus) Bytes() []byte {
	var buf bytes.Buffer
	c.WriteTo(&buf)
	return buf.Bytes()
}

// SentenceBytes returns the raw comment and token lines of s.
func (c *Corpus) SentenceBytes(s *Sentence) []byte {
	var buf bytes.Buffer
	for _, l := range c.lines[s.start:s.end] {
		buf.WriteString(l.Text)
		if l.EOL == "" {
			buf.WriteString("\n")
			continue
		}
		buf.WriteString(l.EOL)
	}
	return buf.Bytes()
}

// SetMisc sets key=value in the MISC column of one token and re-renders
// that line only.
func (c *Corpus) SetMisc(sentID string, tokenID int, key, value string) error {
	s, ok := c.index[sentID]
	if !ok {
		return fmt.Errorf("sentence %q: %w", sentID, ErrNotFound)
	}

	t, ok := s.Token(tokenID)
	if !ok {
		return fmt.Errorf("sentence %q token %d: %w", sentID, tokenID, ErrNotFound)
	}

	t.Misc.Set(key, value)

	l := &c.lines[t.line]
	prefix := ""
	text := l.Text
	if strings.HasPrefix(text, bom) {
		prefix, text = bom, strings.TrimPrefix(text, bom)
	}
	cols := strings.Split(text, "\t")
	cols[miscColumn] = t.Misc.String()
	l.Text = prefix + strings.Join(cols, "\t")

	return nil
}

// Clone returns a deep copy of the corpus.
func (c *Corpus) Clone() *Corpus {
	n := &Corpus{
		lines: slices.Clone(c.lines),
		index: make(map[string]*Sentence, len(c.index)),
	}

	for _, d := range c.Documents {
		nd := &Document{ID: d.ID}
		for _, s := range d.Sentences {
			ns := *s
			ns.Meta = slices.Clone(s.Meta)
			ns.Tokens = make([]Token, len(s.Tokens))
			for i, t := range s.Tokens {
				t.Misc = slices.Clone(t.Misc)
				ns.Tokens[i] = t
			}
			ns.doc = nd

			nd.Sentences = append(nd.Sentences, &ns)
			n.Sentences = append(n.Sentences, &ns)
			if ns.ID != "" {
				n.index[ns.ID] = &ns
			}
		}
		n.Documents = append(n.Documents, nd)
	}

	return n
}
