// Package candidate defines the records the extractors emit for human
// review.
package candidate

import (
	"encoding/json"
	"fmt"
	"math/bits"
	"strings"

	"github.com/revelaction/dialmark/corpus"
)

// MISC keys written by the merger.
const (
	KeyBackchannel = "Backchannel"
	KeyCoconstruct = "Coconstruct"
)

type Kind int

const (
	Backchannel Kind = iota
	Coconstruction
)

func (k Kind) String() string {
	if k == Coconstruction {
		return "coconstruction"
	}
	return "backchannel"
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// TableName is the name of the review table of the kind.
func (k Kind) TableName() string {
	return k.String() + "_candidates"
}

// Confidence is the categorical confidence band of a candidate.
type Confidence int

const (
	Low Confidence = iota
	Medium
	High
)

func (c Confidence) String() string {
	switch c {
	case High:
		return "HIGH"
	case Medium:
		return "MEDIUM"
	}
	return "LOW"
}

func ParseConfidence(s string) (Confidence, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "HIGH":
		return High, nil
	case "MEDIUM":
		return Medium, nil
	case "LOW":
		return Low, nil
	}
	return Low, fmt.Errorf("unknown confidence %q", s)
}

func (c Confidence) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Confidence) UnmarshalText(b []byte) error {
	v, err := ParseConfidence(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Downgrade returns the next lower band; Low stays Low.
func (c Confidence) Downgrade() Confidence {
	if c == Low {
		return Low
	}
	return c - 1
}

// Band maps a 0-100 score to a confidence band.
func Band(score int) Confidence {
	switch {
	case score >= 60:
		return High
	case score >= 40:
		return Medium
	}
	return Low
}

// Clamp bounds a score to [0, 100].
func Clamp(score int) int {
	return max(0, min(100, score))
}

// Flags is a set of evidence and warning signals.
type Flags uint32

const (
	ImmediateContinuation Flags = 1 << iota
	WindowedContinuation
	DiscourseRelation
	NearEnd
	ALooksBackchannel
	BHasContent
	BIsQuestion
	BAfterQuestion
	BVerbalBackchannel
	BNotAllInLexicon
	OrphanTail
	Truncation
	TrailingConnector
	LexicalOverlap
	ShortB
	BBackchannelLike
	BQuestionLike
	AContinues
	AIsQuestion
	BRootIntjPart
)

// Warnings are the backchannel signals that speak against a candidate.
const Warnings = ALooksBackchannel | BHasContent | BIsQuestion | BAfterQuestion | BVerbalBackchannel | BNotAllInLexicon

var flagNames = []struct {
	f    Flags
	name string
}{
	{ImmediateContinuation, "immediate_continuation"},
	{WindowedContinuation, "windowed_continuation"},
	{DiscourseRelation, "discourse_relation"},
	{NearEnd, "near_end"},
	{ALooksBackchannel, "A_looks_backchannel"},
	{BHasContent, "B_has_content"},
	{BIsQuestion, "B_is_question"},
	{BAfterQuestion, "B_after_question"},
	{BVerbalBackchannel, "B_verbal_backchannel"},
	{BNotAllInLexicon, "B_not_all_in_lexicon"},
	{OrphanTail, "orphan_tail"},
	{Truncation, "truncation"},
	{TrailingConnector, "trailing_connector"},
	{LexicalOverlap, "lexical_overlap"},
	{ShortB, "short_b"},
	{BBackchannelLike, "b_starts_backchannel_like"},
	{BQuestionLike, "b_question_like"},
	{AContinues, "a_continues"},
	{AIsQuestion, "a_is_question"},
	{BRootIntjPart, "b_root_is_intj_part"},
}

func (f Flags) Has(g Flags) bool {
	return f&g == g
}

// Count returns how many flags of mask are set.
func (f Flags) Count(mask Flags) int {
	return bits.OnesCount32(uint32(f & mask))
}

// Names returns the names of the set flags in declaration order.
func (f Flags) Names() []string {
	var names []string
	for _, fn := range flagNames {
		if f.Has(fn.f) {
			names = append(names, fn.name)
		}
	}
	return names
}

func (f Flags) MarshalJSON() ([]byte, error) {
	names := f.Names()
	if names == nil {
		names = []string{}
	}
	return json.Marshal(names)
}

func (f Flags) MarshalYAML() (interface{}, error) {
	return f.Names(), nil
}

// FlagName returns the column name of a single flag.
func FlagName(f Flags) string {
	for _, fn := range flagNames {
		if fn.f == f {
			return fn.name
		}
	}
	return ""
}

// Ref identifies one utterance of a candidate pair.
type Ref struct {
	SentID   string `json:"sent_id" yaml:"sent_id"`
	Speaker  string `json:"speaker" yaml:"speaker"`
	Text     string `json:"text" yaml:"text"`
	SoundURL string `json:"sound_url,omitempty" yaml:"sound_url,omitempty"`
}

func RefOf(s *corpus.Sentence) Ref {
	return Ref{SentID: s.ID, Speaker: s.Speaker, Text: s.Text, SoundURL: s.SoundURL}
}

// Candidate is one proposed annotation of B in the context of A.
type Candidate struct {
	Kind       Kind       `json:"kind" yaml:"kind"`
	Doc        string     `json:"doc" yaml:"doc"`
	A          Ref        `json:"a" yaml:"a"`
	B          Ref        `json:"b" yaml:"b"`
	Confidence Confidence `json:"confidence" yaml:"confidence"`
	Score      int        `json:"score" yaml:"score"`
	Flags      Flags      `json:"flags" yaml:"flags"`
	Reasons    []string   `json:"reasons" yaml:"reasons"`

	// non-punctuation forms of B
	BTokens []string `json:"b_tokens" yaml:"b_tokens"`
	Length  int      `json:"length" yaml:"length"`

	// backchannel attachment proposals, "<A sent_id>::<token id>"
	Attach            string `json:"attach,omitempty" yaml:"attach,omitempty"`
	AttachLastContent string `json:"attach_last_content,omitempty" yaml:"attach_last_content,omitempty"`
	BackchannelType   string `json:"backchannel_type,omitempty" yaml:"backchannel_type,omitempty"`

	BRootUPOS   string `json:"b_root_upos,omitempty" yaml:"b_root_upos,omitempty"`
	BRootForm   string `json:"b_root_form,omitempty" yaml:"b_root_form,omitempty"`
	BFirstToken string `json:"b_first_token,omitempty" yaml:"b_first_token,omitempty"`
}

// stronger reports whether c should replace o for the same B.
func (c Candidate) stronger(o Candidate) bool {
	if c.Confidence != o.Confidence {
		return c.Confidence > o.Confidence
	}
	return c.Score > o.Score
}

// Set keeps one candidate per B sentence, in insertion order.
type Set struct {
	order []string
	byB   map[string]*Candidate
}

func NewSet() *Set {
	return &Set{byB: map[string]*Candidate{}}
}

// Add inserts c. When B already has a candidate the stronger one is kept
// and the reasons of both are merged.
func (s *Set) Add(c Candidate) {
	prev, ok := s.byB[c.B.SentID]
	if !ok {
		c.Reasons = union(nil, c.Reasons)
		s.byB[c.B.SentID] = &c
		s.order = append(s.order, c.B.SentID)
		return
	}

	reasons := union(prev.Reasons, c.Reasons)
	if c.stronger(*prev) {
		*prev = c
	}
	prev.Reasons = reasons
}

func (s *Set) Len() int {
	return len(s.order)
}

// Candidates returns the kept candidates in insertion order.
func (s *Set) Candidates() []Candidate {
	out := make([]Candidate, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.byB[id])
	}
	return out
}

func union(a, b []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, r := range append(append([]string(nil), a...), b...) {
		if !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	return out
}
