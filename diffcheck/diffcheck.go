// Package diffcheck certifies that an annotated corpus differs from its
// source only by sanctioned MISC additions.
package diffcheck

import (
	"bytes"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/revelaction/dialmark/candidate"
	"github.com/revelaction/dialmark/corpus"
)

// Category classifies one differing line.
type Category string

const (
	SentIDSequenceMismatch Category = "sent_id_sequence_mismatch"
	LineCountMismatch      Category = "line_count_mismatch"
	MetaOrBlankChanged     Category = "meta_or_blank_changed"
	Non10ColTokenChanged   Category = "non_10col_token_changed"
	TokenColsChanged       Category = "token_cols_0_8_changed"
	MiscOtherChange        Category = "misc_other_change"
	SanctionedAddition     Category = "sanctioned_addition"
)

// Unsanctioned lists the categories that fail a section, in report order.
var Unsanctioned = []Category{
	SentIDSequenceMismatch, LineCountMismatch, MetaOrBlankChanged,
	Non10ColTokenChanged, TokenColsChanged, MiscOtherChange,
}

const DefaultMaxSamples = 8

type Options struct {
	// SanctionedKeys are the MISC keys the output may add.
	SanctionedKeys []string

	MaxSamples int
}

func DefaultOptions() Options {
	return Options{
		SanctionedKeys: []string{candidate.KeyBackchannel, candidate.KeyCoconstruct},
		MaxSamples:     DefaultMaxSamples,
	}
}

// Sample is one reported unsanctioned difference. Line is 1-based; 0 for
// the sent_id sequence.
type Sample struct {
	Line     int      `json:"line" yaml:"line"`
	Category Category `json:"category" yaml:"category"`
	Src      string   `json:"src" yaml:"src"`
	Out      string   `json:"out" yaml:"out"`
}

// Section is the comparison of one source file with its annotated
// counterpart.
type Section struct {
	Name string `json:"name" yaml:"name"`
	Src  string `json:"src" yaml:"src"`
	Out  string `json:"out" yaml:"out"`

	SrcLines     int `json:"src_lines" yaml:"src_lines"`
	OutLines     int `json:"out_lines" yaml:"out_lines"`
	SrcSentences int `json:"src_sentences" yaml:"src_sentences"`
	OutSentences int `json:"out_sentences" yaml:"out_sentences"`

	SentIDsIdentical bool `json:"sent_ids_identical" yaml:"sent_ids_identical"`

	DiffLines int              `json:"diff_lines" yaml:"diff_lines"`
	Counts    map[Category]int `json:"counts" yaml:"counts"`

	// sanctioned additions per MISC key
	Added map[string]int `json:"added" yaml:"added"`

	Samples []Sample `json:"samples,omitempty" yaml:"samples,omitempty"`
	Pass    bool     `json:"pass" yaml:"pass"`
}

// Unexpected returns the number of unsanctioned differences.
func (s Section) Unexpected() int {
	n := 0
	for _, c := range Unsanctioned {
		n += s.Counts[c]
	}
	return n
}

// Report is the outcome of a diffcheck run.
type Report struct {
	RunID    string    `json:"run_id" yaml:"run_id"`
	Sections []Section `json:"sections" yaml:"sections"`
	Pass     bool      `json:"pass" yaml:"pass"`
}

// Pair names a source file and its annotated counterpart.
type Pair struct {
	Name string
	Src  string
	Out  string
}

// CompareFiles compares every pair. The report passes only if every
// section passes.
func CompareFiles(pairs []Pair, opts Options) (Report, error) {
	r := Report{Pass: true}
	for _, p := range pairs {
		src, err := os.ReadFile(p.Src)
		if err != nil {
			return Report{}, err
		}
		out, err := os.ReadFile(p.Out)
		if err != nil {
			return Report{}, err
		}

		s := Compare(p.Name, src, out, opts)
		s.Src, s.Out = p.Src, p.Out
		r.Sections = append(r.Sections, s)
		r.Pass = r.Pass && s.Pass

		log.Debug().
			Str("section", s.Name).
			Int("diff_lines", s.DiffLines).
			Int("unexpected", s.Unexpected()).
			Bool("pass", s.Pass).
			Msg("diffcheck")
	}
	return r, nil
}

// Compare classifies every line-level difference between src and out.
func Compare(name string, src, out []byte, opts Options) Section {
	if opts.MaxSamples <= 0 {
		opts.MaxSamples = DefaultMaxSamples
	}

	a, b := splitLines(src), splitLines(out)
	s := Section{
		Name:     name,
		SrcLines: len(a),
		OutLines: len(b),
		Counts:   map[Category]int{},
		Added:    map[string]int{},
	}

	c := &comparer{s: &s, opts: opts}

	srcIDs, outIDs := sentIDs(a), sentIDs(b)
	s.SrcSentences, s.OutSentences = len(srcIDs), len(outIDs)
	s.SentIDsIdentical = slices.Equal(srcIDs, outIDs)
	if !s.SentIDsIdentical {
		i := 0
		for i < len(srcIDs) && i < len(outIDs) && srcIDs[i] == outIDs[i] {
			i++
		}
		c.add(0, SentIDSequenceMismatch, at(srcIDs, i), at(outIDs, i))
	}

	for i := range max(len(a), len(b)) {
		if i < len(a) && i < len(b) && a[i] == b[i] {
			continue
		}
		s.DiffLines++

		if i >= len(a) || i >= len(b) {
			c.add(i+1, LineCountMismatch, at(a, i), at(b, i))
			continue
		}

		cat, added := c.classify(a[i], b[i])
		if cat == SanctionedAddition {
			s.Counts[cat]++
			for _, k := range added {
				s.Added[k]++
			}
			continue
		}
		c.add(i+1, cat, a[i], b[i])
	}

	s.Pass = s.Unexpected() == 0
	return s
}

type comparer struct {
	s    *Section
	opts Options
}

func (c *comparer) add(line int, cat Category, src, out string) {
	c.s.Counts[cat]++
	if len(c.s.Samples) < c.opts.MaxSamples {
		c.s.Samples = append(c.s.Samples, Sample{Line: line, Category: cat, Src: src, Out: out})
	}
}

// classify returns the category of two differing lines and, for a
// sanctioned addition, the added keys.
func (c *comparer) classify(a, b string) (Category, []string) {
	if strings.HasSuffix(a, "\r") && strings.HasSuffix(b, "\r") {
		a, b = a[:len(a)-1], b[:len(b)-1]
	}

	if isMetaOrBlank(a) || isMetaOrBlank(b) {
		return MetaOrBlankChanged, nil
	}

	ac, bc := strings.Split(a, "\t"), strings.Split(b, "\t")
	if len(ac) != 10 || len(bc) != 10 {
		return Non10ColTokenChanged, nil
	}

	if !slices.Equal(ac[:9], bc[:9]) {
		return TokenColsChanged, nil
	}

	if added := c.added(ac[9], bc[9]); len(added) > 0 {
		return SanctionedAddition, added
	}
	return MiscOtherChange, nil
}

// added returns the sanctioned keys that out adds to src, or nil if out
// differs from src in any other way.
func (c *comparer) added(src, out string) []string {
	sm, om := corpus.ParseMisc(src), corpus.ParseMisc(out)

	var rest corpus.Misc
	var added []string
	for _, f := range om {
		if slices.Contains(c.opts.SanctionedKeys, f.Key) && !sm.Has(f.Key) {
			added = append(added, f.Key)
			continue
		}
		rest = append(rest, f)
	}

	if len(added) == 0 || rest.String() != sm.String() {
		return nil
	}
	return added
}

func isMetaOrBlank(l string) bool {
	return strings.HasPrefix(l, "#") || strings.TrimSpace(l) == ""
}

// splitLines splits on "\n". A final newline does not start a new line and
// a leading BOM is dropped.
func splitLines(data []byte) []string {
	data = bytes.TrimPrefix(data, []byte("\ufeff"))
	if len(data) == 0 {
		return nil
	}
	lines := strings.Split(string(data), "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func sentIDs(lines []string) []string {
	var ids []string
	for _, l := range lines {
		if !strings.HasPrefix(l, "#") {
			continue
		}
		k, v, ok := strings.Cut(l[1:], "=")
		if ok && strings.TrimSpace(k) == corpus.KeySentID {
			ids = append(ids, strings.TrimSpace(v))
		}
	}
	return ids
}

func at(s []string, i int) string {
	if i < len(s) {
		return s[i]
	}
	return ""
}

func (s Section) String() string {
	status := "PASS"
	if !s.Pass {
		status = "FAIL"
	}
	return fmt.Sprintf("%s: %d diff lines, %d unexpected, %s", s.Name, s.DiffLines, s.Unexpected(), status)
}
