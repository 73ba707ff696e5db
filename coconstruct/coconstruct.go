// Package coconstruct finds turns in which a second speaker completes the
// unfinished utterance of the first.
package coconstruct

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/revelaction/dialmark/candidate"
	"github.com/revelaction/dialmark/corpus"
	"github.com/revelaction/dialmark/lexicon"
)

const DefaultShortMax = 3

// Mode selects how much evidence on A a pair needs to be kept.
type Mode int

const (
	// FirstPass keeps a pair only when A shows an orphan tail, a
	// truncation or a trailing connector.
	FirstPass Mode = iota
	// Focused keeps every pair whose A lacks final punctuation.
	Focused
)

func (m Mode) String() string {
	if m == Focused {
		return "focused"
	}
	return "first-pass"
}

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "first-pass", "firstpass":
		return FirstPass, nil
	case "focused":
		return Focused, nil
	}
	return FirstPass, fmt.Errorf("unknown co-construction mode %q", s)
}

// Order is the sort order of the candidates.
type Order int

const (
	ByScore Order = iota
	ByLength
)

func (o Order) String() string {
	if o == ByLength {
		return "length"
	}
	return "score"
}

func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "score":
		return ByScore, nil
	case "length":
		return ByLength, nil
	}
	return ByScore, fmt.Errorf("unknown sort order %q", s)
}

type Options struct {
	Mode Mode

	// ShortMax is the largest token count for which B is flagged short.
	ShortMax int

	Order Order

	// Annotated holds the sent_ids of sentences already labelled as
	// backchannels.
	Annotated map[string]bool

	Workers int

	// Progress is called once per finished document, possibly from several
	// goroutines.
	Progress func(done, total int, name string)
}

func DefaultOptions() Options {
	return Options{ShortMax: DefaultShortMax, Workers: 1}
}

type Extractor struct {
	lex  *lexicon.Lexicon
	opts Options
}

func New(lex *lexicon.Lexicon, opts Options) *Extractor {
	if opts.ShortMax < 1 {
		opts.ShortMax = DefaultShortMax
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Extractor{lex: lex, opts: opts}
}

// AnnotatedBackchannels returns the sent_ids of the sentences with a
// Backchannel key on any token.
func AnnotatedBackchannels(c *corpus.Corpus) map[string]bool {
	ids := map[string]bool{}
	for _, s := range c.Sentences {
		if s.ID != "" && s.HasMiscKey(candidate.KeyBackchannel) {
			ids[s.ID] = true
		}
	}
	return ids
}

var sentenceEnd = map[string]bool{".": true, "?": true, "!": true, "…": true}

var connectorUPOS = map[string]bool{
	"ADP": true, "CCONJ": true, "SCONJ": true, "DET": true, "PRON": true,
}

var lemmaUPOS = map[string]bool{
	"NOUN": true, "PROPN": true, "VERB": true, "ADJ": true, "ADV": true, "NUM": true,
}

type counters struct {
	pairs, finished, annotated, empty, onlyFiller, firstFiller, noSignal int
}

func (c *counters) add(o counters) {
	c.pairs += o.pairs
	c.finished += o.finished
	c.annotated += o.annotated
	c.empty += o.empty
	c.onlyFiller += o.onlyFiller
	c.firstFiller += o.firstFiller
	c.noSignal += o.noSignal
}

// Extract returns the candidates sorted by the configured order.
func (e *Extractor) Extract(ctx context.Context, c *corpus.Corpus) ([]candidate.Candidate, error) {
	results := make([][]candidate.Candidate, len(c.Documents))
	stats := make([]counters, len(c.Documents))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)

	var done atomic.Int64
	total := len(c.Documents)

	for i, doc := range c.Documents {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			cs, st, err := e.document(doc)
			if err != nil {
				return fmt.Errorf("document %q: %w", doc.ID, err)
			}
			results[i], stats[i] = cs, st

			n := done.Add(1)
			if e.opts.Progress != nil {
				e.opts.Progress(int(n), total, doc.ID)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []candidate.Candidate
	var sum counters
	for i := range results {
		out = append(out, results[i]...)
		sum.add(stats[i])
	}

	Sort(out, e.opts.Order)

	log.Debug().
		Int("pairs", sum.pairs).
		Int("finished", sum.finished).
		Int("annotated", sum.annotated).
		Int("empty", sum.empty).
		Int("only_filler", sum.onlyFiller).
		Int("first_filler", sum.firstFiller).
		Int("no_signal", sum.noSignal).
		Int("candidates", len(out)).
		Str("mode", e.opts.Mode.String()).
		Msg("co-construction extraction")

	return out, nil
}

// Sort orders candidates in place. The sort is stable, so ties keep corpus
// order.
func Sort(cs []candidate.Candidate, o Order) {
	if o == ByLength {
		slices.SortStableFunc(cs, func(a, b candidate.Candidate) int {
			return a.Length - b.Length
		})
		return
	}

	slices.SortStableFunc(cs, func(a, b candidate.Candidate) int {
		if a.Score != b.Score {
			return b.Score - a.Score
		}
		return a.Length - b.Length
	})
}

func (e *Extractor) document(doc *corpus.Document) ([]candidate.Candidate, counters, error) {
	var out []candidate.Candidate
	var st counters

	sents := doc.Sentences
	for i := 1; i < len(sents); i++ {
		a, b := sents[i-1], sents[i]
		if a.Speaker == "" || b.Speaker == "" || a.Speaker == b.Speaker {
			continue
		}
		st.pairs++

		c, ok, err := e.pair(sents, i, &st)
		if err != nil {
			return nil, st, err
		}
		if ok {
			out = append(out, c)
		}
	}

	return out, st, nil
}

// pair evaluates B = sents[i] against A = sents[i-1].
func (e *Extractor) pair(sents []*corpus.Sentence, i int, st *counters) (candidate.Candidate, bool, error) {
	a, b := sents[i-1], sents[i]

	if len(a.Tokens) == 0 || sentenceEnd[a.Tokens[len(a.Tokens)-1].Form] {
		st.finished++
		return candidate.Candidate{}, false, nil
	}

	if e.opts.Annotated[b.ID] || b.HasMiscKey(candidate.KeyBackchannel) {
		st.annotated++
		return candidate.Candidate{}, false, nil
	}

	bt := b.NonPunct()
	if len(bt) == 0 {
		st.empty++
		return candidate.Candidate{}, false, nil
	}
	if !slices.ContainsFunc(bt, func(t corpus.Token) bool { return !e.isFiller(t) }) {
		st.onlyFiller++
		return candidate.Candidate{}, false, nil
	}
	if e.isFiller(bt[0]) {
		st.firstFiller++
		return candidate.Candidate{}, false, nil
	}

	var flags candidate.Flags
	var reasons []string

	at := a.NonPunct()
	if orphanTail(at) {
		flags |= candidate.OrphanTail
		reasons = append(reasons, "orphan relation at the end of A")
	}
	if truncated(a, at) {
		flags |= candidate.Truncation
		reasons = append(reasons, "A is truncated")
	}
	if len(at) > 0 {
		last := at[len(at)-1]
		if connectorUPOS[last.UPOS] || e.lex.IsConnector(last.Form) {
			flags |= candidate.TrailingConnector
			reasons = append(reasons, fmt.Sprintf("A ends with connector %q", last.Form))
		}
	}

	if e.opts.Mode == FirstPass && flags == 0 {
		st.noSignal++
		return candidate.Candidate{}, false, nil
	}
	if flags == 0 {
		reasons = append(reasons, "A has no final punctuation")
	}

	if overlap(at, bt) {
		flags |= candidate.LexicalOverlap
		reasons = append(reasons, "A and B share a content lemma")
	}
	if len(bt) <= e.opts.ShortMax {
		flags |= candidate.ShortB
	}

	first := firstTextToken(b.Text)
	if first != "" && e.lex.IsNoisyStarter(first) {
		flags |= candidate.BBackchannelLike
	}
	if strings.HasSuffix(strings.TrimSpace(b.Text), "?") || (first != "" && e.lex.IsQuestionWord(first)) {
		flags |= candidate.BQuestionLike
	}
	if i+1 < len(sents) && sents[i+1].Speaker == a.Speaker {
		flags |= candidate.AContinues
	}
	if strings.Contains(a.Text, "?") {
		flags |= candidate.AIsQuestion
	}

	var rootUPOS, rootForm string
	root, err := b.Root()
	switch {
	case err == nil:
		rootUPOS, rootForm = root.UPOS, root.Form
		if rootUPOS == "INTJ" || rootUPOS == "PART" {
			flags |= candidate.BRootIntjPart
		}
	case errors.Is(err, corpus.ErrNoRoot):
	default:
		return candidate.Candidate{}, false, err
	}

	forms := make([]string, len(bt))
	for j, t := range bt {
		forms[j] = t.Form
	}

	c := candidate.Candidate{
		Kind:        candidate.Coconstruction,
		Doc:         b.DocID,
		A:           candidate.RefOf(a),
		B:           candidate.RefOf(b),
		Flags:       flags,
		Reasons:     reasons,
		BTokens:     forms,
		Length:      len(bt),
		BRootUPOS:   rootUPOS,
		BRootForm:   rootForm,
		BFirstToken: first,
	}
	c.Score = Score(flags, c.Length)
	c.Confidence = candidate.Band(c.Score)

	return c, true, nil
}

func (e *Extractor) isFiller(t corpus.Token) bool {
	return t.Deprel == "discourse:filler" || e.lex.IsFiller(t.Form)
}

// orphanTail reports an orphan relation among the last two tokens.
func orphanTail(toks []corpus.Token) bool {
	for _, t := range toks[max(0, len(toks)-2):] {
		if t.Deprel == "orphan" {
			return true
		}
	}
	return false
}

// truncated reports a cut-off last word ("gre-") or a text ending in an
// ellipsis.
func truncated(s *corpus.Sentence, toks []corpus.Token) bool {
	if len(toks) > 0 {
		f := toks[len(toks)-1].Form
		if len(f) > 1 && strings.HasSuffix(f, "-") {
			return true
		}
	}
	text := strings.TrimSpace(s.Text)
	return strings.HasSuffix(text, "…") || strings.HasSuffix(text, "...")
}

func overlap(a, b []corpus.Token) bool {
	lemmas := map[string]bool{}
	for _, t := range a {
		if l := contentLemma(t); l != "" {
			lemmas[l] = true
		}
	}
	for _, t := range b {
		if l := contentLemma(t); l != "" && lemmas[l] {
			return true
		}
	}
	return false
}

func contentLemma(t corpus.Token) string {
	if !lemmaUPOS[t.UPOS] {
		return ""
	}
	l := t.Lemma
	if l == "" || l == "_" {
		l = t.Form
	}
	return lexicon.Normalize(l)
}

// firstTextToken returns the first normalized word of the transcription.
func firstTextToken(text string) string {
	for _, w := range strings.Fields(text) {
		if n := lexicon.Normalize(w); n != "" {
			return n
		}
	}
	return ""
}
