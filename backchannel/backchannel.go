// Package backchannel finds short listener responses (mhm, ja, aha) that
// interrupt another speaker's turn without taking the floor.
package backchannel

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/revelaction/dialmark/candidate"
	"github.com/revelaction/dialmark/corpus"
	"github.com/revelaction/dialmark/lexicon"
)

const (
	DefaultWindow = 5
	DefaultEndK   = 2
)

// Options tunes the extractor. The zero value of the booleans keeps the
// soft behaviour: every pair passing the lexical and syntactic filters is
// emitted.
type Options struct {
	// Window is the number of utterances after A in which A's speaker must
	// speak again for windowed continuation.
	Window int

	// EndK marks B as near the end of its document when at most EndK
	// utterances follow it.
	EndK int

	// RequireAllInLexicon drops B when any non-punctuation token is not a
	// lexicon word.
	RequireAllInLexicon bool

	// RequireContinuation drops pairs with neither continuation evidence nor
	// the near-end signal.
	RequireContinuation bool

	// ExcludeGreetings drops B when its text contains a greeting phrase.
	ExcludeGreetings bool

	Workers int

	// Progress is called once per finished document, possibly from several
	// goroutines.
	Progress func(done, total int, name string)
}

func DefaultOptions() Options {
	return Options{
		Window:           DefaultWindow,
		EndK:             DefaultEndK,
		ExcludeGreetings: true,
		Workers:          1,
	}
}

type Extractor struct {
	lex  *lexicon.Lexicon
	opts Options
}

func New(lex *lexicon.Lexicon, opts Options) *Extractor {
	if opts.Window < 1 {
		opts.Window = DefaultWindow
	}
	if opts.EndK < 0 {
		opts.EndK = DefaultEndK
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Extractor{lex: lex, opts: opts}
}

// counters of dropped pairs, logged at the end of a run
type counters struct {
	pairs, noLexicon, deprel, notAllInLexicon, greeting, noContinuation int
}

func (c *counters) add(o counters) {
	c.pairs += o.pairs
	c.noLexicon += o.noLexicon
	c.deprel += o.deprel
	c.notAllInLexicon += o.notAllInLexicon
	c.greeting += o.greeting
	c.noContinuation += o.noContinuation
}

// Extract returns one candidate per B sentence, in corpus order.
// Documents are processed concurrently; the result does not depend on the
// number of workers.
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

	set := candidate.NewSet()
	var sum counters
	for i := range results {
		for _, cand := range results[i] {
			set.Add(cand)
		}
		sum.add(stats[i])
	}

	log.Debug().
		Int("pairs", sum.pairs).
		Int("no_lexicon", sum.noLexicon).
		Int("deprel", sum.deprel).
		Int("not_all_in_lexicon", sum.notAllInLexicon).
		Int("greeting", sum.greeting).
		Int("no_continuation", sum.noContinuation).
		Int("candidates", set.Len()).
		Msg("backchannel extraction")

	return set.Candidates(), nil
}

func (e *Extractor) document(doc *corpus.Document) ([]candidate.Candidate, counters, error) {
	var out []candidate.Candidate
	var st counters

	sents := doc.Sentences
	for i := 1; i < len(sents); i++ {
		a, b := sents[i-1], sents[i]
		if a.ID == "" || b.ID == "" || a.Speaker == "" || b.Speaker == "" || a.Speaker == b.Speaker {
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

	bt := b.NonPunct()
	if len(bt) == 0 || !e.lex.Contains(bt[0].Form) {
		st.noLexicon++
		return candidate.Candidate{}, false, nil
	}

	first := bt[0]
	if e.lex.IsMultiwordStarter(first.Form) {
		if len(bt) < 2 || !e.lex.Contains(bt[1].Form) {
			st.noLexicon++
			return candidate.Candidate{}, false, nil
		}
	} else if first.Deprel != "root" && !strings.HasPrefix(first.Deprel, "discourse") {
		st.deprel++
		return candidate.Candidate{}, false, nil
	}

	allInLexicon := e.allInLexicon(bt)
	if e.opts.RequireAllInLexicon && !allInLexicon {
		st.notAllInLexicon++
		return candidate.Candidate{}, false, nil
	}

	if e.opts.ExcludeGreetings && e.lex.IsGreeting(b.Text) {
		st.greeting++
		return candidate.Candidate{}, false, nil
	}

	var flags candidate.Flags
	var reasons []string

	switch {
	case i+1 < len(sents) && sents[i+1].Speaker == a.Speaker:
		flags |= candidate.ImmediateContinuation
		reasons = append(reasons, "A continues immediately after B")
	case e.continuesWithin(sents, i):
		flags |= candidate.WindowedContinuation
		reasons = append(reasons, fmt.Sprintf("A continues within %d turns", e.opts.Window))
	}

	if len(sents)-1-i <= e.opts.EndK {
		flags |= candidate.NearEnd
		reasons = append(reasons, "near end of conversation")
	}

	if len(reasons) == 0 {
		if e.opts.RequireContinuation {
			st.noContinuation++
			return candidate.Candidate{}, false, nil
		}
		reasons = append(reasons, "short B with lexicon match, no continuation proof")
	}

	if hasDiscourse(b) {
		flags |= candidate.DiscourseRelation
		reasons = append(reasons, "has discourse relation")
	}

	if e.looksLikeBackchannel(a) {
		flags |= candidate.ALooksBackchannel
	}
	if hasContent(bt) {
		flags |= candidate.BHasContent
	}
	if isQuestionRequiringAnswer(b, bt) {
		flags |= candidate.BIsQuestion
	}
	if strings.Contains(a.Text, "?") {
		flags |= candidate.BAfterQuestion
	}
	if e.hasVerbalBackchannel(bt) {
		flags |= candidate.BVerbalBackchannel
	}
	if !allInLexicon {
		flags |= candidate.BNotAllInLexicon
	}

	attach, last, err := attachments(a)
	if err != nil {
		return candidate.Candidate{}, false, err
	}

	forms := make([]string, len(bt))
	for j, t := range bt {
		forms[j] = t.Form
	}

	c := candidate.Candidate{
		Kind:              candidate.Backchannel,
		Doc:               b.DocID,
		A:                 candidate.RefOf(a),
		B:                 candidate.RefOf(b),
		Flags:             flags,
		Reasons:           reasons,
		BTokens:           forms,
		Length:            len(bt),
		Attach:            attach,
		AttachLastContent: last,
		BackchannelType:   e.lex.Category(first.Form),
	}
	c.Confidence = Confidence(flags, c.Length)
	c.Score = Score(flags, c.Length)

	return c, true, nil
}

// continuesWithin reports whether A's speaker talks again within the window
// after A, later than B.
func (e *Extractor) continuesWithin(sents []*corpus.Sentence, i int) bool {
	speaker := sents[i-1].Speaker
	last := min(len(sents)-1, i-1+e.opts.Window)
	for j := i + 1; j <= last; j++ {
		if sents[j].Speaker == speaker {
			return true
		}
	}
	return false
}

func (e *Extractor) allInLexicon(toks []corpus.Token) bool {
	for _, t := range toks {
		if !e.lex.Contains(t.Form) {
			return false
		}
	}
	return true
}

// looksLikeBackchannel reports a short utterance made only of lexicon words.
func (e *Extractor) looksLikeBackchannel(s *corpus.Sentence) bool {
	toks := s.NonPunct()
	if len(toks) == 0 || len(toks) > 3 {
		return false
	}
	return e.allInLexicon(toks)
}

func (e *Extractor) hasVerbalBackchannel(toks []corpus.Token) bool {
	for _, t := range toks {
		if t.UPOS == "VERB" && e.lex.Contains(t.Form) {
			return true
		}
	}
	return false
}

func hasDiscourse(s *corpus.Sentence) bool {
	for _, t := range s.Tokens {
		if strings.HasPrefix(t.Deprel, "discourse") {
			return true
		}
	}
	return false
}

// hasContent reports clause-like structure: a verb, nouns or adjectives in
// turns longer than two tokens, or more than three tokens.
func hasContent(toks []corpus.Token) bool {
	for _, t := range toks {
		switch t.UPOS {
		case "VERB":
			return true
		case "NOUN", "PROPN", "ADJ":
			if len(toks) > 2 {
				return true
			}
		}
	}
	return len(toks) > 3
}

// isQuestionRequiringAnswer reports a question of more than two tokens.
// Tag questions like "ne?" or "ja?" stay backchannels.
func isQuestionRequiringAnswer(s *corpus.Sentence, toks []corpus.Token) bool {
	if !strings.HasSuffix(strings.TrimSpace(s.Text), "?") {
		return false
	}
	return len(toks) > 2
}

var contentUPOS = map[string]bool{
	"NOUN": true, "PROPN": true, "VERB": true, "ADJ": true, "ADV": true, "NUM": true, "PRON": true,
}

var hesitations = map[string]bool{"eee": true, "em": true, "erm": true}

// attachments returns "<A>::<root id>" and "<A>::<last content id>". A
// sentence without root yields an empty root attachment.
func attachments(a *corpus.Sentence) (string, string, error) {
	root := ""
	t, err := a.Root()
	switch {
	case err == nil:
		root = fmt.Sprintf("%s::%d", a.ID, t.Id)
	case errors.Is(err, corpus.ErrNoRoot):
	default:
		return "", "", err
	}

	last := ""
	toks := a.NonPunct()
	for j := len(toks) - 1; j >= 0; j-- {
		if contentUPOS[toks[j].UPOS] && !hesitations[lexicon.Normalize(toks[j].Form)] {
			last = fmt.Sprintf("%s::%d", a.ID, toks[j].Id)
			break
		}
	}
	if last == "" && len(toks) > 0 {
		last = fmt.Sprintf("%s::%d", a.ID, toks[len(toks)-1].Id)
	}

	return root, last, nil
}
