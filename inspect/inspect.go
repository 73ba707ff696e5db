// Package inspect is an interactive browser over a parsed corpus.
package inspect

import (
	"fmt"
	"strings"

	"github.com/c-bata/go-prompt"

	"github.com/revelaction/dialmark/candidate"
	"github.com/revelaction/dialmark/corpus"
	"github.com/revelaction/dialmark/lexicon"
	"github.com/revelaction/dialmark/render"
)

const (
	completionThreshold = 2

	// lemmaPrefix is the Character in the prompt that starts a lemma search
	lemmaPrefix = "/"

	maxSuggestions = 12
	maxResults     = 20
)

type Handler struct {
	Corpus   *corpus.Corpus
	Renderer *render.Renderer

	// candidates by B sent_id, shown next to the utterance
	candidates map[string]candidate.Candidate
}

func NewHandler(c *corpus.Corpus, cs []candidate.Candidate, r *render.Renderer) *Handler {
	byB := make(map[string]candidate.Candidate, len(cs))
	for _, cd := range cs {
		byB[cd.B.SentID] = cd
	}
	return &Handler{Corpus: c, Renderer: r, candidates: byB}
}

func (h *Handler) Run() error {
	fmt.Fprintln(h.Renderer.Out, "🔑 Ctrl+X: Toggle prefix, /lemma: search, 🔧 quit")

	history := []string{}

	for {
		in := prompt.Input("      ✍  ", h.completer,
			prompt.OptionTitle("dialmark inspect"),
			prompt.OptionPrefixTextColor(prompt.Yellow),
			prompt.OptionPreviewSuggestionTextColor(prompt.Blue),
			prompt.OptionSelectedSuggestionBGColor(prompt.LightGray),
			prompt.OptionMaxSuggestion(maxSuggestions),
			prompt.OptionSuggestionBGColor(prompt.DarkGray),
			prompt.OptionHistory(history),
			prompt.OptionAddKeyBind(prompt.KeyBind{
				Key: prompt.ControlX,
				Fn: func(buf *prompt.Buffer) {
					h.Renderer.HasPrefix = !h.Renderer.HasPrefix
					fmt.Fprintf(h.Renderer.Out, "Prefix set to %t\n", h.Renderer.HasPrefix)
				}}),
		)

		if h.Eval(in) {
			return nil
		}
		history = append(history, in)
	}
}

// Eval runs one prompt line and reports whether the session is over.
func (h *Handler) Eval(in string) bool {
	in = strings.TrimSpace(in)
	switch {
	case in == "quit":
		return true
	case in == "":
		return false
	case strings.HasPrefix(in, lemmaPrefix):
		h.search(in[len(lemmaPrefix):])
		return false
	}

	s, ok := h.Corpus.Sentence(in)
	if !ok {
		fmt.Fprintf(h.Renderer.Out, "no sentence %q\n", in)
		return false
	}
	h.show(s)
	return false
}

// show prints the previous, current and next utterance of the document,
// then the token table of s.
func (h *Handler) show(s *corpus.Sentence) {
	doc := s.Doc().Sentences
	pos := 0
	for i, ds := range doc {
		if ds == s {
			pos = i
			break
		}
	}

	for i := max(0, pos-1); i <= min(len(doc)-1, pos+1); i++ {
		marker := "   "
		if i == pos {
			marker = "👉 "
		}
		h.Renderer.Sentence(doc[i], h.prefix(marker, doc[i]))
	}

	h.Renderer.Tokens(s)

	if c, ok := h.candidates[s.ID]; ok {
		h.Renderer.Candidates([]candidate.Candidate{c})
	}
}

func (h *Handler) prefix(marker string, s *corpus.Sentence) string {
	if !h.Renderer.HasPrefix {
		return marker
	}
	return fmt.Sprintf("%s[%-12s] ", marker, s.ID)
}

// search lists the sentences with a token of the given lemma, normalized.
func (h *Handler) search(lemma string) {
	lemma = lexicon.Normalize(lemma)
	if lemma == "" {
		return
	}

	n := 0
	for _, s := range h.Corpus.Sentences {
		var ids []int
		for _, t := range s.Tokens {
			if lexicon.Normalize(t.Lemma) == lemma {
				ids = append(ids, t.Id)
			}
		}
		if len(ids) == 0 {
			continue
		}

		if n == maxResults {
			fmt.Fprintf(h.Renderer.Out, "... more than %d sentences\n", maxResults)
			return
		}
		fmt.Fprintf(h.Renderer.Out, "%s%s\n", h.prefix("", s), h.Renderer.SentenceString(s, ids...))
		n++
	}

	if n == 0 {
		fmt.Fprintf(h.Renderer.Out, "no sentence with lemma %q\n", lemma)
	}
}

// completer suggests sent_ids once the input is long enough.
func (h *Handler) completer(in prompt.Document) []prompt.Suggest {
	s := []prompt.Suggest{}

	word := in.TextBeforeCursor()
	if len(word) < completionThreshold || strings.HasPrefix(word, lemmaPrefix) {
		return s
	}

	for _, st := range h.Corpus.Sentences {
		if !strings.HasPrefix(st.ID, word) {
			continue
		}
		s = append(s, prompt.Suggest{Text: st.ID, Description: st.Speaker + ": " + st.Text})
		if len(s) == maxSuggestions {
			break
		}
	}

	return s
}
