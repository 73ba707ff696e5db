// Package corpustest builds small CoNLL-U corpora for tests.
package corpustest

import (
	"fmt"
	"strings"
	"testing"

	"github.com/revelaction/dialmark/corpus"
)

// Utt is one utterance. Each token is "form UPOS head deprel", optionally
// followed by a lemma and a MISC value: "form UPOS head deprel lemma misc".
type Utt struct {
	ID      string
	Speaker string
	Text    string
	Tokens  []string
}

// Doc is a document of utterances.
type Doc struct {
	ID   string
	Utts []Utt
}

// U is shorthand for an Utt.
func U(id, speaker, text string, tokens ...string) Utt {
	return Utt{ID: id, Speaker: speaker, Text: text, Tokens: tokens}
}

// Text renders documents as CoNLL-U.
func Text(docs ...Doc) string {
	var b strings.Builder
	for _, d := range docs {
		for i, u := range d.Utts {
			if i == 0 && d.ID != "" {
				fmt.Fprintf(&b, "# newdoc id = %s\n", d.ID)
			}
			fmt.Fprintf(&b, "# sent_id = %s\n", u.ID)
			if u.Speaker != "" {
				fmt.Fprintf(&b, "# speaker_id = %s\n", u.Speaker)
			}
			fmt.Fprintf(&b, "# text = %s\n", u.Text)
			for j, tok := range u.Tokens {
				f := strings.Fields(tok)
				lemma, misc := strings.ToLower(f[0]), "_"
				if len(f) > 4 {
					lemma = f[4]
				}
				if len(f) > 5 {
					misc = f[5]
				}
				fmt.Fprintf(&b, "%d\t%s\t%s\t%s\t_\t_\t%s\t%s\t_\t%s\n", j+1, f[0], lemma, f[1], f[2], f[3], misc)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

// Parse renders and parses documents, failing the test on error.
func Parse(t testing.TB, docs ...Doc) *corpus.Corpus {
	t.Helper()
	c, err := corpus.Parse(strings.NewReader(Text(docs...)))
	if err != nil {
		t.Fatalf("parse corpus: %v", err)
	}
	return c
}
