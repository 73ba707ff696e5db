// Package lexicon holds the closed word lists the extractors consult: the
// backchannel lexicon with its categories, filler forms, connectors,
// question words and greeting phrases. A Lexicon is built once and never
// modified afterwards, so it is safe to share between goroutines.
package lexicon

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

const (
	// MultiwordStarter marks words that only open a backchannel together
	// with a following lexicon word, like "v" in "v redu".
	MultiwordStarter = "multiword_starter"

	Unspecified = "unspecified"
)

// edge punctuation stripped by Normalize
const edgePunct = ".,?!;:\"'()[]{}"

// Normalize lowercases a word form after trimming whitespace and edge
// punctuation.
func Normalize(s string) string {
	s = strings.Trim(strings.TrimSpace(s), edgePunct)
	return cases.Lower(language.Und).String(norm.NFC.String(s))
}

// Lexicon is an immutable set of lexical tables.
type Lexicon struct {
	words      map[string]string
	fillers    map[string]bool
	noisy      map[string]bool
	connectors map[string]bool
	questions  map[string]bool
	greetings  []string
}

// Options configures New. Words and File add to the seed lexicon; a word
// listed twice keeps the category seen last.
type Options struct {
	// NoSeed drops the built-in backchannel words.
	NoSeed bool

	// File is a lexicon file with "word|category" or "word" lines.
	File string

	// Extra words, categorized as Unspecified.
	Extra []string
}

// Default returns the lexicon built from the seed tables only.
func Default() *Lexicon {
	l, _ := New(Options{})
	return l
}

// New builds a lexicon from the seed tables, the optional lexicon file and
// extra words.
func New(opts Options) (*Lexicon, error) {
	l := &Lexicon{
		words:      map[string]string{},
		fillers:    set(fillerForms),
		noisy:      set(noisyStarters),
		connectors: set(connectorForms),
		questions:  set(questionWords),
		greetings:  append([]string(nil), greetingPhrases...),
	}

	if !opts.NoSeed {
		for cat, words := range seed {
			for _, w := range words {
				l.words[w] = cat
			}
		}
	}

	if opts.File != "" {
		f, err := os.Open(opts.File)
		if err != nil {
			return nil, fmt.Errorf("lexicon: %w", err)
		}
		defer f.Close()

		words, err := Parse(f)
		if err != nil {
			return nil, fmt.Errorf("lexicon %s: %w", opts.File, err)
		}
		for w, cat := range words {
			l.words[w] = cat
		}
	}

	for _, w := range opts.Extra {
		if w = Normalize(w); w != "" && !strings.Contains(w, " ") {
			l.words[w] = Unspecified
		}
	}

	return l, nil
}

// Parse reads a lexicon file: one "word|category" or "word" per line, '#'
// comments and blank lines ignored. Multi-word entries are skipped.
func Parse(r io.Reader) (map[string]string, error) {
	words := map[string]string{}

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		word, cat, ok := strings.Cut(line, "|")
		cat = strings.ToLower(strings.TrimSpace(cat))
		if !ok || cat == "" {
			cat = Unspecified
		}

		word = Normalize(word)
		if word == "" || strings.Contains(word, " ") {
			continue
		}
		words[word] = cat
	}

	return words, sc.Err()
}

// Contains reports whether the normalized form is a backchannel word.
func (l *Lexicon) Contains(form string) bool {
	_, ok := l.words[Normalize(form)]
	return ok
}

// Category returns the category of form, or "" if form is not listed.
func (l *Lexicon) Category(form string) string {
	return l.words[Normalize(form)]
}

func (l *Lexicon) IsMultiwordStarter(form string) bool {
	return l.Category(form) == MultiwordStarter
}

func (l *Lexicon) IsFiller(form string) bool {
	return l.fillers[Normalize(form)]
}

// IsNoisyStarter reports whether form opens a turn like a backchannel: a
// lexicon word or one of the extra hesitation forms.
func (l *Lexicon) IsNoisyStarter(form string) bool {
	f := Normalize(form)
	_, ok := l.words[f]
	return ok || l.noisy[f]
}

func (l *Lexicon) IsConnector(form string) bool {
	return l.connectors[Normalize(form)]
}

func (l *Lexicon) IsQuestionWord(form string) bool {
	return l.questions[Normalize(form)]
}

// IsGreeting reports whether text is, or contains, a greeting phrase.
func (l *Lexicon) IsGreeting(text string) bool {
	t := strings.Join(strings.Fields(Normalize(text)), " ")
	if t == "" {
		return false
	}
	for _, g := range l.greetings {
		if strings.Contains(t, g) {
			return true
		}
	}
	return false
}

// Len returns the number of backchannel words.
func (l *Lexicon) Len() int {
	return len(l.words)
}

func set(words []string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}
