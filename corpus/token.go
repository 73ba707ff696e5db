package corpus

import (
	"strings"
	"unicode"
)

// NoHead is the Head value of a token whose HEAD column is not a number.
const NoHead = -1

// Token represents a word line of a CoNLL-U sentence. Only lines with an
// integer id are tokens; multiword ranges and empty nodes stay raw lines.
type Token struct {
	Id int `json:"id"`

	// The unmodified word
	Form string `json:"form"`

	// The lemma of the word
	Lemma string `json:"lemma"`

	// Universal part of speech
	UPOS string `json:"upos"`

	// Id of the governor, 0 for the root, NoHead if unparseable
	Head int `json:"head"`

	Deprel string `json:"deprel"`

	Misc Misc `json:"misc"`

	// index into the corpus line table
	line int
}

// IsPunct reports whether the token is punctuation: either tagged PUNCT or
// made only of non-word characters.
func IsPunct(t Token) bool {
	if t.UPOS == "PUNCT" {
		return true
	}

	if t.Form == "" {
		return false
	}

	for _, r := range t.Form {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			return false
		}
	}

	return true
}

// Feature is one KEY=VALUE item of the MISC column.
type Feature struct {
	Key   string `json:"key"`
	Value string `json:"value"`

	// bare items carry no '='
	bare bool
}

// Misc is the ordered MISC column of a token. The empty Misc renders as "_".
type Misc []Feature

// ParseMisc parses a MISC column value.
func ParseMisc(s string) Misc {
	if s == "" || s == "_" {
		return nil
	}

	items := strings.Split(s, "|")
	m := make(Misc, 0, len(items))
	for _, item := range items {
		k, v, ok := strings.Cut(item, "=")
		m = append(m, Feature{Key: k, Value: v, bare: !ok})
	}

	return m
}

// Get returns the value of the first feature named key.
func (m Misc) Get(key string) (string, bool) {
	for _, f := range m {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

func (m Misc) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Set replaces the value of key in place, or appends key when absent.
func (m *Misc) Set(key, value string) {
	for i := range *m {
		if (*m)[i].Key == key {
			(*m)[i].Value = value
			(*m)[i].bare = false
			return
		}
	}
	*m = append(*m, Feature{Key: key, Value: value})
}

func (m Misc) String() string {
	if len(m) == 0 {
		return "_"
	}

	var b strings.Builder
	for i, f := range m {
		if i > 0 {
			b.WriteByte('|')
		}
		b.WriteString(f.Key)
		if !f.bare {
			b.WriteByte('=')
			b.WriteString(f.Value)
		}
	}
	return b.String()
}
