// Package stat aggregates counts over parsed corpora.
package stat

import (
	"errors"

	"github.com/revelaction/dialmark/candidate"
	"github.com/revelaction/dialmark/corpus"
)

type Handler struct {
	stats    Stats
	speakers map[string]bool
}

type Stats struct {
	NumDocuments          int         `json:"documents" yaml:"documents"`
	NumSentences          int         `json:"sentences" yaml:"sentences"`
	NumTokens             int         `json:"tokens" yaml:"tokens"`
	NumSpeakers           int         `json:"speakers" yaml:"speakers"`
	TokensPerSentenceMean int         `json:"tokens_per_sentence_mean" yaml:"tokens_per_sentence_mean"`
	TokensPerSentenceDis  map[int]int `json:"tokens_per_sentence" yaml:"tokens_per_sentence"`

	// sentences whose root token is missing or ambiguous
	NoRoot        int `json:"no_root" yaml:"no_root"`
	MultipleRoots int `json:"multiple_roots" yaml:"multiple_roots"`

	// existing annotations
	Backchannels    int `json:"backchannels" yaml:"backchannels"`
	Coconstructions int `json:"coconstructions" yaml:"coconstructions"`
}

func (h *Handler) Get() Stats {
	return h.stats
}

func NewHandler() *Handler {
	stats := Stats{TokensPerSentenceDis: map[int]int{}}
	return &Handler{
		stats:    stats,
		speakers: map[string]bool{},
	}
}

// Aggregate adds c to the running counts. It can be called once per input
// file.
func (h *Handler) Aggregate(c *corpus.Corpus) {
	h.stats.NumDocuments += len(c.Documents)
	h.stats.NumSentences += len(c.Sentences)

	for _, s := range c.Sentences {
		h.stats.NumTokens += len(s.Tokens)
		h.stats.TokensPerSentenceDis[len(s.Tokens)]++

		if s.Speaker != "" {
			h.speakers[s.Speaker] = true
		}

		if _, err := s.Root(); errors.Is(err, corpus.ErrNoRoot) {
			h.stats.NoRoot++
		} else if errors.Is(err, corpus.ErrMultipleRoots) {
			h.stats.MultipleRoots++
		}

		if s.HasMiscKey(candidate.KeyBackchannel) {
			h.stats.Backchannels++
		}
		if s.HasMiscKey(candidate.KeyCoconstruct) {
			h.stats.Coconstructions++
		}
	}

	h.stats.NumSpeakers = len(h.speakers)
	if h.stats.NumSentences > 0 {
		h.stats.TokensPerSentenceMean = h.stats.NumTokens / h.stats.NumSentences
	}
}
