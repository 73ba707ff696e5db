package stat

import (
	"testing"

	"github.com/stretchr/testify/assert"

	ct "github.com/revelaction/dialmark/corpus/corpustest"
)

func TestAggregate(t *testing.T) {
	h := NewHandler()

	h.Aggregate(ct.Parse(t, ct.Doc{ID: "d", Utts: []ct.Utt{
		ct.U("d.1", "spk1", "smo šli domov", "smo AUX 0 root", "šli VERB 1 xcomp", "domov ADV 2 advmod"),
		ct.U("d.2", "spk2", "Mhm", "Mhm INTJ 0 discourse mhm Backchannel=d.1::1"),
		ct.U("d.3", "spk1", "ja no", "ja PART 2 discourse", "no PART 1 discourse"),
	}}))
	h.Aggregate(ct.Parse(t, ct.Doc{ID: "e", Utts: []ct.Utt{
		ct.U("e.1", "spk3", "ja ja", "ja PART 0 root", "ja PART 0 root"),
		ct.U("e.2", "spk1", "morju", "morju NOUN 0 root morje Coconstruct=obl::d.1::3"),
	}}))

	want := Stats{
		NumDocuments:          2,
		NumSentences:          5,
		NumTokens:             9,
		NumSpeakers:           3,
		TokensPerSentenceMean: 1,
		TokensPerSentenceDis:  map[int]int{1: 2, 2: 2, 3: 1},
		NoRoot:                1,
		MultipleRoots:         1,
		Backchannels:          1,
		Coconstructions:       1,
	}
	assert.Equal(t, want, h.Get())
}

func TestAggregateEmpty(t *testing.T) {
	h := NewHandler()
	h.Aggregate(ct.Parse(t))
	assert.Zero(t, h.Get().TokensPerSentenceMean)
	assert.Zero(t, h.Get().NumSentences)
}
