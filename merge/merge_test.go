package merge

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/revelaction/dialmark/backchannel"
	"github.com/revelaction/dialmark/candidate"
	"github.com/revelaction/dialmark/corpus"
	ct "github.com/revelaction/dialmark/corpus/corpustest"
	"github.com/revelaction/dialmark/decision"
	"github.com/revelaction/dialmark/diffcheck"
	"github.com/revelaction/dialmark/lexicon"
)

var dialogue = ct.Doc{ID: "d", Utts: []ct.Utt{
	ct.U("d.1", "spk1", "in potem smo šli domov.",
		"in CCONJ 3 cc", "potem ADV 3 advmod", "smo AUX 0 root", "šli VERB 3 xcomp",
		"domov ADV 4 advmod domov SpaceAfter=No", ". PUNCT 3 punct"),
	ct.U("d.2", "spk2", "Mhm", "Mhm INTJ 0 discourse"),
	ct.U("d.3", "spk1", "in tam je bilo lepo na",
		"in CCONJ 3 cc", "tam ADV 3 advmod", "je AUX 0 root", "bilo AUX 3 aux", "lepo ADV 3 advmod", "na ADP 3 case"),
	ct.U("d.4", "spk2", "morju", "morju NOUN 0 root morje SpaceAfter=No"),
	ct.U("d.5", "spk1", "ja ja", "ja PART 0 root", "ja PART 1 discourse"),
}}

func bc(a, b string) decision.Row {
	return decision.Row{Kind: candidate.Backchannel, Source: a, Target: b, Line: 2}
}

func coco(a, b, deprel string, gov int) decision.Row {
	return decision.Row{Kind: candidate.Coconstruction, Source: a, Target: b, Deprel: deprel, Governor: gov, Line: 2}
}

func miscOf(t *testing.T, c *corpus.Corpus, id string) string {
	t.Helper()
	s, ok := c.Sentence(id)
	require.True(t, ok)
	root, err := s.Root()
	require.NoError(t, err)
	return root.Misc.String()
}

func TestApply(t *testing.T) {
	c := ct.Parse(t, dialogue)
	before := c.Bytes()

	out, st, err := New().Apply(c, []decision.Row{
		bc("d.1", "d.2"),
		coco("d.3", "d.4", "obl", 6),
	})
	require.NoError(t, err)
	assert.Equal(t, Stats{Rows: 2, Patched: 2}, st)

	assert.Equal(t, "Backchannel=d.1::3", miscOf(t, out, "d.2"))
	assert.Equal(t, "SpaceAfter=No|Coconstruct=obl::d.3::6", miscOf(t, out, "d.4"))

	// the input is untouched
	assert.Equal(t, before, c.Bytes())
	assert.Equal(t, "_", miscOf(t, c, "d.2"))

	s := diffcheck.Compare("merged", before, out.Bytes(), diffcheck.DefaultOptions())
	assert.True(t, s.Pass)
	assert.Equal(t, 2, s.Counts[diffcheck.SanctionedAddition])
	assert.Equal(t, 2, s.DiffLines)
}

func TestApplyIdempotent(t *testing.T) {
	rows := []decision.Row{bc("d.1", "d.2"), coco("d.3", "d.4", "obl", 6)}
	m := New()

	once, _, err := m.Apply(ct.Parse(t, dialogue), rows)
	require.NoError(t, err)

	twice, st, err := m.Apply(once, rows)
	require.NoError(t, err)
	assert.Equal(t, Stats{Rows: 2, Unchanged: 2}, st)
	assert.True(t, bytes.Equal(once.Bytes(), twice.Bytes()))

	// reparsing the output gives the same result
	reparsed, err := corpus.Parse(bytes.NewReader(once.Bytes()))
	require.NoError(t, err)
	again, _, err := m.Apply(reparsed, rows)
	require.NoError(t, err)
	assert.Equal(t, string(once.Bytes()), string(again.Bytes()))
}

func TestApplyReplaces(t *testing.T) {
	m := New()
	once, _, err := m.Apply(ct.Parse(t, dialogue), []decision.Row{bc("d.1", "d.2")})
	require.NoError(t, err)

	out, st, err := m.Apply(once, []decision.Row{bc("d.3", "d.2")})
	require.NoError(t, err)
	assert.Equal(t, 1, st.Patched)
	assert.Equal(t, "Backchannel=d.3::3", miscOf(t, out, "d.2"))
}

func TestValidateReferences(t *testing.T) {
	c := ct.Parse(t, dialogue)
	before := c.Bytes()

	rows := []decision.Row{
		bc("d.1", "d.2"),
		bc("x.1", "d.4"),
		bc("d.3", "x.2"),
		coco("d.3", "d.4", "obl", 9),
	}

	out, st, err := New().Apply(c, rows)
	require.Error(t, err)
	assert.Nil(t, out)
	assert.Zero(t, st)
	assert.True(t, errors.Is(err, ErrReference))

	msg := err.Error()
	assert.Contains(t, msg, `"x.1"`)
	assert.Contains(t, msg, `"x.2"`)
	assert.Contains(t, msg, "governor token 9")

	assert.Equal(t, before, c.Bytes())
}

func TestValidateRoots(t *testing.T) {
	doc := ct.Doc{ID: "d", Utts: []ct.Utt{
		ct.U("d.1", "spk1", "greva", "greva VERB 0 root"),
		ct.U("d.2", "spk2", "ja ja", "ja PART 0 root", "ja PART 0 root"),
		ct.U("d.3", "spk1", "no", "no PART 1 discourse"),
	}}
	c := ct.Parse(t, doc)
	m := New()

	err := m.Validate(c, []decision.Row{bc("d.1", "d.2")})
	assert.True(t, errors.Is(err, corpus.ErrMultipleRoots))

	err = m.Validate(c, []decision.Row{bc("d.1", "d.3")})
	assert.True(t, errors.Is(err, corpus.ErrNoRoot))

	// backchannels attach to the source root
	err = m.Validate(c, []decision.Row{bc("d.3", "d.1")})
	assert.True(t, errors.Is(err, corpus.ErrNoRoot))

	// co-constructions attach to a governor instead
	err = m.Validate(c, []decision.Row{coco("d.3", "d.1", "obj", 1)})
	assert.NoError(t, err)
}

func TestValidateDeprel(t *testing.T) {
	err := New().Validate(ct.Parse(t, dialogue), []decision.Row{coco("d.3", "d.4", "obl|x", 6)})
	assert.True(t, errors.Is(err, decision.ErrValue))
}

func TestApplyProgress(t *testing.T) {
	var names []string
	m := New()
	m.Progress = func(done, total int, name string) {
		assert.Equal(t, 2, total)
		names = append(names, name)
	}

	_, _, err := m.Apply(ct.Parse(t, dialogue), []decision.Row{bc("d.1", "d.2"), coco("d.3", "d.4", "obl", 6)})
	require.NoError(t, err)
	assert.Equal(t, []string{"d.2", "d.4"}, names)
}

// The whole backchannel path: extract, review, merge, validate.
func TestBackchannelScenario(t *testing.T) {
	lex, err := lexicon.New(lexicon.Options{NoSeed: true, Extra: []string{"mhm"}})
	require.NoError(t, err)

	c := ct.Parse(t, ct.Doc{ID: "d", Utts: []ct.Utt{
		ct.U("d.1", "spk1", "...in potem smo šli domov.",
			"in CCONJ 3 cc", "potem ADV 3 advmod", "smo AUX 0 root",
			"šli VERB 3 xcomp", "domov ADV 4 advmod", ". PUNCT 3 punct"),
		ct.U("d.2", "spk2", "Mhm", "Mhm INTJ 0 discourse"),
		ct.U("d.3", "spk1", "in tam je bilo lepo",
			"in CCONJ 3 cc", "tam ADV 3 advmod", "je AUX 0 root", "bilo AUX 3 aux", "lepo ADV 3 advmod"),
	}})
	src := c.Bytes()

	cs, err := backchannel.New(lex, backchannel.DefaultOptions()).Extract(context.Background(), c)
	require.NoError(t, err)
	require.Len(t, cs, 1)
	assert.Equal(t, candidate.High, cs[0].Confidence)
	assert.GreaterOrEqual(t, cs[0].Score, 80)
	assert.Equal(t, "d.1::3", cs[0].Attach)

	// the reviewer keeps the candidate
	tb := candidate.Table(candidate.Backchannel, cs)
	keep := tb.Index(candidate.ColKeep)
	require.GreaterOrEqual(t, keep, 0)
	tb.Rows[0][keep] = "yes"

	rows, err := decision.ParseBackchannels(tb, decision.DefaultOptions())
	require.NoError(t, err)

	out, _, err := New().Apply(c, rows)
	require.NoError(t, err)
	assert.Equal(t, "Backchannel=d.1::3", miscOf(t, out, "d.2"))

	s := diffcheck.Compare("merged", src, out.Bytes(), diffcheck.DefaultOptions())
	assert.True(t, s.Pass)
	assert.Equal(t, 1, s.Counts[diffcheck.SanctionedAddition])
	assert.Equal(t, map[string]int{candidate.KeyBackchannel: 1}, s.Added)
}
