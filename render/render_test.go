package render

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/revelaction/dialmark/candidate"
	ct "github.com/revelaction/dialmark/corpus/corpustest"
	"github.com/revelaction/dialmark/diffcheck"
	"github.com/revelaction/dialmark/stat"
)

var bcCandidate = candidate.Candidate{
	Kind:       candidate.Backchannel,
	Doc:        "d",
	A:          candidate.Ref{SentID: "d.1", Speaker: "spk1", Text: "in potem smo šli domov."},
	B:          candidate.Ref{SentID: "d.2", Speaker: "spk2", Text: "Mhm"},
	Confidence: candidate.High,
	Score:      85,
	Flags:      candidate.ImmediateContinuation | candidate.DiscourseRelation,
	Reasons:    []string{"A continues right after B"},
	BTokens:    []string{"Mhm"},
	Length:     1,
	Attach:     "d.1::3",
}

func newText() (*Renderer, *bytes.Buffer) {
	var buf bytes.Buffer
	r := NewRenderer()
	r.Out = &buf
	return r, &buf
}

func TestSentenceString(t *testing.T) {
	c := ct.Parse(t, ct.Doc{ID: "d", Utts: []ct.Utt{
		ct.U("d.1", "spk1", "in potem smo šli domov.",
			"in CCONJ 3 cc", "potem ADV 3 advmod", "smo AUX 0 root", "šli VERB 3 xcomp",
			"domov ADV 4 advmod domov SpaceAfter=No", ". PUNCT 3 punct"),
	}})
	s := c.Sentences[0]

	r, buf := newText()
	assert.Equal(t, "spk1: in potem smo šli domov.", r.SentenceString(s))

	r.Sentence(s, "✍  0 ")
	assert.Equal(t, "✍  0 spk1: in potem smo šli domov.\n", buf.String())

	r.HasColor = true
	colored := r.SentenceString(s, 3)
	assert.Contains(t, colored, Green256+"smo"+Off)
	assert.NotContains(t, colored, Green256+"potem")
}

func TestTokens(t *testing.T) {
	c := ct.Parse(t, ct.Doc{Utts: []ct.Utt{
		ct.U("d.2", "spk2", "Mhm", "Mhm INTJ 0 discourse mhm Backchannel=d.1::3"),
	}})

	r, buf := newText()
	r.Tokens(c.Sentences[0])

	fields := strings.Fields(buf.String())
	assert.Equal(t, []string{"1", "Mhm", "mhm", "INTJ", "0", "discourse", "Backchannel=d.1::3"}, fields)
}

func TestCandidates(t *testing.T) {
	r, buf := newText()
	require.NoError(t, r.Candidates([]candidate.Candidate{bcCandidate}))
	assert.Equal(t, "[HIGH    85] d.1 → d.2  spk2: Mhm ✍  A continues right after B\n", buf.String())

	r, buf = newText()
	r.HasPrefix = false
	require.NoError(t, r.Candidates([]candidate.Candidate{bcCandidate}))
	assert.Equal(t, "spk2: Mhm ✍  A continues right after B\n", buf.String())
}

func report() diffcheck.Report {
	pass := diffcheck.Compare("merged", []byte("# sent_id = a\n1\tja\tja\tPART\t_\t_\t0\troot\t_\t_\n\n"),
		[]byte("# sent_id = a\n1\tja\tja\tPART\t_\t_\t0\troot\t_\tBackchannel=b::1\n\n"), diffcheck.DefaultOptions())
	pass.Src, pass.Out = "src.conllu", "out.conllu"

	fail := diffcheck.Compare("train", []byte("# sent_id = a\n1\tja\tja\tPART\t_\t_\t0\troot\t_\t_\n\n"),
		[]byte("# sent_id = a\n1\tja\tja\tINTJ\t_\t_\t0\troot\t_\t_\n\n"), diffcheck.DefaultOptions())

	return diffcheck.Report{RunID: "run-1", Sections: []diffcheck.Section{pass, fail}}
}

func TestReport(t *testing.T) {
	r, buf := newText()
	require.NoError(t, r.Report(report()))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "Overall status: FAIL\nRun: run-1\n[merged]\n"))
	assert.Contains(t, out, "- src: src.conllu\n")
	assert.Contains(t, out, "- line counts src/out: 3/3\n")
	assert.Contains(t, out, "- sent_id sequence identical: true\n")
	assert.Contains(t, out, "- misc-only changes: 1\n")
	assert.Contains(t, out, "- added Backchannel lines: 1\n")
	assert.Contains(t, out, "- added Coconstruct lines: 0\n")
	assert.Contains(t, out, "- status: PASS\n")
	assert.Contains(t, out, "  - token_cols_0_8_changed: 1\n")
	assert.Contains(t, out, "- unexpected samples:\n  - line 2 [token_cols_0_8_changed]\n")
	assert.Contains(t, out, "    out: 1\tja\tja\tINTJ\t_\t_\t0\troot\t_\t_\n")
}

func TestStats(t *testing.T) {
	r, buf := newText()
	require.NoError(t, r.Stats(stat.Stats{
		NumDocuments:         1,
		NumSentences:         3,
		TokensPerSentenceDis: map[int]int{4: 1, 1: 2},
	}))

	out := buf.String()
	assert.Contains(t, out, "documents:        1\n")
	assert.Less(t, strings.Index(out, "[  1 tokens] 2"), strings.Index(out, "[  4 tokens] 1"))
}

func TestNew(t *testing.T) {
	for _, f := range SupportedFormats() {
		_, err := New(f, &bytes.Buffer{}, false)
		assert.NoError(t, err, f)
	}

	_, err := New("xml", &bytes.Buffer{}, false)
	assert.ErrorContains(t, err, "text, json, yaml")
}

func TestJSONRenderer(t *testing.T) {
	var buf bytes.Buffer
	r := NewJSONRenderer(&buf)
	require.NoError(t, r.Candidates(nil))
	assert.Equal(t, "[]\n", buf.String())

	buf.Reset()
	require.NoError(t, r.Candidates([]candidate.Candidate{bcCandidate}))

	var got []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "backchannel", got[0]["kind"])
	assert.Equal(t, "HIGH", got[0]["confidence"])
	assert.Equal(t, []any{"immediate_continuation", "discourse_relation"}, got[0]["flags"])
	assert.Equal(t, "d.1::3", got[0]["attach"])

	buf.Reset()
	require.NoError(t, r.Report(report()))
	var rep map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rep))
	assert.Equal(t, false, rep["pass"])
	assert.Len(t, rep["sections"], 2)
}

func TestYAMLRenderer(t *testing.T) {
	var buf bytes.Buffer
	r := NewYAMLRenderer(&buf)
	require.NoError(t, r.Candidates([]candidate.Candidate{bcCandidate}))

	var got []map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "HIGH", got[0]["confidence"])
	assert.Equal(t, []any{"immediate_continuation", "discourse_relation"}, got[0]["flags"])

	buf.Reset()
	require.NoError(t, r.Stats(stat.Stats{NumSentences: 3, TokensPerSentenceDis: map[int]int{1: 3}}))
	assert.Contains(t, buf.String(), "sentences: 3\n")
}
