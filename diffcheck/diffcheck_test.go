package diffcheck

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const src = `# newdoc id = d
# sent_id = d.1
# speaker_id = spk1
# text = in potem smo šli domov.
1	in	in	CCONJ	_	_	3	cc	_	_
2	potem	potem	ADV	_	_	3	advmod	_	_
3	smo	biti	AUX	_	_	0	root	_	_
4	šli	iti	VERB	_	_	3	xcomp	_	_
5	domov	domov	ADV	_	_	4	advmod	_	SpaceAfter=No
6	.	.	PUNCT	_	_	3	punct	_	_

# sent_id = d.2
# speaker_id = spk2
# text = Mhm
1	Mhm	mhm	INTJ	_	_	0	discourse	_	_

`

func replaceLine(t *testing.T, s string, n int, line string) string {
	t.Helper()
	lines := strings.Split(s, "\n")
	require.Less(t, n-1, len(lines))
	lines[n-1] = line
	return strings.Join(lines, "\n")
}

func TestCompareIdentical(t *testing.T) {
	s := Compare("merged", []byte(src), []byte(src), DefaultOptions())
	assert.True(t, s.Pass)
	assert.True(t, s.SentIDsIdentical)
	assert.Zero(t, s.DiffLines)
	assert.Equal(t, 16, s.SrcLines)
	assert.Equal(t, 2, s.SrcSentences)
	assert.Empty(t, s.Samples)
}

func TestCompareSanctioned(t *testing.T) {
	out := replaceLine(t, src, 15, "1\tMhm\tmhm\tINTJ\t_\t_\t0\tdiscourse\t_\tBackchannel=d.1::3")
	out = replaceLine(t, out, 9, "5\tdomov\tdomov\tADV\t_\t_\t4\tadvmod\t_\tSpaceAfter=No|Coconstruct=obl::d.0::2")

	s := Compare("merged", []byte(src), []byte(out), DefaultOptions())
	assert.True(t, s.Pass)
	assert.Equal(t, 2, s.DiffLines)
	assert.Equal(t, 2, s.Counts[SanctionedAddition])
	assert.Equal(t, map[string]int{"Backchannel": 1, "Coconstruct": 1}, s.Added)
	assert.Zero(t, s.Unexpected())
	assert.Empty(t, s.Samples)
}

func TestCompareBothKeysOnOneLine(t *testing.T) {
	out := replaceLine(t, src, 15, "1\tMhm\tmhm\tINTJ\t_\t_\t0\tdiscourse\t_\tBackchannel=d.1::3|Coconstruct=conj::d.1::4")

	s := Compare("merged", []byte(src), []byte(out), DefaultOptions())
	assert.True(t, s.Pass)
	assert.Equal(t, 1, s.Counts[SanctionedAddition])
	assert.Equal(t, map[string]int{"Backchannel": 1, "Coconstruct": 1}, s.Added)
}

func TestCompareUnsanctioned(t *testing.T) {
	tests := []struct {
		name string
		line int
		text string
		cat  Category
	}{
		{"form changed", 15, "1\tMhmm\tmhm\tINTJ\t_\t_\t0\tdiscourse\t_\t_", TokenColsChanged},
		{"head changed", 8, "4\tšli\titi\tVERB\t_\t_\t1\txcomp\t_\t_", TokenColsChanged},
		{"other misc key", 15, "1\tMhm\tmhm\tINTJ\t_\t_\t0\tdiscourse\t_\tSpaceAfter=No", MiscOtherChange},
		{"misc key removed", 9, "5\tdomov\tdomov\tADV\t_\t_\t4\tadvmod\t_\t_", MiscOtherChange},
		{"sanctioned plus other", 9, "5\tdomov\tdomov\tADV\t_\t_\t4\tadvmod\t_\tSpaceAfter=Yes|Backchannel=d.0::1", MiscOtherChange},
		{"text comment", 4, "# text = in potem smo šli domov", MetaOrBlankChanged},
		{"blank filled", 11, "# note = x", MetaOrBlankChanged},
		{"column dropped", 10, "6\t.\t.\tPUNCT\t_\t_\t3\tpunct\t_", Non10ColTokenChanged},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := replaceLine(t, src, tt.line, tt.text)
			s := Compare("merged", []byte(src), []byte(out), DefaultOptions())
			assert.False(t, s.Pass)
			assert.Equal(t, 1, s.Counts[tt.cat])
			assert.Equal(t, 1, s.Unexpected())
			require.Len(t, s.Samples, 1)
			assert.Equal(t, tt.line, s.Samples[0].Line)
			assert.Equal(t, tt.cat, s.Samples[0].Category)
			assert.Equal(t, tt.text, s.Samples[0].Out)
		})
	}
}

func TestCompareReplacedAnnotation(t *testing.T) {
	annotated := replaceLine(t, src, 15, "1\tMhm\tmhm\tINTJ\t_\t_\t0\tdiscourse\t_\tBackchannel=d.1::3")
	changed := replaceLine(t, src, 15, "1\tMhm\tmhm\tINTJ\t_\t_\t0\tdiscourse\t_\tBackchannel=d.1::4")

	s := Compare("merged", []byte(annotated), []byte(changed), DefaultOptions())
	assert.False(t, s.Pass)
	assert.Equal(t, 1, s.Counts[MiscOtherChange])
}

func TestCompareSentIDs(t *testing.T) {
	out := replaceLine(t, src, 12, "# sent_id = d.3")
	s := Compare("merged", []byte(src), []byte(out), DefaultOptions())

	assert.False(t, s.Pass)
	assert.False(t, s.SentIDsIdentical)
	assert.Equal(t, 1, s.Counts[SentIDSequenceMismatch])
	assert.Equal(t, 1, s.Counts[MetaOrBlankChanged])
	assert.Equal(t, Sample{Line: 0, Category: SentIDSequenceMismatch, Src: "d.2", Out: "d.3"}, s.Samples[0])
}

func TestCompareLineCount(t *testing.T) {
	out := src + "# sent_id = d.3\n"
	s := Compare("merged", []byte(src), []byte(out), DefaultOptions())

	assert.False(t, s.Pass)
	assert.Equal(t, 1, s.Counts[LineCountMismatch])
	assert.Equal(t, 1, s.Counts[SentIDSequenceMismatch])
	assert.Equal(t, 3, s.OutSentences)
	assert.Equal(t, 17, s.OutLines)
}

func TestCompareMaxSamples(t *testing.T) {
	var a, b strings.Builder
	for i := range 20 {
		fmt.Fprintf(&a, "# sent_id = s%d\n1\tja\tja\tPART\t_\t_\t0\troot\t_\t_\n\n", i)
		fmt.Fprintf(&b, "# sent_id = s%d\n1\tja\tja\tINTJ\t_\t_\t0\troot\t_\t_\n\n", i)
	}

	s := Compare("merged", []byte(a.String()), []byte(b.String()), DefaultOptions())
	assert.Equal(t, 20, s.Counts[TokenColsChanged])
	assert.Len(t, s.Samples, DefaultMaxSamples)

	s = Compare("merged", []byte(a.String()), []byte(b.String()), Options{MaxSamples: 3})
	assert.Len(t, s.Samples, 3)
}

func TestCompareCRLF(t *testing.T) {
	crlf := strings.ReplaceAll(src, "\n", "\r\n")
	out := strings.Replace(crlf, "discourse\t_\t_", "discourse\t_\tBackchannel=d.1::3", 1)

	s := Compare("merged", []byte(crlf), []byte(out), DefaultOptions())
	assert.True(t, s.Pass)
	assert.Equal(t, 1, s.Counts[SanctionedAddition])

	// line endings changed
	s = Compare("merged", []byte(src), []byte(crlf), DefaultOptions())
	assert.False(t, s.Pass)
}

func TestCompareCustomKeys(t *testing.T) {
	out := replaceLine(t, src, 15, "1\tMhm\tmhm\tINTJ\t_\t_\t0\tdiscourse\t_\tBackchannel=d.1::3")
	s := Compare("merged", []byte(src), []byte(out), Options{SanctionedKeys: []string{"Coconstruct"}})
	assert.False(t, s.Pass)
	assert.Equal(t, 1, s.Counts[MiscOtherChange])
}

// Any change to one of the first nine columns of any token line is
// reported.
func TestCompareTokenColumnsSoundness(t *testing.T) {
	lines := strings.Split(src, "\n")
	for n, l := range lines {
		cols := strings.Split(l, "\t")
		if len(cols) != 10 {
			continue
		}
		for c := range 9 {
			mutated := append([]string(nil), cols...)
			mutated[c] += "x"
			out := replaceLine(t, src, n+1, strings.Join(mutated, "\t"))

			s := Compare("merged", []byte(src), []byte(out), DefaultOptions())
			assert.False(t, s.Pass, "line %d column %d", n+1, c)
			assert.Equal(t, 1, s.Counts[TokenColsChanged], "line %d column %d", n+1, c)
		}
	}
}

func TestCompareFiles(t *testing.T) {
	dir := t.TempDir()
	write := func(name, data string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(data), 0o644))
		return p
	}

	annotated := replaceLine(t, src, 15, "1\tMhm\tmhm\tINTJ\t_\t_\t0\tdiscourse\t_\tBackchannel=d.1::3")
	broken := replaceLine(t, src, 15, "1\tMhm\tmhm\tX\t_\t_\t0\tdiscourse\t_\t_")

	pairs := []Pair{
		{Name: "merged", Src: write("src.conllu", src), Out: write("out.conllu", annotated)},
		{Name: "train", Src: write("train.conllu", src), Out: write("train.out.conllu", src)},
	}
	r, err := CompareFiles(pairs, DefaultOptions())
	require.NoError(t, err)
	assert.True(t, r.Pass)
	require.Len(t, r.Sections, 2)
	assert.Equal(t, pairs[0].Src, r.Sections[0].Src)

	pairs = append(pairs, Pair{Name: "dev", Src: write("dev.conllu", src), Out: write("dev.out.conllu", broken)})
	r, err = CompareFiles(pairs, DefaultOptions())
	require.NoError(t, err)
	assert.False(t, r.Pass)
	assert.True(t, r.Sections[0].Pass)
	assert.False(t, r.Sections[2].Pass)

	_, err = CompareFiles([]Pair{{Name: "x", Src: filepath.Join(dir, "missing"), Out: pairs[0].Out}}, DefaultOptions())
	assert.Error(t, err)
}
