package render

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/revelaction/dialmark/candidate"
	"github.com/revelaction/dialmark/corpus"
	"github.com/revelaction/dialmark/diffcheck"
	"github.com/revelaction/dialmark/stat"
)

var (
	Red       = "\033[1;31m"
	Green     = "\033[1;32m"
	Teal      = "\033[1;36m"
	Off       = "\033[0m"
	Yellow256 = "\033[1;38;5;130m"
	Grey256   = "\033[1;38;5;145m"
	Green256  = "\033[1;38;5;70m"
)

func SupportedFormats() []string {
	return []string{"text", "json", "yaml"}
}

// ReportRenderer writes the results of the commands in one output format.
type ReportRenderer interface {
	Candidates(cs []candidate.Candidate) error
	Report(r diffcheck.Report) error
	Stats(st stat.Stats) error
}

// New returns the renderer for format. color applies to text only.
func New(format string, w io.Writer, color bool) (ReportRenderer, error) {
	switch format {
	case "", "text":
		r := NewRenderer()
		r.Out = w
		r.HasColor = color
		return r, nil
	case "json":
		return NewJSONRenderer(w), nil
	case "yaml":
		return NewYAMLRenderer(w), nil
	}
	return nil, fmt.Errorf("unknown format %q, allowed values are %s", format, strings.Join(SupportedFormats(), ", "))
}

// Renderer writes human readable text.
type Renderer struct {
	HasColor bool

	HasPrefix bool

	Out io.Writer
}

var _ ReportRenderer = (*Renderer)(nil)

func NewRenderer() *Renderer {
	return &Renderer{HasPrefix: true, Out: os.Stdout}
}

// Sentence prints the speaker and the words of s on one line.
func (r *Renderer) Sentence(s *corpus.Sentence, prefix string) {
	fmt.Fprintf(r.Out, "%s%s\n", prefix, r.SentenceString(s))
}

// SentenceString returns the speaker and the words of s. Tokens whose id is
// in highlight are coloured.
func (r *Renderer) SentenceString(s *corpus.Sentence, highlight ...int) string {
	speaker := s.Speaker
	if speaker == "" {
		speaker = "?"
	}
	if r.HasColor {
		speaker = Teal + speaker + Off
	}

	return speaker + ": " + r.words(s, highlight)
}

// words rebuilds the surface text from the forms, honouring SpaceAfter=No.
// Without tokens the text comment is used.
func (r *Renderer) words(s *corpus.Sentence, highlight []int) string {
	if len(s.Tokens) == 0 {
		return s.Text
	}

	var str strings.Builder
	for i, t := range s.Tokens {
		if r.HasColor && slices.Contains(highlight, t.Id) {
			str.WriteString(Green256 + t.Form + Off)
		} else {
			str.WriteString(t.Form)
		}

		if i == len(s.Tokens)-1 {
			break
		}
		if v, ok := t.Misc.Get("SpaceAfter"); ok && v == "No" {
			continue
		}
		str.WriteString(" ")
	}
	return str.String()
}

// Tokens prints the token table of s.
func (r *Renderer) Tokens(s *corpus.Sentence) {
	for _, t := range s.Tokens {
		head := "_"
		if t.Head != corpus.NoHead {
			head = strconv.Itoa(t.Head)
		}

		line := fmt.Sprintf("%3d  %-16s %-16s %-6s %3s  %-14s %s", t.Id, t.Form, t.Lemma, t.UPOS, head, t.Deprel, t.Misc)
		if r.HasColor && (t.Head == 0 || t.Deprel == "root") {
			line = Green256 + line + Off
		}
		fmt.Fprintln(r.Out, line)
	}
}

// Candidates prints one line per candidate, coloured by confidence.
func (r *Renderer) Candidates(cs []candidate.Candidate) error {
	for _, c := range cs {
		var prefix string
		if r.HasPrefix {
			prefix = r.colorConfidence(c.Confidence, fmt.Sprintf("[%-6s %3d] ", c.Confidence, c.Score))
			prefix += fmt.Sprintf("%s → %s  ", c.A.SentID, c.B.SentID)
		}

		_, err := fmt.Fprintf(r.Out, "%s%s: %s ✍  %s\n", prefix, c.B.Speaker, c.B.Text, strings.Join(c.Reasons, "; "))
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) colorConfidence(c candidate.Confidence, s string) string {
	if !r.HasColor {
		return s
	}

	switch c {
	case candidate.High:
		return Green256 + s + Off
	case candidate.Medium:
		return Yellow256 + s + Off
	}
	return Grey256 + s + Off
}

// Report prints a diffcheck report: overall status first, then one
// section per compared pair.
func (r *Renderer) Report(rep diffcheck.Report) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Overall status: %s\n", r.status(rep.Pass))
	if rep.RunID != "" {
		fmt.Fprintf(&b, "Run: %s\n", rep.RunID)
	}

	for _, s := range rep.Sections {
		fmt.Fprintf(&b, "[%s]\n", s.Name)
		fmt.Fprintf(&b, "- src: %s\n", s.Src)
		fmt.Fprintf(&b, "- out: %s\n", s.Out)
		fmt.Fprintf(&b, "- line counts src/out: %d/%d\n", s.SrcLines, s.OutLines)
		fmt.Fprintf(&b, "- sentence counts src/out: %d/%d\n", s.SrcSentences, s.OutSentences)
		fmt.Fprintf(&b, "- sent_id sequence identical: %t\n", s.SentIDsIdentical)
		fmt.Fprintf(&b, "- total diff lines: %d\n", s.DiffLines)
		fmt.Fprintf(&b, "- misc-only changes: %d\n", s.Counts[diffcheck.SanctionedAddition]+s.Counts[diffcheck.MiscOtherChange])
		for _, k := range addedKeys(s.Added) {
			fmt.Fprintf(&b, "- added %s lines: %d\n", k, s.Added[k])
		}
		fmt.Fprintf(&b, "- unexpected changes: %d\n", s.Unexpected())
		for _, c := range diffcheck.Unsanctioned {
			if n := s.Counts[c]; n > 0 {
				fmt.Fprintf(&b, "  - %s: %d\n", c, n)
			}
		}
		fmt.Fprintf(&b, "- status: %s\n", r.status(s.Pass))

		if len(s.Samples) > 0 {
			b.WriteString("- unexpected samples:\n")
			for _, sm := range s.Samples {
				fmt.Fprintf(&b, "  - line %d [%s]\n", sm.Line, sm.Category)
				fmt.Fprintf(&b, "    src: %s\n", sm.Src)
				fmt.Fprintf(&b, "    out: %s\n", sm.Out)
			}
		}
		b.WriteString("\n")
	}

	_, err := io.WriteString(r.Out, b.String())
	return err
}

// addedKeys returns the merger keys, always listed, followed by any other
// added key in name order.
func addedKeys(added map[string]int) []string {
	keys := []string{candidate.KeyBackchannel, candidate.KeyCoconstruct}
	var rest []string
	for k := range added {
		if !slices.Contains(keys, k) {
			rest = append(rest, k)
		}
	}
	slices.Sort(rest)
	return append(keys, rest...)
}

func (r *Renderer) status(pass bool) string {
	switch {
	case pass && r.HasColor:
		return Green + "PASS" + Off
	case pass:
		return "PASS"
	case r.HasColor:
		return Red + "FAIL" + Off
	}
	return "FAIL"
}

// Stats prints corpus counts and the sentence length distribution.
func (r *Renderer) Stats(st stat.Stats) error {
	var b strings.Builder
	fmt.Fprintf(&b, "📖 documents:        %d\n", st.NumDocuments)
	fmt.Fprintf(&b, "✍  sentences:        %d\n", st.NumSentences)
	fmt.Fprintf(&b, "   tokens:           %d\n", st.NumTokens)
	fmt.Fprintf(&b, "   speakers:         %d\n", st.NumSpeakers)
	fmt.Fprintf(&b, "   tokens/sentence:  %d\n", st.TokensPerSentenceMean)
	fmt.Fprintf(&b, "   no root:          %d\n", st.NoRoot)
	fmt.Fprintf(&b, "   multiple roots:   %d\n", st.MultipleRoots)
	fmt.Fprintf(&b, "🏷  %s:      %d\n", candidate.KeyBackchannel, st.Backchannels)
	fmt.Fprintf(&b, "🏷  %s:      %d\n", candidate.KeyCoconstruct, st.Coconstructions)

	lengths := make([]int, 0, len(st.TokensPerSentenceDis))
	for l := range st.TokensPerSentenceDis {
		lengths = append(lengths, l)
	}
	slices.Sort(lengths)
	for _, l := range lengths {
		fmt.Fprintf(&b, "[%3d tokens] %d\n", l, st.TokensPerSentenceDis[l])
	}

	_, err := io.WriteString(r.Out, b.String())
	return err
}
