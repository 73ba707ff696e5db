package render

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/revelaction/dialmark/candidate"
	"github.com/revelaction/dialmark/diffcheck"
	"github.com/revelaction/dialmark/stat"
)

// YAMLRenderer writes results as YAML documents.
type YAMLRenderer struct {
	W io.Writer
}

func NewYAMLRenderer(w io.Writer) *YAMLRenderer {
	return &YAMLRenderer{W: w}
}

func (r *YAMLRenderer) Candidates(cs []candidate.Candidate) error {
	if cs == nil {
		cs = []candidate.Candidate{}
	}
	return r.encode(cs)
}

func (r *YAMLRenderer) Report(rep diffcheck.Report) error {
	return r.encode(rep)
}

func (r *YAMLRenderer) Stats(st stat.Stats) error {
	return r.encode(st)
}

func (r *YAMLRenderer) encode(v any) error {
	enc := yaml.NewEncoder(r.W)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

var _ ReportRenderer = (*YAMLRenderer)(nil)
