package render

import (
	"encoding/json"
	"io"

	"github.com/revelaction/dialmark/candidate"
	"github.com/revelaction/dialmark/diffcheck"
	"github.com/revelaction/dialmark/stat"
)

// JSONRenderer writes results as indented JSON to a writer.
type JSONRenderer struct {
	W io.Writer
}

// NewJSONRenderer creates a JSONRenderer writing to w.
func NewJSONRenderer(w io.Writer) *JSONRenderer {
	return &JSONRenderer{W: w}
}

// Candidates serializes the candidates as a JSON array, [] when empty.
func (r *JSONRenderer) Candidates(cs []candidate.Candidate) error {
	if cs == nil {
		cs = []candidate.Candidate{}
	}
	return r.encode(cs)
}

func (r *JSONRenderer) Report(rep diffcheck.Report) error {
	return r.encode(rep)
}

func (r *JSONRenderer) Stats(st stat.Stats) error {
	return r.encode(st)
}

func (r *JSONRenderer) encode(v any) error {
	enc := json.NewEncoder(r.W)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// compile-time interface check
var _ ReportRenderer = (*JSONRenderer)(nil)
