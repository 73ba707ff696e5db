package filesystem

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/revelaction/dialmark/storage"
)

func TestDetectDelimiter(t *testing.T) {
	tests := []struct {
		name string
		data string
		want rune
	}{
		{"semicolon", "A;B;keep?\nd.1;d.2;yes\n", ';'},
		{"comma", "A,B,keep?\nd.1,d.2,yes\n", ','},
		{"tie", "A;B,C\n", ';'},
		{"none", "A\n", ';'},
		{"comma in quoted text", "A;B;text\nd.1;d.2;\"ja, ja\"\n", ';'},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectDelimiter([]byte(tt.data)))
		})
	}
}

func TestParseCSV(t *testing.T) {
	data := "\ufeffA;B;keep?\nd.1;d.2;yes\n\nd.3;d.4\n"

	tb, err := ParseCSV([]byte(data), 0)
	require.NoError(t, err)

	want := storage.Table{
		Header: []string{"A", "B", "keep?"},
		Rows: [][]string{
			{"d.1", "d.2", "yes"},
			{"d.3", "d.4"},
		},
	}
	if diff := cmp.Diff(want, tb); diff != "" {
		t.Errorf("table mismatch (-want +got):\n%s", diff)
	}

	// an explicit delimiter wins over detection
	tb, err = ParseCSV([]byte("A,B;C\n1,2;3\n"), ',')
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B;C"}, tb.Header)

	tb, err = ParseCSV(nil, 0)
	require.NoError(t, err)
	assert.Empty(t, tb.Header)
}

func TestTableStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "review", "backchannels.csv")
	ts := NewTableStore(path)

	in := storage.Table{
		Header: []string{"A", "B", "B_text", "keep?"},
		Rows: [][]string{
			{"d.1", "d.2", "ja, ja", ""},
			{"d.5", "d.6", `rekla je "mhm"`, ""},
		},
	}
	require.NoError(t, ts.WriteTable("backchannel_candidates", in))

	out, err := ts.ReadTable("")
	require.NoError(t, err)
	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	ts.Delimiter = ';'
	require.NoError(t, ts.WriteTable("", in))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "A;B;B_text;keep?\n")

	ts.Delimiter = 0
	out, err = ts.ReadTable("")
	require.NoError(t, err)
	assert.Equal(t, in.Rows, out.Rows)
}

func TestTableStoreMissing(t *testing.T) {
	_, err := NewTableStore(filepath.Join(t.TempDir(), "none.csv")).ReadTable("")
	assert.ErrorIs(t, err, os.ErrNotExist)
}
