package corpus

import (
	"fmt"
	"io"
	"os"

	"github.com/revelaction/dialmark/file"
)

// ReadFile parses the CoNLL-U file at path.
func ReadFile(path string) (*Corpus, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	c, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return c, nil
}

// WriteFile writes the corpus to path atomically.
func (c *Corpus) WriteFile(path string) error {
	return file.Write(path, func(w io.Writer) error {
		_, err := c.WriteTo(w)
		return err
	})
}
