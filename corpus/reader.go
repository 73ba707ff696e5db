package corpus

import (
	"bufio"
	"io"
	"strings"
)

// Line is a raw line of a CoNLL-U file. Text carries no line terminator;
// EOL is "\n", "\r\n" or empty for a final unterminated line.
type Line struct {
	Num  int
	Text string
	EOL  string
}

// Blank reports whether the line separates sentences.
func (l Line) Blank() bool {
	return strings.TrimSpace(l.Text) == ""
}

// Block is one sentence block: its comment and token lines followed by the
// blank lines that closed it. A block with no Lines only holds blank lines
// found before the first sentence.
type Block struct {
	Lines []Line
	Sep   []Line
}

// Reader yields the sentence blocks of a CoNLL-U stream one at a time.
type Reader struct {
	br      *bufio.Reader
	num     int
	pending *Line
	done    bool
}

func NewReader(r io.Reader) *Reader {
	return &Reader{br: bufio.NewReader(r)}
}

// Next returns the next block, or io.EOF when the stream is exhausted.
func (r *Reader) Next() (*Block, error) {
	b := &Block{}

	for {
		l, err := r.line()
		if err == io.EOF {
			if len(b.Lines) == 0 && len(b.Sep) == 0 {
				return nil, io.EOF
			}
			return b, nil
		}
		if err != nil {
			return nil, err
		}

		if l.Blank() {
			b.Sep = append(b.Sep, l)
			continue
		}

		// a content line after the separator starts the next block
		if len(b.Sep) > 0 {
			r.pending = &l
			return b, nil
		}

		b.Lines = append(b.Lines, l)
	}
}

func (r *Reader) line() (Line, error) {
	if r.pending != nil {
		l := *r.pending
		r.pending = nil
		return l, nil
	}

	if r.done {
		return Line{}, io.EOF
	}

	s, err := r.br.ReadString('\n')
	if err != nil && err != io.EOF {
		return Line{}, err
	}
	if err == io.EOF {
		r.done = true
		if s == "" {
			return Line{}, io.EOF
		}
	}

	r.num++
	l := Line{Num: r.num, Text: s}
	switch {
	case strings.HasSuffix(s, "\r\n"):
		l.Text, l.EOL = s[:len(s)-2], "\r\n"
	case strings.HasSuffix(s, "\n"):
		l.Text, l.EOL = s[:len(s)-1], "\n"
	}

	return l, nil
}
