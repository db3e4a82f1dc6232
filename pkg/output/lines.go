package output

import (
	"bufio"
	"fmt"
	"io"
	"time"

	"github.com/bytedance/sonic"

	"github.com/ccollicutt/bilog/pkg/parser"
)

// LineWriter streams the lines found by a search.
type LineWriter interface {
	WriteLine(line *parser.ParsedLine) error
	Flush() error
}

// NewLineWriter returns a LineWriter for the named format. Text writes
// lines verbatim; json writes one object per line.
func NewLineWriter(name string, w io.Writer) (LineWriter, error) {
	bw := bufio.NewWriter(w)
	switch name {
	case "text", "":
		return &textLines{w: bw}, nil
	case "json":
		return &jsonLines{w: bw}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q (must be text or json)", name)
	}
}

type textLines struct {
	w *bufio.Writer
}

func (t *textLines) WriteLine(line *parser.ParsedLine) error {
	if _, err := t.w.WriteString(line.Raw); err != nil {
		return err
	}
	return t.w.WriteByte('\n')
}

func (t *textLines) Flush() error {
	return t.w.Flush()
}

// jsonLine is the wire form of a line in json output.
type jsonLine struct {
	Offset    int64      `json:"offset"`
	LineNum   int        `json:"line_num"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
	Line      string     `json:"line"`
}

type jsonLines struct {
	w *bufio.Writer
}

func (j *jsonLines) WriteLine(line *parser.ParsedLine) error {
	out := jsonLine{Offset: line.Offset, LineNum: line.LineNum, Line: line.Raw}
	if line.HasTimestamp {
		ts := line.Timestamp
		out.Timestamp = &ts
	}
	data, err := sonic.Marshal(out)
	if err != nil {
		return err
	}
	if _, err := j.w.Write(data); err != nil {
		return err
	}
	return j.w.WriteByte('\n')
}

func (j *jsonLines) Flush() error {
	return j.w.Flush()
}
