package lang

import (
	"bytes"
	"strings"
)

// cursor is an output buffer that knows where its current line begins.
type cursor struct {
	buf       bytes.Buffer
	lineStart int
}

func (c *cursor) WriteString(s string) {
	c.buf.WriteString(s)

	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		c.lineStart = c.buf.Len() - len(s) + i + 1
	}
}

func (c *cursor) String() string { return c.buf.String() }

func (c *cursor) Bytes() []byte { return c.buf.Bytes() }

// Line returns the text written since the last newline.
func (c *cursor) Line() string { return string(c.buf.Bytes()[c.lineStart:]) }

// Indent returns the leading whitespace of the current line.
func (c *cursor) Indent() string {
	line := c.Line()

	return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
}
