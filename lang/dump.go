package lang

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/goccy/go-yaml"
)

// outline is the diagnostic view of a tag.
type outline struct {
	Name  string    `yaml:"tag"`
	Line  int       `yaml:"line,omitempty"`
	Attrs []string  `yaml:"attrs,omitempty"`
	Text  string    `yaml:"text,omitempty"`
	Body  []outline `yaml:"body,omitempty"`
}

// DumpFormat selects the output of [Template.Dump].
type DumpFormat int

const (
	DumpText DumpFormat = iota
	DumpYAML
)

// ParseDumpFormat returns the format named s, defaulting to DumpText.
func ParseDumpFormat(s string) DumpFormat {
	if strings.EqualFold(s, "yaml") {
		return DumpYAML
	}

	return DumpText
}

type dumpConfig struct {
	format DumpFormat
	color  bool
	indent int
}

// DumpOption configures [Template.Dump].
type DumpOption func(dumpConfig) dumpConfig

// WithDumpFormat selects the output format.
func WithDumpFormat(f DumpFormat) DumpOption {
	return func(c dumpConfig) dumpConfig {
		c.format = f

		return c
	}
}

// WithColor enables styled text output.
func WithColor(enable bool) DumpOption {
	return func(c dumpConfig) dumpConfig {
		c.color = enable

		return c
	}
}

// WithIndent sets the indent width of nested tags.
func WithIndent(n int) DumpOption {
	return func(c dumpConfig) dumpConfig {
		if n > 0 {
			c.indent = n
		}

		return c
	}
}

// Dump writes the parse tree of t to w.
func (t *Template) Dump(w io.Writer, opts ...DumpOption) error {
	cfg := dumpConfig{format: DumpText, indent: 2}
	for _, opt := range opts {
		cfg = opt(cfg)
	}

	if cfg.format == DumpYAML {
		doc := struct {
			Template string    `yaml:"template"`
			Open     string    `yaml:"openingDelimiter"`
			Close    string    `yaml:"closingDelimiter"`
			Body     []outline `yaml:"body"`
		}{t.Name, t.Header.Open, t.Header.Close, t.Body.outlines()}

		return yaml.NewEncoder(w, yaml.Indent(cfg.indent)).Encode(doc)
	}

	d := newDumper(w, cfg)

	d.printf("%s %s\n", d.style(d.head, t.Name),
		d.style(d.faint, t.Header.Open+" "+t.Header.Close))

	for _, o := range t.Body.outlines() {
		d.outline(o, 1)
	}

	return d.err
}

type dumper struct {
	w     io.Writer
	cfg   dumpConfig
	err   error
	head  lipgloss.Style
	tag   lipgloss.Style
	attr  lipgloss.Style
	text  lipgloss.Style
	faint lipgloss.Style
}

func newDumper(w io.Writer, cfg dumpConfig) *dumper {
	r := lipgloss.NewRenderer(w)

	return &dumper{
		w:     w,
		cfg:   cfg,
		head:  r.NewStyle().Bold(true).Underline(true),
		tag:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		attr:  r.NewStyle().Foreground(lipgloss.Color("11")),
		text:  r.NewStyle().Foreground(lipgloss.Color("10")),
		faint: r.NewStyle().Faint(true),
	}
}

func (d *dumper) style(s lipgloss.Style, text string) string {
	if !d.cfg.color {
		return text
	}

	return s.Render(text)
}

func (d *dumper) printf(format string, args ...any) {
	if d.err == nil {
		_, d.err = fmt.Fprintf(d.w, format, args...)
	}
}

func (d *dumper) outline(o outline, depth int) {
	var b strings.Builder

	b.WriteString(strings.Repeat(" ", depth*d.cfg.indent))

	if o.Name == "literal" {
		b.WriteString(d.style(d.text, strconv.Quote(o.Text)))
	} else {
		b.WriteString(d.style(d.tag, o.Name))

		for _, a := range o.Attrs {
			b.WriteString(" " + d.style(d.attr, a))
		}
	}

	if o.Line > 0 {
		b.WriteString(" " + d.style(d.faint, "@"+strconv.Itoa(o.Line)))
	}

	d.printf("%s\n", b.String())

	for _, child := range o.Body {
		d.outline(child, depth+1)
	}
}
