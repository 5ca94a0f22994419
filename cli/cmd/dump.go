package cmd

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/oldgreydog/codegen/lang"
	"github.com/oldgreydog/codegen/log"
)

// Dump prints the parse tree of a template without evaluating it.
type Dump struct {
	Template string `arg:"" help:"Template to parse" type:"existingfile"`

	Format string `default:"text" enum:"text,yaml" help:"Output format"                   short:"f"`
	Color  bool   `default:"false"                  help:"Colorize text output" negatable:""`
	Indent int    `default:"2"                      help:"Indent width of nested tags"`
	Output string `default:"-"                      help:"Destination file ('-' for stdout)" short:"o"`

	stdout io.Writer
}

// Run executes the dump command.
func (d *Dump) Run(ctx context.Context) error {
	data, err := os.ReadFile(d.Template)
	if err != nil {
		return ErrReadInput.With(slog.String("file", d.Template)).Wrap(err)
	}

	tmpl, err := lang.Parse(d.Template, data)
	if err != nil {
		return err
	}

	var buf bytes.Buffer

	err = tmpl.Dump(&buf,
		lang.WithDumpFormat(lang.ParseDumpFormat(d.Format)),
		lang.WithColor(d.Color),
		lang.WithIndent(d.Indent),
	)
	if err != nil {
		return ErrWriteOutput.With(slog.String("format", d.Format)).Wrap(err)
	}

	log.DebugContext(ctx, "dumped template",
		slog.String("template", d.Template),
		slog.Int("tags", len(tmpl.Body)),
	)

	return emit(d.Output, buf.Bytes(), d.stdout)
}
