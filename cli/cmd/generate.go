package cmd

import (
	"bytes"
	"context"
	"io"
	"log/slog"

	"github.com/oldgreydog/codegen/config"
	"github.com/oldgreydog/codegen/lang"
	"github.com/oldgreydog/codegen/log"
)

// Generate renders a template against a configuration tree.
type Generate struct {
	Config    string `arg:"" help:"Configuration file (.yaml, .yml, .json or .hcl)"    type:"existingfile"`
	Template  string `arg:"" help:"Root template"                                       type:"existingfile"`
	Variables string `arg:"" help:"Variables file merged into the configuration root" optional:"" type:"existingfile"`

	Workers     int    `default:"1" help:"Files rendered concurrently; 0 uses one per CPU"     short:"w"`
	Output      string `default:"-" help:"Destination of the root template's own output"       short:"o"`
	TemplateDir string `            help:"Base for relative template names (default: template's dir)" type:"path"`
	DestDir     string `            help:"Base for relative output file paths"                        type:"path"`

	stdout io.Writer
}

// Run executes the generate command.
func (g *Generate) Run(ctx context.Context) error {
	logger := log.Default()

	root, err := config.Load(ctx, g.Config, logger)
	if err != nil {
		return err
	}

	if g.Variables != "" {
		vars, err := config.Load(ctx, g.Variables, logger)
		if err != nil {
			return err
		}

		config.Merge(root, vars)
	}

	var buf bytes.Buffer

	gen := lang.New(
		lang.WithWorkers(g.Workers),
		lang.WithLogger(logger),
		lang.WithOutput(&buf),
		lang.WithTemplateDir(g.TemplateDir),
		lang.WithDestDir(g.DestDir),
	)

	res, err := gen.Generate(ctx, root, g.Template)
	if err != nil {
		return err
	}

	logger.DebugContext(ctx, "generate finished",
		slog.String("template", g.Template),
		slog.Int("files", len(res.Files)),
	)

	if buf.Len() == 0 {
		return nil
	}

	return emit(g.Output, buf.Bytes(), g.stdout)
}
