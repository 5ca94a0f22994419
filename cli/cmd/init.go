package cmd

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"

	"github.com/oldgreydog/codegen/log"
	"github.com/oldgreydog/codegen/profile"
)

// defaultConfigIndent is the indent width of the generated file.
const defaultConfigIndent = 2

// Init writes the current flag values as YAML flag defaults.
type Init struct {
	Force bool `help:"Overwrite existing configuration file" short:"f"`
}

// Run executes the init command.
func (i *Init) Run(ctx context.Context) error {
	ktx := kongContextFrom(ctx)
	if ktx == nil {
		return ErrNoContext
	}

	confPath, ok := ktx.Model.Vars()[ConfigIdentifier]
	if !ok || confPath == "" {
		return ErrWriteConfig.With(slog.String("issue", "no configuration path"))
	}

	_, err := os.Stat(confPath)

	switch {
	case err == nil && !i.Force:
		return ErrWriteConfig.
			With(slog.String("file", confPath), slog.Bool("exists", true)).
			Wrap(ErrFileExists)
	case err != nil && !errors.Is(err, fs.ErrNotExist):
		return ErrWriteConfig.With(slog.String("file", confPath)).Wrap(err)
	}

	data, err := yaml.MarshalWithOptions(i.values(ktx), yaml.Indent(defaultConfigIndent))
	if err != nil {
		return ErrYAMLMarshal.Wrap(err)
	}

	if err := os.MkdirAll(filepath.Dir(confPath), 0o700); err != nil {
		return ErrWriteConfig.With(slog.String("file", confPath)).Wrap(err)
	}

	if err := os.WriteFile(confPath, data, 0o600); err != nil {
		return ErrWriteConfig.With(slog.String("file", confPath)).Wrap(err)
	}

	log.DebugContext(ctx, "initialized configuration file",
		slog.String("path", confPath),
	)

	return nil
}

// values collects the flags of every command in declaration order. Each
// name appears once.
func (i *Init) values(ktx *kong.Context) yaml.MapSlice {
	var (
		out  yaml.MapSlice
		seen = map[string]bool{}
	)

	ignore := []string{"help", "version", profile.Tag}

	var visit func(n *kong.Node)

	visit = func(n *kong.Node) {
		for _, flag := range n.Flags {
			if flag.Hidden || seen[flag.Name] ||
				slices.ContainsFunc(ignore, func(s string) bool {
					return strings.HasPrefix(flag.Name, s)
				}) {
				continue
			}

			seen[flag.Name] = true

			if v, ok := flagValue(ktx, flag); ok {
				out = append(out, yaml.MapItem{Key: flag.Name, Value: v})
			}
		}

		for _, child := range n.Children {
			visit(child)
		}
	}

	visit(ktx.Model.Node)

	return out
}

// flagValue returns the value of flag, or false if it is unset or empty.
func flagValue(ktx *kong.Context, flag *kong.Flag) (any, bool) {
	switch v := ktx.FlagValue(flag).(type) {
	case nil:
		return nil, false
	case string:
		return v, v != ""
	case []string:
		return v, len(v) > 0
	default:
		return v, true
	}
}
