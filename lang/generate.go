package lang

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/oldgreydog/codegen/config"
	"github.com/oldgreydog/codegen/log"
	"github.com/oldgreydog/codegen/sched"
	"github.com/oldgreydog/codegen/typemap"
)

// Generator renders a root template against a configuration tree.
type Generator struct {
	workers     int
	logger      log.Logger
	output      io.Writer
	templateDir string
	destDir     string
}

// Option configures a Generator.
type Option func(*Generator)

// WithWorkers sets the number of goroutines rendering file tags. With one
// worker, the default, files are rendered in template order on the calling
// goroutine. A value below one uses one worker per CPU.
func WithWorkers(n int) Option {
	return func(g *Generator) { g.workers = n }
}

// WithLogger sets the logger.
func WithLogger(logger log.Logger) Option {
	return func(g *Generator) { g.logger = logger }
}

// WithOutput sets the writer receiving the output of the root template
// itself. It is discarded by default.
func WithOutput(w io.Writer) Option {
	return func(g *Generator) { g.output = w }
}

// WithTemplateDir sets the directory relative template names are resolved
// against. By default it is the directory of the root template.
func WithTemplateDir(dir string) Option {
	return func(g *Generator) { g.templateDir = dir }
}

// WithDestDir sets the directory relative output paths are resolved
// against. By default it is the working directory.
func WithDestDir(dir string) Option {
	return func(g *Generator) { g.destDir = dir }
}

// New returns a Generator.
func New(opts ...Option) *Generator {
	g := &Generator{workers: 1, output: io.Discard}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// Result describes a completed generation.
type Result struct {
	// Files lists the written output files in sorted order.
	Files []string
}

// run holds what the files of one generation share.
type run struct {
	logger      log.Logger
	templateDir string
	destDir     string
	cache       *templateCache
	types       *typemap.Table
	pool        *sched.Pool

	dirMu sync.Mutex
	count atomic.Int64

	mu    sync.Mutex
	files []string
}

// Generate renders the template at templatePath with root as the current
// node. Files written by file tags are listed in the Result even when
// another file fails.
func (g *Generator) Generate(
	ctx context.Context,
	root *config.Node,
	templatePath string,
) (Result, error) {
	r := &run{
		logger:      g.logger,
		templateDir: g.templateDir,
		destDir:     g.destDir,
		cache:       newTemplateCache(g.logger),
		types:       typemap.New(),
	}

	if r.templateDir == "" {
		r.templateDir = filepath.Dir(templatePath)
	}

	tmpl, err := r.cache.load(ctx, templatePath, true)
	if err != nil {
		return Result{}, err
	}

	workers := g.workers
	if workers != 1 {
		r.pool = sched.New(ctx, workers, sched.WithLogger(g.logger))
	}

	g.logger.DebugContext(ctx, "generate",
		slog.String("template", templatePath),
		slog.Int("workers", workers),
	)

	c := newContext(ctx, r, root)

	err = tmpl.Body.Evaluate(c)
	if err == nil {
		if _, werr := g.output.Write(c.cursor().Bytes()); werr != nil {
			err = ErrWriteOutput.With(slog.String("file", "root output")).Wrap(werr)
		}
	}

	if r.pool != nil {
		err = errors.Join(err, r.pool.Wait())
	}

	res := Result{Files: r.written()}

	g.logger.InfoContext(ctx, "generation finished",
		slog.Int64("files", r.count.Load()),
		slog.Bool("ok", err == nil),
	)

	return res, err
}

// load returns the template a tag names. seq is the tag's attribute, used
// to tell constant names from computed ones.
func (r *run) load(ctx context.Context, name string, seq Sequence) (*Template, error) {
	_, constant := seq.Const()

	return r.cache.load(ctx, r.templatePath(name), constant)
}

func (r *run) templatePath(name string) string {
	if filepath.IsAbs(name) || r.templateDir == "" {
		return name
	}

	return filepath.Join(r.templateDir, name)
}

func (r *run) destPath(name string) string {
	if filepath.IsAbs(name) || r.destDir == "" {
		return name
	}

	return filepath.Join(r.destDir, name)
}

func (r *run) mkdir(dir string) error {
	r.dirMu.Lock()
	defer r.dirMu.Unlock()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ErrWriteOutput.With(slog.String("dir", dir)).Wrap(err)
	}

	return nil
}

// write replaces path with data through a temporary file in the same
// directory.
func (r *run) write(ctx context.Context, path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return ErrWriteOutput.With(slog.String("file", path)).Wrap(err)
	}

	name := tmp.Name()

	_, err = tmp.Write(data)
	err = errors.Join(err, tmp.Close())

	if err == nil {
		err = os.Chmod(name, 0o644)
	}

	if err == nil {
		err = os.Rename(name, path)
	}

	if err != nil {
		_ = os.Remove(name)

		return ErrWriteOutput.With(slog.String("file", path)).Wrap(err)
	}

	r.count.Add(1)

	r.mu.Lock()
	r.files = append(r.files, path)
	r.mu.Unlock()

	r.logger.InfoContext(ctx, "generated file",
		slog.String("file", path),
		slog.Int("bytes", len(data)),
	)

	return nil
}

func (r *run) written() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	files := slices.Clone(r.files)
	slices.Sort(files)

	return files
}
