package lang

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strconv"
	"sync"

	"github.com/klauspost/readahead"
	"github.com/zeebo/xxh3"

	"github.com/oldgreydog/codegen/log"
)

// templateCache holds the templates parsed during one generation run.
//
// Templates named by constant text are read once per path. Templates whose
// name is computed are read again each time they are reached, but a file
// whose content was already parsed under the same name reuses that parse.
type templateCache struct {
	logger log.Logger

	// byPath maps a template path to its *cacheEntry.
	byPath sync.Map

	// byContent maps the xxh3 hash of name and source to its *cacheEntry.
	byContent sync.Map
}

type cacheEntry struct {
	once sync.Once
	tmpl *Template
	err  error
}

func newTemplateCache(logger log.Logger) *templateCache {
	return &templateCache{logger: logger}
}

func (tc *templateCache) load(ctx context.Context, path string, constant bool) (*Template, error) {
	if !constant {
		return tc.read(ctx, path)
	}

	v, hit := tc.byPath.LoadOrStore(path, new(cacheEntry))
	e, _ := v.(*cacheEntry)

	tc.logger.TraceContext(ctx, "template lookup",
		slog.String("template", path),
		slog.Bool("cache_hit", hit),
	)

	e.once.Do(func() { e.tmpl, e.err = tc.read(ctx, path) })

	return e.tmpl, e.err
}

func (tc *templateCache) read(ctx context.Context, path string) (*Template, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ErrReadTemplate.With(slog.String("template", path)).Wrap(err)
	}
	defer f.Close()

	ra := readahead.NewReader(f)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return nil, ErrReadTemplate.With(slog.String("template", path)).Wrap(err)
	}

	return tc.parse(ctx, path, data)
}

func (tc *templateCache) parse(ctx context.Context, name string, data []byte) (*Template, error) {
	h := xxh3.New()
	_, _ = h.WriteString(name)
	_, _ = h.Write([]byte{0})
	_, _ = h.Write(data)
	sum := h.Sum64()

	v, hit := tc.byContent.LoadOrStore(sum, new(cacheEntry))
	e, _ := v.(*cacheEntry)

	e.once.Do(func() {
		e.tmpl, e.err = Parse(name, data)

		tc.logger.TraceContext(ctx, "parsed template",
			slog.String("template", name),
			slog.Int("bytes", len(data)),
			slog.Bool("ok", e.err == nil),
		)
	})

	if hit {
		tc.logger.DebugContext(ctx, "template cache hit",
			slog.String("template", name),
			slog.String("hash", strconv.FormatUint(sum, 16)),
		)
	}

	return e.tmpl, e.err
}
