package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
)

// contextKey is used to store a [kong.Context] value in [context.Context].
type contextKey struct{}

// WithContext returns a new context.Context containing the given kong.Context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, ok := ctx.Value(contextKey{}).(*kong.Context)
	if !ok || ktx == nil {
		return nil
	}

	return ktx
}

// stdoutPath selects standard output wherever an output path is accepted.
const stdoutPath = "-"

// emit writes data to path, or to stdout if path is [stdoutPath].
func emit(path string, data []byte, stdout io.Writer) error {
	if path == stdoutPath || path == "" {
		if stdout == nil {
			stdout = os.Stdout
		}

		if _, err := stdout.Write(data); err != nil {
			return ErrWriteOutput.With(slog.String("file", "stdout")).Wrap(err)
		}

		return nil
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return ErrWriteOutput.With(slog.String("file", path)).Wrap(err)
	}

	return nil
}
