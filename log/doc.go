// Package log provides a concurrency-safe structured logger built on
// [log/slog].
//
// A [Logger] is configured once with functional options and is then
// immutable; [Logger.Wrap] and [Logger.With] derive new loggers. The zero
// Logger discards everything, so components can embed one without checking
// whether logging was configured.
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelDebug),
//		log.WithFormat(log.FormatText),
//	)
//	logger.Info("generated file", slog.String("path", path))
//
// The package also keeps a default logger used by the package-level
// functions ([Info], [ErrorContext], ...). The command line configures it
// through [Config].
//
// In addition to the slog levels, [LevelTrace] sits below debug for
// per-tag evaluation events.
package log
