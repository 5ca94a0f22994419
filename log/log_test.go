package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"slices"
	"strings"
	"testing"
)

func TestMake_Defaults(t *testing.T) {
	logger := Make(&bytes.Buffer{})

	if logger.Level() != DefaultLevel {
		t.Errorf("Level() = %v, want %v", logger.Level(), DefaultLevel)
	}

	if logger.Format() != DefaultFormat {
		t.Errorf("Format() = %v, want %v", logger.Format(), DefaultFormat)
	}
}

func TestLogger_ZeroValue(t *testing.T) {
	var logger Logger

	// must not panic
	logger.Info("dropped")
	logger.TraceContext(t.Context(), "dropped")
	logger = logger.With(slog.String("k", "v"))
	logger.Error("dropped")
}

func TestLogger_LevelFilter(t *testing.T) {
	tests := []struct {
		name  string
		level Level
		log   func(Logger)
		want  bool
	}{
		{"trace below info", LevelInfo, func(l Logger) { l.Trace("msg") }, false},
		{"debug below info", LevelInfo, func(l Logger) { l.Debug("msg") }, false},
		{"info at info", LevelInfo, func(l Logger) { l.Info("msg") }, true},
		{"trace at trace", LevelTrace, func(l Logger) { l.Trace("msg") }, true},
		{"warn below error", LevelError, func(l Logger) { l.Warn("msg") }, false},
		{"error at error", LevelError, func(l Logger) { l.Error("msg") }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer

			tt.log(Make(&buf, WithLevel(tt.level)))

			if got := strings.Contains(buf.String(), "msg"); got != tt.want {
				t.Errorf("logged = %v, want %v (output %q)", got, tt.want, buf.String())
			}
		})
	}
}

func TestLogger_JSON(t *testing.T) {
	var buf bytes.Buffer

	logger := Make(&buf,
		WithFormat(FormatJSON),
		WithLevel(LevelTrace),
		WithTimeLayout("none"),
	).With(slog.String("component", "lang"))

	logger.Trace("parsed template", slog.Int("tags", 12))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("invalid JSON %q: %v", buf.String(), err)
	}

	if _, ok := record[slog.TimeKey]; ok {
		t.Error("time attribute present with layout none")
	}

	want := map[string]any{
		slog.LevelKey:   "TRACE",
		slog.MessageKey: "parsed template",
		"component":     "lang",
		"tags":          float64(12),
	}

	for k, v := range want {
		if record[k] != v {
			t.Errorf("record[%q] = %v, want %v", k, record[k], v)
		}
	}
}

func TestLogger_Wrap(t *testing.T) {
	var first, second bytes.Buffer

	base := Make(&first, WithLevel(LevelError))
	wrapped := base.Wrap(WithLevel(LevelDebug), WithOutput(&second))

	base.Debug("base debug")
	wrapped.Debug("wrapped debug")

	if first.Len() != 0 {
		t.Errorf("base logger wrote %q", first.String())
	}

	if !strings.Contains(second.String(), "wrapped debug") {
		t.Errorf("wrapped logger output %q", second.String())
	}

	if base.Level() != LevelError {
		t.Error("Wrap modified the receiver")
	}
}

func TestLogger_Caller(t *testing.T) {
	var buf bytes.Buffer

	Make(&buf, WithFormat(FormatJSON), WithCaller(true)).Info("here")

	if !strings.Contains(buf.String(), "log_test.go") {
		t.Errorf("source does not name the caller: %q", buf.String())
	}
}

func TestPrettyText(t *testing.T) {
	var buf bytes.Buffer

	logger := Make(&buf,
		WithPretty(true),
		WithFormat(FormatText),
		WithTimeLayout(""),
	).With(slog.String("file", "User.java"))

	logger.Warn("custom code dropped", slog.String("key", "imports"), slog.Bool("dry", false))

	out := buf.String()

	for _, want := range []string{"WARN", "custom code dropped", "file=User.java", "key=imports", "dry=false"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q does not contain %q", out, want)
		}
	}
}

func TestPrettyJSON(t *testing.T) {
	var buf bytes.Buffer

	Make(&buf, WithPretty(true), WithFormat(FormatJSON)).Info("indented")

	if !strings.Contains(buf.String(), "\n  \"msg\": \"indented\"") {
		t.Errorf("output is not indented JSON: %q", buf.String())
	}
}

func TestParse(t *testing.T) {
	levels := []struct {
		in   string
		want Level
	}{
		{"trace", LevelTrace},
		{"TRACE", LevelTrace},
		{"debug", LevelDebug},
		{"warn", LevelWarn},
		{"error", LevelError},
		{"bogus", DefaultLevel},
	}

	for _, tt := range levels {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if got := ParseFormat(" JSON "); got != FormatJSON {
		t.Errorf("ParseFormat(JSON) = %v", got)
	}

	if got := ParseFormat("yaml"); got != DefaultFormat {
		t.Errorf("ParseFormat(yaml) = %v", got)
	}

	if got := slices.Collect(Levels()); !slices.Equal(got, []string{"trace", "debug", "info", "warn", "error"}) {
		t.Errorf("Levels() = %v", got)
	}

	if got := slices.Collect(Formats()); !slices.Equal(got, []string{"text", "json"}) {
		t.Errorf("Formats() = %v", got)
	}
}

func TestConfig_Default(t *testing.T) {
	original := Default()
	defer func() { defaultLog = original }()

	var buf bytes.Buffer

	Config(WithOutput(&buf), WithLevel(LevelDebug), WithFormat(FormatJSON))

	DebugContext(t.Context(), "configured")

	if !strings.Contains(buf.String(), `"msg":"configured"`) {
		t.Errorf("default logger output %q", buf.String())
	}
}
