package pkg

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"testing"
)

func TestName(t *testing.T) {
	if Name != "codegen" {
		t.Errorf("Expected Name to be %q, got %q", "codegen", Name)
	}
}

func TestVersion(t *testing.T) {
	buf, err := os.ReadFile("VERSION")
	if err != nil {
		t.Fatalf("Failed to read VERSION file: %v", err)
	}

	if content := strings.TrimSpace(string(buf)); Version != content {
		t.Errorf("Expected Version to be %q, got %q", content, Version)
	}
}

func TestAuthorStruct(t *testing.T) {
	if len(Author) == 0 {
		t.Fatal("Expected Author to have at least one entry")
	}

	for i, author := range Author {
		if author.Name == "" && author.Email == "" {
			t.Errorf("Author[%d] must define at least Name or Email", i)
		}
	}
}

func TestError(t *testing.T) {
	errBase := NewError("base failure")
	errOther := NewError("other failure")
	cause := errors.New("disk full")

	derived := errBase.With(slog.Int("line", 3)).Wrap(cause)

	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{name: "sentinel matches itself", err: errBase, target: errBase, want: true},
		{name: "derived matches sentinel", err: derived, target: errBase, want: true},
		{name: "derived matches cause", err: derived, target: cause, want: true},
		{name: "derived does not match other", err: derived, target: errOther, want: false},
		{name: "wrapped by fmt", err: fmt.Errorf("outer: %w", derived), target: errBase, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.Is(tt.err, tt.target); got != tt.want {
				t.Errorf("errors.Is() = %v, want %v", got, tt.want)
			}
		})
	}

	if got, want := derived.Error(), "base failure: disk full"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	v, ok := derived.Attr("line")
	if !ok || v.Int64() != 3 {
		t.Errorf("Attr(line) = %v, %v; want 3, true", v, ok)
	}

	if len(errBase.Attrs()) != 0 {
		t.Error("With must not modify the sentinel")
	}
}
