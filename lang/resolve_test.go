package lang

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/oldgreydog/codegen/pkg"
)

func TestParseAddress(t *testing.T) {
	tests := []struct {
		in   string
		want address
	}{
		{"name", address{raw: "name", path: []string{"name"}}},
		{"a.b.c", address{raw: "a.b.c", path: []string{"a", "b", "c"}}},
		{"^^name", address{raw: "^^name", up: 2, path: []string{"name"}}},
		{"root.a.b", address{raw: "root.a.b", root: true, path: []string{"a", "b"}}},
		{"^", address{raw: "^", up: 1}},
	}

	for _, tt := range tests {
		got := parseAddress(tt.in)
		if diff := cmp.Diff(tt.want, got, cmp.AllowUnexported(address{})); diff != "" {
			t.Errorf("parseAddress(%q) mismatch (-want +got):\n%s", tt.in, diff)
		}
	}
}

// columnContext returns a context positioned on the email column of the
// User table.
func columnContext(t *testing.T) *Context {
	t.Helper()

	root := schema(t)
	c := newContext(t.Context(), nil, root)

	s := root.Node("schema")
	tbl := s.Nodes("table")[0]

	c.pushNode(s)
	c.pushNode(tbl)
	c.pushNode(tbl.Nodes("column")[1])

	return c
}

func TestContext_Value(t *testing.T) {
	tests := []struct {
		ref     string
		want    string
		wantErr *pkg.Error
	}{
		{ref: "name", want: "email"},
		{ref: "nullable", want: "true"},
		{ref: "^name", want: "User"},
		{ref: "^^name", want: "app"},
		{ref: "root.schema.name", want: "app"},
		{ref: "root.schema.table.name", want: "User"},
		{ref: "^^table.column.name", want: "id"},
		{ref: "^^^^name", wantErr: ErrParentDepth},
		{ref: "size", wantErr: ErrValueNotFound},
		{ref: "^nope.name", wantErr: ErrNodeNotFound},
		{ref: "^", wantErr: ErrAttrValue},
	}

	c := columnContext(t)

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			got, err := c.value(tt.ref)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("value() error = %v, want %v", err, tt.wantErr)
				}

				return
			}

			if err != nil {
				t.Fatalf("value() error = %v", err)
			}

			if got != tt.want {
				t.Errorf("value() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestContext_ValueSuggest(t *testing.T) {
	_, err := columnContext(t).value("nulable")

	var e *pkg.Error
	if !errors.As(err, &e) {
		t.Fatalf("value() error = %v", err)
	}

	if v, _ := e.Attr("suggest"); v.String() != "nullable" {
		t.Errorf("suggest = %q, want %q", v.String(), "nullable")
	}
}

func TestContext_Exists(t *testing.T) {
	tests := []struct {
		ref     string
		want    bool
		wantErr bool
	}{
		{ref: "nullable", want: true},
		{ref: "^column", want: true},
		{ref: "root.schema", want: true},
		{ref: "size"},
		{ref: "nope.name"},
		{ref: "^^^^name", wantErr: true},
	}

	c := columnContext(t)

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			got, err := c.exists(tt.ref)
			if (err != nil) != tt.wantErr {
				t.Fatalf("exists() error = %v, wantErr %v", err, tt.wantErr)
			}

			if got != tt.want {
				t.Errorf("exists() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestContext_Children(t *testing.T) {
	c := columnContext(t)

	cols, err := c.children("^column", false)
	if err != nil {
		t.Fatal(err)
	}

	if len(cols) != 2 {
		t.Errorf("children(^column) = %d nodes, want 2", len(cols))
	}

	vals, err := c.children("type", true)
	if err != nil {
		t.Fatal(err)
	}

	if len(vals) != 1 || vals[0].Text() != "string" {
		t.Errorf("children(type) = %v", vals)
	}

	if nodes, _ := c.children("type", false); len(nodes) != 0 {
		t.Errorf("value reported as node: %v", nodes)
	}
}
