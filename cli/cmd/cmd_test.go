package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"
	"github.com/google/go-cmp/cmp"

	"github.com/oldgreydog/codegen/lang"
)

const header = "%%HEADER%% openingDelimiter=<% closingDelimiter=%>\n"

func write(t *testing.T, dir, name, text string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}

	return path
}

func TestGenerate_Run(t *testing.T) {
	dir := t.TempDir()

	tmpl := write(t, dir, "main.tmpl", header+`
<%forEach node=table%>
  <%text%><%value name=name%>@<%value name=root.version%> <%endText%>
  <%file template=row.tmpl destDir=out destFileName=<%value name=name%>.txt%>
<%endFor%>`)
	write(t, dir, "row.tmpl", header+`<%text%><%upperCase value=<%value name=name%>%><%endText%>`)

	yamlConf := write(t, dir, "schema.yaml", "table:\n  - name: a\n  - name: b\n")
	hclConf := write(t, dir, "schema.hcl", "table \"a\" {}\ntable \"b\" {}\n")
	vars := write(t, dir, "vars.yaml", "version: \"2\"\n")

	for _, conf := range []string{yamlConf, hclConf} {
		t.Run(filepath.Ext(conf), func(t *testing.T) {
			dest := t.TempDir()

			var stdout bytes.Buffer

			g := &Generate{
				Config:    conf,
				Template:  tmpl,
				Variables: vars,
				Workers:   2,
				Output:    stdoutPath,
				DestDir:   dest,
				stdout:    &stdout,
			}

			if err := g.Run(t.Context()); err != nil {
				t.Fatalf("Run: %v", err)
			}

			if got, want := stdout.String(), "a@2 b@2 "; got != want {
				t.Errorf("stdout = %q, want %q", got, want)
			}

			for name, want := range map[string]string{"a.txt": "A", "b.txt": "B"} {
				data, err := os.ReadFile(filepath.Join(dest, "out", name))
				if err != nil {
					t.Fatal(err)
				}

				if string(data) != want {
					t.Errorf("%s = %q, want %q", name, data, want)
				}
			}
		})
	}
}

func TestGenerate_RunOutputFile(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "root.txt")

	g := &Generate{
		Config:   write(t, dir, "c.json", `{"name": "x"}`),
		Template: write(t, dir, "t.tmpl", header+`<%text%><%value name=name%><%endText%>`),
		Workers:  1,
		Output:   out,
	}

	if err := g.Run(t.Context()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}

	if string(data) != "x" {
		t.Errorf("output = %q, want %q", data, "x")
	}
}

func TestGenerate_RunError(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "root.txt")

	g := &Generate{
		Config:   write(t, dir, "c.yaml", "name: x\n"),
		Template: write(t, dir, "t.tmpl", header+`<%text%><%value name=nope%><%endText%>`),
		Workers:  1,
		Output:   out,
	}

	if err := g.Run(t.Context()); !errors.Is(err, lang.ErrValueNotFound) {
		t.Fatalf("Run() error = %v, want %v", err, lang.ErrValueNotFound)
	}

	if _, err := os.Stat(out); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("output written after failure: %v", err)
	}
}

func TestDump_Run(t *testing.T) {
	dir := t.TempDir()
	tmpl := write(t, dir, "t.tmpl", header+`<%text%>hi<%endText%>`)

	tests := []struct {
		format string
		want   []string
	}{
		{"text", []string{"<% %>", "  text @2", `    "hi" @2`}},
		{"yaml", []string{"tag: text", "text: hi"}},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var stdout bytes.Buffer

			d := &Dump{Template: tmpl, Format: tt.format, Indent: 2, Output: stdoutPath, stdout: &stdout}
			if err := d.Run(t.Context()); err != nil {
				t.Fatalf("Run: %v", err)
			}

			for _, want := range tt.want {
				if !strings.Contains(stdout.String(), want) {
					t.Errorf("dump lacks %q:\n%s", want, stdout.String())
				}
			}
		})
	}
}

func TestDump_RunParseError(t *testing.T) {
	dir := t.TempDir()
	tmpl := write(t, dir, "t.tmpl", "no header\n")

	d := &Dump{Template: tmpl, Format: "text", Output: stdoutPath, stdout: &bytes.Buffer{}}
	if err := d.Run(t.Context()); !errors.Is(err, lang.ErrHeader) {
		t.Errorf("Run() error = %v, want %v", err, lang.ErrHeader)
	}
}

type initCLI struct {
	Level   string `default:"info"`
	Verbose bool
	Tags    []string `default:"a,b"`

	Init Init `cmd:""`
	Gen  struct {
		Workers int    `default:"3"`
		Empty   string `default:""`
	} `cmd:""`
}

func TestInit_Run(t *testing.T) {
	tests := []struct {
		name    string
		force   bool
		exists  bool
		wantErr error
	}{
		{name: "create"},
		{name: "overwrite with force", force: true, exists: true},
		{name: "refuse without force", exists: true, wantErr: ErrFileExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "codegen", "config.yaml")

			if tt.exists {
				if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
					t.Fatal(err)
				}

				write(t, filepath.Dir(path), "config.yaml", "old: true\n")
			}

			var cli initCLI

			parser, err := kong.New(&cli, kong.Vars{ConfigIdentifier: path})
			if err != nil {
				t.Fatal(err)
			}

			ktx, err := parser.Parse([]string{"init"})
			if err != nil {
				t.Fatal(err)
			}

			err = (&Init{Force: tt.force}).Run(WithContext(t.Context(), ktx))

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Run() error = %v, want %v", err, tt.wantErr)
				}

				return
			}

			if err != nil {
				t.Fatalf("Run: %v", err)
			}

			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}

			var got map[string]any
			if err := yaml.Unmarshal(data, &got); err != nil {
				t.Fatalf("written file is not YAML: %v", err)
			}

			flat := map[string]string{}
			for k, v := range got {
				flat[k] = fmt.Sprint(v)
			}

			want := map[string]string{
				"level":   "info",
				"verbose": "false",
				"force":   "false",
				"tags":    "[a b]",
				"workers": "3",
			}

			if diff := cmp.Diff(want, flat); diff != "" {
				t.Errorf("config mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestInit_RunWithoutContext(t *testing.T) {
	if err := (&Init{}).Run(t.Context()); !errors.Is(err, ErrNoContext) {
		t.Errorf("Run() error = %v, want %v", err, ErrNoContext)
	}
}
