// Package typemap translates type names of a configuration into the type
// names of a target language.
//
// A [Table] is keyed by (language, source type, group). Groups let one
// language map the same source type differently depending on use, for
// example a field type versus a database column type. Lookups of the
// source type and group ignore case.
//
// Mapping documents are YAML:
//
//	language: java
//	groups:
//	  default:
//	    int: Integer
//	    string: String
//	  jdbc:
//	    int: INTEGER
//	types:
//	  - {source: date, target: java.time.LocalDate}
//
// Entries under types without a group belong to [DefaultGroup].
package typemap

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/goccy/go-yaml"
	"github.com/klauspost/readahead"

	"github.com/oldgreydog/codegen/pkg"
)

// DefaultGroup is used when no group is given.
const DefaultGroup = "default"

var (
	ErrRead   = pkg.NewError("read type map")
	ErrDecode = pkg.NewError("decode type map")
)

type key struct {
	language, source, group string
}

func makeKey(language, source, group string) key {
	if group == "" {
		group = DefaultGroup
	}

	return key{
		language: language,
		source:   strings.ToLower(source),
		group:    strings.ToLower(group),
	}
}

// Table is a concurrency-safe type conversion table.
type Table struct {
	// file serializes LoadFile so a language is read at most once.
	file sync.Mutex

	mu      sync.RWMutex
	entries map[key]string
	loaded  map[string]bool
}

// New returns an empty Table.
func New() *Table {
	return &Table{
		entries: map[key]string{},
		loaded:  map[string]bool{},
	}
}

// Lookup returns the target type for source in group.
func (t *Table) Lookup(language, source, group string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	target, ok := t.entries[makeKey(language, source, group)]

	return target, ok
}

// Loaded reports whether a document has been loaded for language.
func (t *Table) Loaded(language string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.loaded[language]
}

// Len returns the number of entries.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.entries)
}

type entry struct {
	Source string `yaml:"source"`
	Target string `yaml:"target"`
	Group  string `yaml:"group"`
}

type document struct {
	Language string                       `yaml:"language"`
	Groups   map[string]map[string]string `yaml:"groups"`
	Types    []entry                      `yaml:"types"`
}

// Load decodes a mapping document from r into language. The document's own
// language field, if any, is ignored in favor of the argument.
func (t *Table) Load(r io.Reader, language string) error {
	ra := readahead.NewReader(r)
	defer ra.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(ra); err != nil {
		return ErrRead.With(slog.String("language", language)).Wrap(err)
	}

	var doc document
	if err := yaml.Unmarshal(buf.Bytes(), &doc); err != nil {
		return ErrDecode.With(slog.String("language", language)).Wrap(err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	for group, types := range doc.Groups {
		for source, target := range types {
			t.entries[makeKey(language, source, group)] = target
		}
	}

	for _, e := range doc.Types {
		t.entries[makeKey(language, e.Source, e.Group)] = e.Target
	}

	t.loaded[language] = true

	return nil
}

// LoadFile loads the document at path into language unless a document was
// already loaded for it. It reports whether the file was read.
func (t *Table) LoadFile(path, language string) (bool, error) {
	t.file.Lock()
	defer t.file.Unlock()

	if t.Loaded(language) {
		return false, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return false, ErrRead.With(
			slog.String("file", path),
			slog.String("language", language),
		).Wrap(err)
	}
	defer f.Close()

	if err := t.Load(f, language); err != nil {
		return false, err
	}

	return true, nil
}
