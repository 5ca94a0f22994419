// Package custom preserves hand-written code across regenerations.
//
// Generated files reserve regions for user code between a pair of marker
// comments:
//
//	// StartCustomCode:imports
//	import "example.com/mine"
//	// EndCustomCode:imports
//
// Before a file is regenerated, [Scan] reads the previous version and
// captures the text between each marker pair. While the new version is
// rendered, [Manager.Block] claims each key and writes its code back.
package custom

import (
	"bufio"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/oldgreydog/codegen/pkg"
)

const (
	// StartMarker precedes the key on the line opening a block.
	StartMarker = "StartCustomCode:"
	// EndMarker precedes the key on the line closing a block.
	EndMarker = "EndCustomCode:"
)

var (
	ErrScan         = pkg.NewError("malformed custom code block")
	ErrDuplicateKey = pkg.NewError("duplicate custom code key")
	ErrEmptyKey     = pkg.NewError("empty custom code key")
	ErrKey          = pkg.NewError("custom code key spans lines")
)

// Trailing comment closers removed from a scanned key, with or without a
// space before them, as in "<!-- StartCustomCode:head -->".
var closers = []string{"*/", "--%>", "-->", "%>"}

// Manager holds the custom code captured from one output file and the keys
// claimed while regenerating it. A Manager belongs to exactly one output
// file and is not safe for concurrent use.
type Manager struct {
	blocks  map[string]string
	order   []string
	claimed map[string]struct{}
}

// New returns a Manager with no captured blocks, as for a file generated
// for the first time.
func New() *Manager {
	return &Manager{
		blocks:  map[string]string{},
		claimed: map[string]struct{}{},
	}
}

// Scan reads a previously generated file and captures its blocks.
//
// Every line between a start marker and the matching end marker is kept
// verbatim, including its line terminator. A start marker inside an open
// block, an end marker whose key differs from the open block, an end marker
// with no open block, a key used by two blocks, and end of input inside a
// block are all errors.
func Scan(r io.Reader) (*Manager, error) {
	m := New()

	br := bufio.NewReader(r)

	var (
		key  string
		text strings.Builder
		open bool
		line int
		from int
	)

	for {
		s, err := br.ReadString('\n')
		if s != "" {
			line++

			switch {
			case strings.Contains(s, StartMarker):
				k := extractKey(s, StartMarker)

				if open {
					return nil, ErrScan.With(
						slog.Int("line", line),
						slog.String("key", k),
						slog.String("open", key),
						slog.Int("opened", from),
					).Wrap(errors.New("start marker inside open block"))
				}

				if k == "" {
					return nil, ErrEmptyKey.With(slog.Int("line", line))
				}

				if _, dup := m.blocks[k]; dup {
					return nil, ErrScan.With(
						slog.Int("line", line),
						slog.String("key", k),
					).Wrap(ErrDuplicateKey)
				}

				key, open, from = k, true, line
				text.Reset()

			case strings.Contains(s, EndMarker):
				k := extractKey(s, EndMarker)

				if !open {
					return nil, ErrScan.With(
						slog.Int("line", line),
						slog.String("key", k),
					).Wrap(errors.New("end marker without start marker"))
				}

				if k != key {
					return nil, ErrScan.With(
						slog.Int("line", line),
						slog.String("key", k),
						slog.String("open", key),
						slog.Int("opened", from),
					).Wrap(errors.New("end marker does not match open block"))
				}

				m.blocks[key] = text.String()
				m.order = append(m.order, key)
				open = false

			case open:
				text.WriteString(s)
			}
		}

		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, ErrScan.With(slog.Int("line", line)).Wrap(err)
		}
	}

	if open {
		return nil, ErrScan.With(
			slog.String("key", key),
			slog.Int("opened", from),
		).Wrap(io.ErrUnexpectedEOF)
	}

	return m, nil
}

// ScanFile scans the file at path. A missing file yields an empty Manager.
func ScanFile(path string) (*Manager, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return New(), nil
	}

	if err != nil {
		return nil, ErrScan.With(slog.String("file", path)).Wrap(err)
	}
	defer f.Close()

	m, err := Scan(f)
	if err != nil {
		var e *pkg.Error
		if errors.As(err, &e) {
			return nil, e.With(slog.String("file", path))
		}

		return nil, err
	}

	return m, nil
}

// extractKey returns the text after marker up to the end of line, with
// surrounding whitespace and any trailing comment closer removed.
func extractKey(line, marker string) string {
	_, rest, _ := strings.Cut(line, marker)

	key := strings.TrimSpace(rest)

	for trimmed := true; trimmed; {
		trimmed = false

		for _, c := range closers {
			if k, ok := strings.CutSuffix(key, c); ok {
				key, trimmed = strings.TrimSpace(k), true
			}
		}
	}

	return key
}

// Key returns key as [Scan] reads it back from a marker written with
// closeComment. A closer outside the known set stays part of the scanned
// key, so blocks are stored and looked up under this form.
func Key(key, closeComment string) string {
	return extractKey(marker(StartMarker, key, "", closeComment), StartMarker)
}

// Claim records that key is being generated into the current file.
// Claiming the same key twice is an error: the second block would receive
// a copy of the first block's code and one of them would be lost on the
// following regeneration.
func (m *Manager) Claim(key string) error {
	if key == "" {
		return ErrEmptyKey
	}

	if _, dup := m.claimed[key]; dup {
		return ErrDuplicateKey.With(slog.String("key", key))
	}

	m.claimed[key] = struct{}{}

	return nil
}

// Text returns the captured code for key, or "" if the previous file had no
// such block.
func (m *Manager) Text(key string) string { return m.blocks[key] }

// Keys returns the keys of the captured blocks in file order.
func (m *Manager) Keys() []string { return slices.Clone(m.order) }

// Unclaimed returns the keys of captured blocks that were not claimed. Their
// code will not appear in the regenerated file.
func (m *Manager) Unclaimed() []string {
	var out []string

	for _, k := range m.order {
		if _, ok := m.claimed[k]; !ok && strings.TrimSpace(m.blocks[k]) != "" {
			out = append(out, k)
		}
	}

	return out
}

// Block claims key, then formats the complete block holding its captured
// code. indent is written before the end marker so both markers line up
// when the start marker follows the same indent.
//
// The key must read back unchanged from the marker line, otherwise the
// code written between the markers would be lost on the next
// regeneration.
func (m *Manager) Block(key, indent, openComment, closeComment string) (string, error) {
	if strings.ContainsAny(key, "\r\n") {
		return "", ErrKey.With(slog.String("key", key))
	}

	k := Key(key, closeComment)
	if k == "" {
		return "", ErrEmptyKey
	}

	if err := m.Claim(k); err != nil {
		return "", err
	}

	var b strings.Builder

	b.WriteString(marker(StartMarker, key, openComment, closeComment))
	b.WriteByte('\n')
	b.WriteString(m.Text(k))
	b.WriteString(indent)
	b.WriteString(marker(EndMarker, key, openComment, closeComment))

	return b.String(), nil
}

func marker(kind, key, openComment, closeComment string) string {
	s := openComment + " " + kind + key
	if closeComment != "" {
		s += " " + closeComment
	}

	return s
}
