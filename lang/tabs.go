package lang

import (
	"maps"
	"strings"
)

// DefaultTabSize is the tab width of a template that declares none.
const DefaultTabSize = 4

// TabSettings controls column alignment within one template scope.
type TabSettings struct {
	Size    int
	UseTabs bool

	markers map[string]int
}

// NewTabSettings returns settings with no markers. A size below one is
// replaced by [DefaultTabSize].
func NewTabSettings(size int, useTabs bool) *TabSettings {
	if size < 1 {
		size = DefaultTabSize
	}

	return &TabSettings{Size: size, UseTabs: useTabs, markers: map[string]int{}}
}

func (t *TabSettings) clone() *TabSettings {
	c := *t
	c.markers = maps.Clone(t.markers)

	return &c
}

// Column returns the rendered width of line. A tab advances to the next
// multiple of the tab size.
func (t *TabSettings) Column(line string) int {
	col := 0

	for _, r := range line {
		if r == '\t' {
			col = t.nextStop(col)
		} else {
			col++
		}
	}

	return col
}

// Mark records col under name.
func (t *TabSettings) Mark(name string, col int) { t.markers[name] = col }

// Marker returns the column recorded under name.
func (t *TabSettings) Marker(name string) (int, bool) {
	col, ok := t.markers[name]

	return col, ok
}

// Stop returns the absolute column for offset, rounded up to a tab
// multiple.
func (t *TabSettings) Stop(offset int) int {
	if offset <= 0 {
		return 0
	}

	return (offset + t.Size - 1) / t.Size * t.Size
}

// Pad returns the whitespace that moves the end of line to column target.
// It is empty when the line already reaches target.
func (t *TabSettings) Pad(line string, target int) string {
	col := t.Column(line)
	if col >= target {
		return ""
	}

	var b strings.Builder

	if t.UseTabs {
		for next := t.nextStop(col); next <= target; next = t.nextStop(col) {
			b.WriteByte('\t')

			col = next
		}
	}

	b.WriteString(strings.Repeat(" ", target-col))

	return b.String()
}

func (t *TabSettings) nextStop(col int) int {
	return (col/t.Size + 1) * t.Size
}
