package lang

import (
	"log/slog"
	"strconv"
)

// DefaultOpenComment starts custom code markers unless a tag says
// otherwise.
const DefaultOpenComment = "//"

// tabSettingsTag replaces the tab settings of the current template scope.
type tabSettingsTag struct {
	base
	size    Sequence
	useTabs Sequence
}

func buildTabSettings(p *parser, tp *TagParse) (Tag, error) {
	a, err := p.bind(tp, nil, "tabSize", "useTabs")
	if err != nil {
		return nil, err
	}

	return &tabSettingsTag{base: newBase(p, tp), size: a["tabSize"], useTabs: a["useTabs"]}, nil
}

func (t *tabSettingsTag) Evaluate(c *Context) error {
	size, err := t.intAttr(c, "tabSize", t.size, DefaultTabSize)
	if err != nil {
		return err
	}

	text, err := t.useTabs.Render(c)
	if err != nil {
		return t.fail(err)
	}

	useTabs := false

	if text != "" {
		if useTabs, err = strconv.ParseBool(text); err != nil {
			return t.fail(ErrAttrValue.With(
				slog.String("attribute", "useTabs"),
				slog.String("value", text),
			).Wrap(err))
		}
	}

	if size < 1 {
		return t.fail(ErrAttrValue.With(
			slog.String("attribute", "tabSize"),
			slog.Int("value", size),
		))
	}

	c.tabs[len(c.tabs)-1] = NewTabSettings(size, useTabs)

	return nil
}

// intAttr evaluates seq as an integer, returning def when it is empty.
func (b *base) intAttr(c *Context, name string, seq Sequence, def int) (int, error) {
	text, err := seq.Render(c)
	if err != nil {
		return 0, b.fail(err)
	}

	if text == "" {
		return def, nil
	}

	n, err := strconv.Atoi(text)
	if err != nil {
		return 0, b.fail(ErrAttrValue.With(
			slog.String("attribute", name),
			slog.String("value", text),
		).Wrap(err))
	}

	return n, nil
}

// tabMarkerTag records the current column under a name.
type tabMarkerTag struct {
	base
	marker Sequence
}

func buildTabMarker(p *parser, tp *TagParse) (Tag, error) {
	a, err := p.bind(tp, []string{"markerName"})
	if err != nil {
		return nil, err
	}

	return &tabMarkerTag{base: newBase(p, tp), marker: a["markerName"]}, nil
}

func (t *tabMarkerTag) Evaluate(c *Context) error {
	name, err := t.marker.Render(c)
	if err != nil {
		return t.fail(err)
	}

	ts := c.tab()
	ts.Mark(name, ts.Column(c.cursor().Line()))

	return nil
}

// tabStopTag pads the current line to a column.
type tabStopTag struct {
	base
	offset Sequence
	marker Sequence
}

func buildTabStop(p *parser, tp *TagParse) (Tag, error) {
	a, err := p.bind(tp, []string{"stopOffset"}, "markerName")
	if err != nil {
		return nil, err
	}

	return &tabStopTag{base: newBase(p, tp), offset: a["stopOffset"], marker: a["markerName"]}, nil
}

func (t *tabStopTag) Evaluate(c *Context) error {
	offset, err := t.intAttr(c, "stopOffset", t.offset, 0)
	if err != nil {
		return err
	}

	name, err := t.marker.Render(c)
	if err != nil {
		return t.fail(err)
	}

	ts := c.tab()
	target := ts.Stop(offset)

	if name != "" {
		col, ok := ts.Marker(name)
		if !ok {
			return t.fail(ErrAttrValue.With(
				slog.String("attribute", "markerName"),
				slog.String("value", name),
				slog.String("issue", "marker not set"),
			))
		}

		target = col + offset
	}

	c.write(ts.Pad(c.cursor().Line(), target))

	return nil
}

// customCodeTag writes a custom code block, carrying over the code found
// in the previous version of the file.
type customCodeTag struct {
	base
	key          Sequence
	openComment  Sequence
	closeComment Sequence
}

func buildCustomCode(p *parser, tp *TagParse) (Tag, error) {
	a, err := p.bind(tp, []string{"key"}, "openComment", "closeComment")
	if err != nil {
		return nil, err
	}

	return &customCodeTag{
		base:         newBase(p, tp),
		key:          a["key"],
		openComment:  a["openComment"],
		closeComment: a["closeComment"],
	}, nil
}

func (t *customCodeTag) Evaluate(c *Context) error {
	key, err := t.key.Render(c)
	if err != nil {
		return t.fail(err)
	}

	open, err := t.openComment.Render(c)
	if err != nil {
		return t.fail(err)
	}

	if open == "" {
		open = DefaultOpenComment
	}

	closer, err := t.closeComment.Render(c)
	if err != nil {
		return t.fail(err)
	}

	cur := c.cursor()

	block, err := c.custom.Block(key, cur.Indent(), open, closer)
	if err != nil {
		return t.fail(err)
	}

	cur.WriteString(block)

	return nil
}
