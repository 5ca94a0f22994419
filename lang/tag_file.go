package lang

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/oldgreydog/codegen/config"
	"github.com/oldgreydog/codegen/custom"
)

// fileTag renders another template into a file.
type fileTag struct {
	base
	template    Sequence
	destDir     Sequence
	destName    Sequence
	contextName Sequence
}

func buildFile(p *parser, tp *TagParse) (Tag, error) {
	a, err := p.bind(tp, []string{"template", "destDir", "destFileName"}, "optionalContextName")
	if err != nil {
		return nil, err
	}

	return &fileTag{
		base:        newBase(p, tp),
		template:    a["template"],
		destDir:     a["destDir"],
		destName:    a["destFileName"],
		contextName: a["optionalContextName"],
	}, nil
}

func (t *fileTag) Evaluate(c *Context) error {
	var name, dir, file, contextName string

	for _, f := range []struct {
		dst *string
		seq Sequence
	}{
		{&name, t.template},
		{&dir, t.destDir},
		{&file, t.destName},
		{&contextName, t.contextName},
	} {
		s, err := f.seq.Render(c)
		if err != nil {
			return t.fail(err)
		}

		*f.dst = s
	}

	if strings.TrimSpace(file) == "" {
		return t.fail(ErrAttrValue.With(slog.String("attribute", "destFileName")))
	}

	node := c.node()

	if contextName != "" {
		n, err := c.outerNode(contextName)
		if err != nil {
			return t.fail(err)
		}

		node = n
	}

	tmpl, err := c.run.load(c.ctx, name, t.template)
	if err != nil {
		return t.fail(err)
	}

	target := c.run.destPath(filepath.Join(dir, file))

	if c.run.pool != nil {
		f := c.fork()

		return t.fail(c.run.pool.Submit(func(context.Context) error {
			return t.emit(f, node, tmpl, target)
		}))
	}

	return t.emit(c, node, tmpl, target)
}

// emit renders tmpl at node and replaces target with the result. Nothing
// is written unless the whole template evaluates.
func (t *fileTag) emit(c *Context, node *config.Node, tmpl *Template, target string) error {
	leave, err := c.enter(tmpl.Name)
	if err != nil {
		return t.fail(err)
	}
	defer leave()

	if err := c.run.mkdir(filepath.Dir(target)); err != nil {
		return t.fail(err)
	}

	m, err := custom.ScanFile(target)
	if err != nil {
		return t.fail(err)
	}

	prev := c.custom
	c.custom = m

	defer func() { c.custom = prev }()

	cur := c.pushCursor()
	defer c.popCursor()

	c.tabs = append(c.tabs, NewTabSettings(DefaultTabSize, false))
	defer c.popTabs()

	c.pushNode(node)
	defer c.popNode()

	c.run.logger.TraceContext(c.ctx, "render file",
		slog.String("file", target),
		slog.String("template", tmpl.Name),
		slog.Any("custom", m.Keys()),
	)

	if err := tmpl.Body.Evaluate(c); err != nil {
		return err
	}

	if lost := m.Unclaimed(); len(lost) > 0 {
		c.run.logger.WarnContext(c.ctx, "custom code dropped from regenerated file",
			slog.String("file", target),
			slog.Any("keys", lost),
		)
	}

	return t.fail(c.run.write(c.ctx, target, cur.Bytes()))
}

// includeTag evaluates another template in place.
type includeTag struct {
	base
	template Sequence
}

func buildInclude(p *parser, tp *TagParse) (Tag, error) {
	a, err := p.bind(tp, []string{"template"})
	if err != nil {
		return nil, err
	}

	return &includeTag{base: newBase(p, tp), template: a["template"]}, nil
}

func (t *includeTag) Evaluate(c *Context) error {
	name, err := t.template.Render(c)
	if err != nil {
		return t.fail(err)
	}

	tmpl, err := c.run.load(c.ctx, name, t.template)
	if err != nil {
		return t.fail(err)
	}

	leave, err := c.enter(tmpl.Name)
	if err != nil {
		return t.fail(err)
	}
	defer leave()

	c.pushTabs()
	defer c.popTabs()

	return tmpl.Body.Evaluate(c)
}

// variableTag stores a named fragment (mode=set) or evaluates one stored
// earlier (mode=evaluate).
type variableTag struct {
	base
	varName     Sequence
	set         bool
	body        Sequence
	contextName Sequence
}

func buildVariable(p *parser, tp *TagParse) (Tag, error) {
	a, err := p.bind(tp, []string{"name", "mode"}, "optionalContextName")
	if err != nil {
		return nil, err
	}

	t := &variableTag{
		base:        newBase(p, tp),
		varName:     a["name"],
		contextName: a["optionalContextName"],
	}

	mode, _ := a["mode"].Const()

	switch strings.ToLower(mode) {
	case "evaluate":
		return t, nil

	case "set":
		if p.inline > 0 {
			return nil, p.tagError(tp, ErrTagNotAllowed, slog.String("mode", mode))
		}

		if a.has("optionalContextName") {
			return nil, p.tagError(tp, ErrAttrConflict,
				slog.String("attribute", "optionalContextName"),
				slog.String("mode", mode))
		}

		body, term, err := p.parseBlock("endVariable")
		if err != nil {
			return nil, err
		}

		if err := p.bare(term); err != nil {
			return nil, err
		}

		t.set, t.body = true, body

		return t, nil

	default:
		return nil, p.tagError(tp, ErrAttrValue,
			slog.String("attribute", "mode"),
			slog.String("value", mode))
	}
}

func (t *variableTag) Evaluate(c *Context) error {
	name, err := t.varName.Render(c)
	if err != nil {
		return t.fail(err)
	}

	if t.set {
		c.frags[name] = t.body

		return nil
	}

	body, ok := c.frags[name]
	if !ok {
		attrs := []slog.Attr{slog.String("variable", name)}
		if s := suggest(name, sortedKeys(c.frags)); s != "" {
			attrs = append(attrs, slog.String("suggest", s))
		}

		return t.fail(ErrFragmentNotFound.With(attrs...))
	}

	contextName, err := t.contextName.Render(c)
	if err != nil {
		return t.fail(err)
	}

	if contextName != "" {
		n, err := c.outerNode(contextName)
		if err != nil {
			return t.fail(err)
		}

		c.pushNode(n)
		defer c.popNode()
	}

	leave, err := c.enter(name)
	if err != nil {
		return t.fail(err)
	}
	defer leave()

	return body.Evaluate(c)
}

func (t *variableTag) outline() outline {
	o := t.base.outline()
	o.Body = t.body.outlines()

	return o
}
