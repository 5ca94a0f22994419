package lang

import (
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/iancoleman/strcase"
)

// textTag copies literal text and inline tags to the output.
type textTag struct {
	base
	body Sequence
}

func buildText(p *parser, tp *TagParse) (Tag, error) {
	if _, err := p.bind(tp, nil); err != nil {
		return nil, err
	}

	body, term, err := p.parseText("endText")
	if err != nil {
		return nil, err
	}

	if err := p.bare(term); err != nil {
		return nil, err
	}

	return &textTag{base: newBase(p, tp), body: body}, nil
}

func (t *textTag) Evaluate(c *Context) error { return t.body.Evaluate(c) }

func (t *textTag) outline() outline {
	o := t.base.outline()
	o.Body = t.body.outlines()

	return o
}

// valueTag writes a config value.
type valueTag struct {
	base
	ref Sequence
}

func buildValue(p *parser, tp *TagParse) (Tag, error) {
	a, err := p.bind(tp, []string{"name"})
	if err != nil {
		return nil, err
	}

	return &valueTag{base: newBase(p, tp), ref: a["name"]}, nil
}

func (t *valueTag) Evaluate(c *Context) error {
	ref, err := t.ref.Render(c)
	if err != nil {
		return t.fail(err)
	}

	v, err := c.value(ref)
	if err != nil {
		return t.fail(err)
	}

	c.write(v)

	return nil
}

type caseOp int

const (
	caseCamel caseOp = iota
	caseLowerCamel
	caseSnake
	caseFirstLower
	caseFirstUpper
	caseUpper
	caseLower
)

func (op caseOp) apply(s string) string {
	switch op {
	case caseCamel:
		return strcase.ToCamel(s)
	case caseLowerCamel:
		return strcase.ToLowerCamel(s)
	case caseSnake:
		return strcase.ToSnake(s)
	case caseFirstLower:
		return mapFirst(s, unicode.ToLower)
	case caseFirstUpper:
		return mapFirst(s, unicode.ToUpper)
	case caseUpper:
		return strings.ToUpper(s)
	case caseLower:
		return strings.ToLower(s)
	default:
		return s
	}
}

func mapFirst(s string, fn func(rune) rune) string {
	r, n := utf8.DecodeRuneInString(s)
	if n == 0 {
		return s
	}

	return string(fn(r)) + s[n:]
}

// caseTag writes its value attribute with the case of its letters changed.
type caseTag struct {
	base
	op    caseOp
	value Sequence
}

func buildCase(op caseOp) func(*parser, *TagParse) (Tag, error) {
	return func(p *parser, tp *TagParse) (Tag, error) {
		a, err := p.bind(tp, []string{"value"})
		if err != nil {
			return nil, err
		}

		return &caseTag{base: newBase(p, tp), op: op, value: a["value"]}, nil
	}
}

func (t *caseTag) Evaluate(c *Context) error {
	s, err := t.value.Render(c)
	if err != nil {
		return t.fail(err)
	}

	c.write(t.op.apply(s))

	return nil
}

// typeConvertTag writes the target language type mapped from a source
// type, or nothing if no mapping is loaded.
type typeConvertTag struct {
	base
	language Sequence
	source   Sequence
	group    Sequence
}

func buildTypeConvert(p *parser, tp *TagParse) (Tag, error) {
	a, err := p.bind(tp, []string{"targetLanguage", "sourceType"}, "groupID")
	if err != nil {
		return nil, err
	}

	return &typeConvertTag{
		base:     newBase(p, tp),
		language: a["targetLanguage"],
		source:   a["sourceType"],
		group:    a["groupID"],
	}, nil
}

func (t *typeConvertTag) Evaluate(c *Context) error {
	var language, source, group string

	for _, f := range []struct {
		dst *string
		seq Sequence
	}{
		{&language, t.language},
		{&source, t.source},
		{&group, t.group},
	} {
		s, err := f.seq.Render(c)
		if err != nil {
			return t.fail(err)
		}

		*f.dst = s
	}

	target, ok := c.run.types.Lookup(language, source, group)
	if !ok {
		c.run.logger.DebugContext(c.ctx, "no type mapping",
			slog.String("language", language),
			slog.String("source", source),
			slog.String("group", group),
		)
	}

	c.write(target)

	return nil
}

// typeConvertLoadFileTag loads a type mapping document for a language the
// first time it is evaluated.
type typeConvertLoadFileTag struct {
	base
	language Sequence
	file     Sequence
}

func buildTypeConvertLoadFile(p *parser, tp *TagParse) (Tag, error) {
	a, err := p.bind(tp, []string{"targetLanguage", "file"})
	if err != nil {
		return nil, err
	}

	return &typeConvertLoadFileTag{
		base:     newBase(p, tp),
		language: a["targetLanguage"],
		file:     a["file"],
	}, nil
}

func (t *typeConvertLoadFileTag) Evaluate(c *Context) error {
	language, err := t.language.Render(c)
	if err != nil {
		return t.fail(err)
	}

	file, err := t.file.Render(c)
	if err != nil {
		return t.fail(err)
	}

	path := c.run.templatePath(file)

	read, err := c.run.types.LoadFile(path, language)
	if err != nil {
		return t.fail(err)
	}

	if read {
		c.run.logger.DebugContext(c.ctx, "loaded type map",
			slog.String("language", language),
			slog.String("file", path),
		)
	}

	return nil
}
