package lang

import (
	"log/slog"
	"maps"
	"slices"
	"strings"
)

// Tag is a node of a parsed template. The set of tags is closed; every
// implementation lives in this package.
type Tag interface {
	Name() string
	Line() int
	// Evaluate writes the tag's output through the current cursor of c.
	Evaluate(c *Context) error

	outline() outline
}

type entry struct {
	inText bool
	inAttr bool
	build  func(p *parser, tp *TagParse) (Tag, error)
}

var registry map[string]entry

func init() {
	registry = map[string]entry{
		"text":                   {build: buildText},
		"value":                  {inText: true, inAttr: true, build: buildValue},
		"forEach":                {build: buildForEach},
		"if":                     {build: buildIf},
		"and":                    {inText: true, inAttr: true, build: buildLogic(opAnd)},
		"or":                     {inText: true, inAttr: true, build: buildLogic(opOr)},
		"not":                    {inText: true, inAttr: true, build: buildLogic(opNot)},
		"first":                  {build: buildFirst},
		"counter":                {inText: true, inAttr: true, build: buildCounter},
		"counterVariable":        {inText: true, build: buildCounterVariable},
		"counterIncrement":       {inText: true, build: buildCounterStep(1)},
		"counterDecrement":       {inText: true, build: buildCounterStep(-1)},
		"outerContext":           {build: buildOuterContext},
		"outerContextEval":       {build: buildOuterContextEval},
		"file":                   {build: buildFile},
		"include":                {build: buildInclude},
		"variable":               {inText: true, inAttr: true, build: buildVariable},
		"tabSettings":            {inText: true, build: buildTabSettings},
		"tabMarker":              {inText: true, build: buildTabMarker},
		"tabStop":                {inText: true, build: buildTabStop},
		"customCode":             {inText: true, build: buildCustomCode},
		"typeConvert":            {inText: true, inAttr: true, build: buildTypeConvert},
		"typeConvertLoadFile":    {inText: true, build: buildTypeConvertLoadFile},
		"camelCase":              {inText: true, inAttr: true, build: buildCase(caseCamel)},
		"lowerCamelCase":         {inText: true, inAttr: true, build: buildCase(caseLowerCamel)},
		"snakeCase":              {inText: true, inAttr: true, build: buildCase(caseSnake)},
		"firstLetterToLowerCase": {inText: true, inAttr: true, build: buildCase(caseFirstLower)},
		"firstLetterToUpperCase": {inText: true, inAttr: true, build: buildCase(caseFirstUpper)},
		"upperCase":              {inText: true, inAttr: true, build: buildCase(caseUpper)},
		"lowerCase":              {inText: true, inAttr: true, build: buildCase(caseLower)},
	}

	// Tag names are matched without regard to case.
	for name, e := range registry {
		lowered[strings.ToLower(name)] = e
	}
}

var lowered = map[string]entry{}

func lookup(name string) (entry, bool) {
	e, ok := lowered[strings.ToLower(name)]

	return e, ok
}

// Names returns the registered tag names in sorted order.
func Names() []string {
	return slices.Sorted(maps.Keys(registry))
}

// base holds what every tag records about its invocation.
type base struct {
	name     string
	line     int
	template string
	attrs    []*Attr
}

func newBase(p *parser, tp *TagParse) base {
	return base{name: tp.Name, line: tp.Line, template: p.template, attrs: tp.Attrs}
}

func (b *base) Name() string { return b.name }
func (b *base) Line() int    { return b.line }

// fail annotates err with the tag's position unless a nested tag already
// did.
func (b *base) fail(err error, attrs ...slog.Attr) error {
	return annotate(err, append([]slog.Attr{
		slog.String("tag", b.name),
		slog.Int("line", b.line),
		slog.String("template", b.template),
	}, attrs...)...)
}

func (b *base) outline() outline {
	o := outline{Name: b.name, Line: b.line}

	for _, a := range b.attrs {
		o.Attrs = append(o.Attrs, a.Name.source()+"="+a.Value.source())
	}

	return o
}

// literal is template text copied to the output as is.
type literal struct {
	text string
	line int
}

func (l *literal) Name() string { return "literal" }
func (l *literal) Line() int    { return l.line }

func (l *literal) Evaluate(c *Context) error {
	c.write(l.text)

	return nil
}

func (l *literal) outline() outline {
	return outline{Name: l.Name(), Line: l.line, Text: l.text}
}

// Sequence is an ordered list of sibling tags.
type Sequence []Tag

// Evaluate evaluates each tag in order and stops at the first failure.
func (s Sequence) Evaluate(c *Context) error {
	for _, t := range s {
		if err := c.ctx.Err(); err != nil {
			return err
		}

		if err := t.Evaluate(c); err != nil {
			return err
		}
	}

	return nil
}

// Render evaluates s into a temporary cursor and returns the text.
func (s Sequence) Render(c *Context) (string, error) {
	if text, ok := s.Const(); ok {
		return text, nil
	}

	cur := c.pushCursor()
	defer c.popCursor()

	if err := s.Evaluate(c); err != nil {
		return "", err
	}

	return cur.String(), nil
}

// Const returns the text of s if it holds only literal text.
func (s Sequence) Const() (string, bool) {
	var b strings.Builder

	for _, t := range s {
		l, ok := t.(*literal)
		if !ok {
			return "", false
		}

		b.WriteString(l.text)
	}

	return b.String(), true
}

// source renders s compactly for diagnostics.
func (s Sequence) source() string {
	var b strings.Builder

	for _, t := range s {
		if l, ok := t.(*literal); ok {
			b.WriteString(l.text)

			continue
		}

		o := t.outline()

		b.WriteString("{" + o.Name)

		for _, a := range o.Attrs {
			b.WriteString(" " + a)
		}

		b.WriteString("}")
	}

	if strings.ContainsAny(b.String(), " \t\n") {
		return `"` + b.String() + `"`
	}

	return b.String()
}

func (s Sequence) outlines() []outline {
	out := make([]outline, 0, len(s))
	for _, t := range s {
		out = append(out, t.outline())
	}

	return out
}

// attrSet holds the attributes of one tag keyed by their declared name.
type attrSet map[string]Sequence

func (a attrSet) has(name string) bool {
	_, ok := a[name]

	return ok
}

// bind checks the attributes of tp against the declared required and
// optional names and returns them keyed by declared name. Names are
// matched without regard to case.
func (p *parser) bind(tp *TagParse, required []string, optional ...string) (attrSet, error) {
	known := slices.Concat(required, optional)
	set := attrSet{}

	for _, a := range tp.Attrs {
		key, ok := a.Key()
		if !ok {
			return nil, p.tagError(tp, ErrAttrSyntax,
				slog.String("attribute", a.Name.source()),
				slog.String("issue", "attribute name must be plain text"))
		}

		i := slices.IndexFunc(known, func(k string) bool {
			return strings.EqualFold(k, key)
		})

		if i < 0 {
			attrs := []slog.Attr{slog.String("attribute", key)}
			if s := suggest(key, known); s != "" {
				attrs = append(attrs, slog.String("suggest", s))
			}

			return nil, p.tagError(tp, ErrAttrUnknown, attrs...)
		}

		if set.has(known[i]) {
			return nil, p.tagError(tp, ErrAttrConflict,
				slog.String("attribute", known[i]),
				slog.String("issue", "attribute repeated"))
		}

		set[known[i]] = a.Value
	}

	for _, name := range required {
		if !set.has(name) {
			return nil, p.tagError(tp, ErrAttrMissing, slog.String("attribute", name))
		}
	}

	return set, nil
}
