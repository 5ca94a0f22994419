package lang

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/oldgreydog/codegen/config"
)

// forEachTag evaluates its body once for every child node, or every child
// value, with the given name.
type forEachTag struct {
	base
	ref         Sequence
	leaf        bool
	counterName Sequence
	body        Sequence
}

func buildForEach(p *parser, tp *TagParse) (Tag, error) {
	a, err := p.bind(tp, nil, "node", "value", "optionalCounterName")
	if err != nil {
		return nil, err
	}

	t := &forEachTag{base: newBase(p, tp), counterName: a["optionalCounterName"]}

	switch {
	case a.has("node") && a.has("value"):
		return nil, p.tagError(tp, ErrAttrConflict, slog.String("attribute", "node|value"))
	case a.has("node"):
		t.ref = a["node"]
	case a.has("value"):
		t.ref, t.leaf = a["value"], true
	default:
		return nil, p.tagError(tp, ErrAttrMissing, slog.String("attribute", "node|value"))
	}

	body, term, err := p.parseBlock("endFor")
	if err != nil {
		return nil, err
	}

	if err := p.bare(term); err != nil {
		return nil, err
	}

	t.body = body

	return t, nil
}

func (t *forEachTag) Evaluate(c *Context) error {
	ref, err := t.ref.Render(c)
	if err != nil {
		return t.fail(err)
	}

	name, err := t.counterName.Render(c)
	if err != nil {
		return t.fail(err)
	}

	items, err := c.children(ref, t.leaf)
	if err != nil {
		return t.fail(err)
	}

	lc := newCounter(name, 0)

	c.pushCounter(lc)
	defer c.popCounter()

	if name != "" {
		defer c.bindCounter(name, lc)()
	}

	for _, n := range items {
		lc.Value++

		if err := t.iterate(c, n); err != nil {
			return err
		}
	}

	return nil
}

func (t *forEachTag) iterate(c *Context, n *config.Node) error {
	c.pushNode(n)
	defer c.popNode()

	return t.body.Evaluate(c)
}

func (t *forEachTag) outline() outline {
	o := t.base.outline()
	o.Body = t.body.outlines()

	return o
}

// condition is one test of an if, elseIf or logic tag. It is either
// exists=<address> or <lhs>=<rhs>. A plain lhs names a config value; a lhs
// containing tags is evaluated. Equality ignores case.
type condition struct {
	base
	exists bool
	lhs    Sequence
	rhs    Sequence
}

// conditions parses the attributes of tp as conditions, requiring between
// lo and hi of them. hi < 0 means no upper bound.
func (p *parser) conditions(tp *TagParse, lo, hi int) ([]*condition, error) {
	switch n := len(tp.Attrs); {
	case n < lo:
		return nil, p.tagError(tp, ErrAttrMissing, slog.String("attribute", "condition"))
	case hi >= 0 && n > hi:
		return nil, p.tagError(tp, ErrAttrConflict,
			slog.String("issue", "too many conditions"),
			slog.Int("max", hi))
	}

	out := make([]*condition, 0, len(tp.Attrs))

	for _, a := range tp.Attrs {
		c := &condition{
			base: base{name: tp.Name, line: a.Line, template: p.template, attrs: []*Attr{a}},
			lhs:  a.Name,
			rhs:  a.Value,
		}

		if key, ok := a.Key(); ok && strings.EqualFold(key, "exists") {
			c.exists = true
		}

		out = append(out, c)
	}

	return out, nil
}

func (cd *condition) test(c *Context) (bool, error) {
	rhs, err := cd.rhs.Render(c)
	if err != nil {
		return false, cd.fail(err)
	}

	if cd.exists {
		ok, err := c.exists(rhs)
		if err != nil {
			return false, cd.fail(err)
		}

		return ok, nil
	}

	var lhs string

	if ref, plain := cd.lhs.Const(); plain {
		lhs, err = c.value(ref)
	} else {
		lhs, err = cd.lhs.Render(c)
	}

	if err != nil {
		return false, cd.fail(err)
	}

	return strings.EqualFold(lhs, rhs), nil
}

type branch struct {
	cond *condition
	name string
	line int
	body Sequence
}

// ifTag evaluates the body of the first branch whose condition holds.
type ifTag struct {
	base
	branches []branch
}

func buildIf(p *parser, tp *TagParse) (Tag, error) {
	conds, err := p.conditions(tp, 1, 1)
	if err != nil {
		return nil, err
	}

	t := &ifTag{base: newBase(p, tp)}
	next := branch{cond: conds[0], name: tp.Name, line: tp.Line}
	stop := []string{"elseIf", "else", "endIf"}

	for {
		body, term, err := p.parseBlock(stop...)
		if err != nil {
			return nil, err
		}

		next.body = body
		t.branches = append(t.branches, next)

		switch {
		case strings.EqualFold(term.Name, "endIf"):
			if err := p.bare(term); err != nil {
				return nil, err
			}

			return t, nil

		case strings.EqualFold(term.Name, "else"):
			if err := p.bare(term); err != nil {
				return nil, err
			}

			next = branch{name: term.Name, line: term.Line}
			stop = []string{"endIf"}

		default:
			conds, err := p.conditions(term, 1, 1)
			if err != nil {
				return nil, err
			}

			next = branch{cond: conds[0], name: term.Name, line: term.Line}
		}
	}
}

func (t *ifTag) Evaluate(c *Context) error {
	for _, b := range t.branches {
		if b.cond != nil {
			ok, err := b.cond.test(c)
			if err != nil {
				return err
			}

			if !ok {
				continue
			}
		}

		return b.body.Evaluate(c)
	}

	return nil
}

func (t *ifTag) outline() outline {
	o := outline{Name: t.name, Line: t.line}

	for _, b := range t.branches {
		bo := outline{Name: b.name, Line: b.line, Body: b.body.outlines()}
		if b.cond != nil {
			bo.Attrs = b.cond.outline().Attrs
		}

		o.Body = append(o.Body, bo)
	}

	return o
}

type logicOp int

const (
	opAnd logicOp = iota
	opOr
	opNot
)

// logicTag combines conditions and writes "true" or "false", so it can
// appear on either side of another condition.
type logicTag struct {
	base
	op    logicOp
	conds []*condition
}

func buildLogic(op logicOp) func(*parser, *TagParse) (Tag, error) {
	return func(p *parser, tp *TagParse) (Tag, error) {
		hi := -1
		if op == opNot {
			hi = 1
		}

		conds, err := p.conditions(tp, 1, hi)
		if err != nil {
			return nil, err
		}

		return &logicTag{base: newBase(p, tp), op: op, conds: conds}, nil
	}
}

func (t *logicTag) test(c *Context) (bool, error) {
	switch t.op {
	case opNot:
		ok, err := t.conds[0].test(c)

		return !ok, err

	case opOr:
		for _, cd := range t.conds {
			if ok, err := cd.test(c); err != nil || ok {
				return ok, err
			}
		}

		return false, nil

	default:
		for _, cd := range t.conds {
			if ok, err := cd.test(c); err != nil || !ok {
				return false, err
			}
		}

		return true, nil
	}
}

func (t *logicTag) Evaluate(c *Context) error {
	ok, err := t.test(c)
	if err != nil {
		return err
	}

	c.write(strconv.FormatBool(ok))

	return nil
}

// firstTag evaluates its first body the first time it runs for a counter
// and its else body on every later run for the same counter.
type firstTag struct {
	base
	counterName Sequence
	first       Sequence
	rest        Sequence
	hasElse     bool
}

func buildFirst(p *parser, tp *TagParse) (Tag, error) {
	a, err := p.bind(tp, nil, "optionalCounterName")
	if err != nil {
		return nil, err
	}

	t := &firstTag{base: newBase(p, tp), counterName: a["optionalCounterName"]}

	body, term, err := p.parseBlock("else", "endFirst")
	if err != nil {
		return nil, err
	}

	if err := p.bare(term); err != nil {
		return nil, err
	}

	t.first = body

	if strings.EqualFold(term.Name, "else") {
		if t.rest, term, err = p.parseBlock("endFirst"); err != nil {
			return nil, err
		}

		if err := p.bare(term); err != nil {
			return nil, err
		}

		t.hasElse = true
	}

	return t, nil
}

func (t *firstTag) Evaluate(c *Context) error {
	name, err := t.counterName.Render(c)
	if err != nil {
		return t.fail(err)
	}

	lc, err := c.counter(name)
	if err != nil {
		return t.fail(err)
	}

	if c.seen(t, lc) {
		return t.rest.Evaluate(c)
	}

	return t.first.Evaluate(c)
}

func (t *firstTag) outline() outline {
	o := t.base.outline()
	o.Body = t.first.outlines()

	if t.hasElse {
		o.Body = append(o.Body, outline{Name: "else", Body: t.rest.outlines()})
	}

	return o
}

// outerContextTag makes the current node reachable by name while its body
// is evaluated.
type outerContextTag struct {
	base
	contextName Sequence
	body        Sequence
}

func buildOuterContext(p *parser, tp *TagParse) (Tag, error) {
	a, err := p.bind(tp, []string{"contextName"})
	if err != nil {
		return nil, err
	}

	body, term, err := p.parseBlock("endContext")
	if err != nil {
		return nil, err
	}

	if err := p.bare(term); err != nil {
		return nil, err
	}

	return &outerContextTag{base: newBase(p, tp), contextName: a["contextName"], body: body}, nil
}

func (t *outerContextTag) Evaluate(c *Context) error {
	name, err := t.contextName.Render(c)
	if err != nil {
		return t.fail(err)
	}

	defer c.enterOuter(name, c.node())()

	return t.body.Evaluate(c)
}

func (t *outerContextTag) outline() outline {
	o := t.base.outline()
	o.Body = t.body.outlines()

	return o
}

// outerContextEvalTag evaluates its body with a named outer context as the
// current node.
type outerContextEvalTag struct {
	base
	contextName Sequence
	body        Sequence
}

func buildOuterContextEval(p *parser, tp *TagParse) (Tag, error) {
	a, err := p.bind(tp, []string{"contextName"})
	if err != nil {
		return nil, err
	}

	body, term, err := p.parseBlock("endContext")
	if err != nil {
		return nil, err
	}

	if err := p.bare(term); err != nil {
		return nil, err
	}

	return &outerContextEvalTag{base: newBase(p, tp), contextName: a["contextName"], body: body}, nil
}

func (t *outerContextEvalTag) Evaluate(c *Context) error {
	name, err := t.contextName.Render(c)
	if err != nil {
		return t.fail(err)
	}

	n, err := c.outerNode(name)
	if err != nil {
		return t.fail(err)
	}

	c.pushNode(n)
	defer c.popNode()

	return t.body.Evaluate(c)
}

func (t *outerContextEvalTag) outline() outline {
	o := t.base.outline()
	o.Body = t.body.outlines()

	return o
}
