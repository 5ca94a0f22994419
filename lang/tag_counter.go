package lang

import (
	"log/slog"
	"strconv"
)

// counterTag writes the value of a named counter, or of the innermost
// loop counter.
type counterTag struct {
	base
	counterName Sequence
}

func buildCounter(p *parser, tp *TagParse) (Tag, error) {
	a, err := p.bind(tp, nil, "optionalCounterName")
	if err != nil {
		return nil, err
	}

	return &counterTag{base: newBase(p, tp), counterName: a["optionalCounterName"]}, nil
}

func (t *counterTag) Evaluate(c *Context) error {
	name, err := t.counterName.Render(c)
	if err != nil {
		return t.fail(err)
	}

	lc, err := c.counter(name)
	if err != nil {
		return t.fail(err)
	}

	c.write(strconv.Itoa(lc.Value))

	return nil
}

// counterVariableTag creates a named counter that is not tied to a loop.
// Every evaluation creates a new counter, so first tags keyed on it start
// over.
type counterVariableTag struct {
	base
	counterName Sequence
	initial     Sequence
}

func buildCounterVariable(p *parser, tp *TagParse) (Tag, error) {
	a, err := p.bind(tp, []string{"name"}, "initialValue")
	if err != nil {
		return nil, err
	}

	return &counterVariableTag{
		base:        newBase(p, tp),
		counterName: a["name"],
		initial:     a["initialValue"],
	}, nil
}

func (t *counterVariableTag) Evaluate(c *Context) error {
	name, err := t.counterName.Render(c)
	if err != nil {
		return t.fail(err)
	}

	text, err := t.initial.Render(c)
	if err != nil {
		return t.fail(err)
	}

	value := 0

	if text != "" {
		if value, err = strconv.Atoi(text); err != nil {
			return t.fail(ErrAttrValue.With(
				slog.String("attribute", "initialValue"),
				slog.String("value", text),
			).Wrap(err))
		}
	}

	c.named[name] = newCounter(name, value)

	return nil
}

// counterStepTag adds a fixed step to a named counter.
type counterStepTag struct {
	base
	counterName Sequence
	step        int
}

func buildCounterStep(step int) func(*parser, *TagParse) (Tag, error) {
	return func(p *parser, tp *TagParse) (Tag, error) {
		a, err := p.bind(tp, []string{"name"})
		if err != nil {
			return nil, err
		}

		return &counterStepTag{base: newBase(p, tp), counterName: a["name"], step: step}, nil
	}
}

func (t *counterStepTag) Evaluate(c *Context) error {
	name, err := t.counterName.Render(c)
	if err != nil {
		return t.fail(err)
	}

	if name == "" {
		return t.fail(ErrAttrValue.With(slog.String("attribute", "name")))
	}

	lc, err := c.counter(name)
	if err != nil {
		return t.fail(err)
	}

	lc.Value += t.step

	return nil
}
