package lang

import (
	"context"
	"log/slog"
	"maps"
	"sync/atomic"

	"github.com/oldgreydog/codegen/config"
	"github.com/oldgreydog/codegen/custom"
)

// LoopCounter counts the iterations of one loop evaluation, or holds the
// value of a counter variable. Its identity, not its value, decides which
// branch of a first tag runs.
type LoopCounter struct {
	ID    uint64
	Name  string
	Value int
}

var counterIDs atomic.Uint64

func newCounter(name string, value int) *LoopCounter {
	return &LoopCounter{ID: counterIDs.Add(1), Name: name, Value: value}
}

type firstKey struct {
	tag Tag
	id  uint64
}

// Context is the state threaded through evaluation. Every push is undone
// by the frame that made it, including on failure.
//
// A Context is not safe for concurrent use. Work dispatched to another
// goroutine receives a copy made by fork.
type Context struct {
	ctx context.Context
	run *run

	nodes    []*config.Node
	cursors  []*cursor
	counters []*LoopCounter
	tabs     []*TabSettings

	named  map[string]*LoopCounter
	outer  map[string][]*config.Node
	frags  map[string]Sequence
	firsts map[firstKey]struct{}

	custom *custom.Manager
	depth  int
}

func newContext(ctx context.Context, r *run, root *config.Node) *Context {
	return &Context{
		ctx:     ctx,
		run:     r,
		nodes:   []*config.Node{root},
		cursors: []*cursor{{}},
		tabs:    []*TabSettings{NewTabSettings(DefaultTabSize, false)},
		named:   map[string]*LoopCounter{},
		outer:   map[string][]*config.Node{},
		frags:   map[string]Sequence{},
		firsts:  map[firstKey]struct{}{},
		custom:  custom.New(),
	}
}

// fork returns a copy of c for evaluation on another goroutine. Counters
// are copied with their identities, so first tags behave as they would
// have on the original. The copy starts with a single fresh cursor and no
// custom code.
func (c *Context) fork() *Context {
	copies := make(map[*LoopCounter]*LoopCounter, len(c.counters)+len(c.named))

	dup := func(lc *LoopCounter) *LoopCounter {
		if d, ok := copies[lc]; ok {
			return d
		}

		d := *lc
		copies[lc] = &d

		return &d
	}

	f := &Context{
		ctx:      c.ctx,
		run:      c.run,
		nodes:    append([]*config.Node(nil), c.nodes...),
		cursors:  []*cursor{{}},
		counters: make([]*LoopCounter, 0, len(c.counters)),
		tabs:     []*TabSettings{c.tab().clone()},
		named:    make(map[string]*LoopCounter, len(c.named)),
		outer:    make(map[string][]*config.Node, len(c.outer)),
		frags:    maps.Clone(c.frags),
		firsts:   maps.Clone(c.firsts),
		custom:   custom.New(),
		depth:    c.depth,
	}

	for _, lc := range c.counters {
		f.counters = append(f.counters, dup(lc))
	}

	for name, lc := range c.named {
		f.named[name] = dup(lc)
	}

	for name, stack := range c.outer {
		f.outer[name] = append([]*config.Node(nil), stack...)
	}

	return f
}

func (c *Context) node() *config.Node { return c.nodes[len(c.nodes)-1] }

func (c *Context) pushNode(n *config.Node) { c.nodes = append(c.nodes, n) }

func (c *Context) popNode() { c.nodes = c.nodes[:len(c.nodes)-1] }

func (c *Context) cursor() *cursor { return c.cursors[len(c.cursors)-1] }

func (c *Context) pushCursor() *cursor {
	cur := &cursor{}
	c.cursors = append(c.cursors, cur)

	return cur
}

func (c *Context) popCursor() { c.cursors = c.cursors[:len(c.cursors)-1] }

func (c *Context) write(s string) { c.cursor().WriteString(s) }

func (c *Context) tab() *TabSettings { return c.tabs[len(c.tabs)-1] }

// pushTabs opens a tab scope that starts as a copy of the enclosing one.
func (c *Context) pushTabs() { c.tabs = append(c.tabs, c.tab().clone()) }

func (c *Context) popTabs() { c.tabs = c.tabs[:len(c.tabs)-1] }

func (c *Context) pushCounter(lc *LoopCounter) { c.counters = append(c.counters, lc) }

func (c *Context) popCounter() { c.counters = c.counters[:len(c.counters)-1] }

// counter returns the counter registered under name, or the innermost loop
// counter if name is empty.
func (c *Context) counter(name string) (*LoopCounter, error) {
	if name == "" {
		if len(c.counters) == 0 {
			return nil, ErrCounterNotFound.With(slog.String("issue", "not inside a loop"))
		}

		return c.counters[len(c.counters)-1], nil
	}

	lc, ok := c.named[name]
	if !ok {
		attrs := []slog.Attr{slog.String("counter", name)}
		if s := suggest(name, sortedKeys(c.named)); s != "" {
			attrs = append(attrs, slog.String("suggest", s))
		}

		return nil, ErrCounterNotFound.With(attrs...)
	}

	return lc, nil
}

// bindCounter registers lc under name and returns a func restoring the
// counter it shadowed.
func (c *Context) bindCounter(name string, lc *LoopCounter) func() {
	prev, had := c.named[name]
	c.named[name] = lc

	return func() {
		if had {
			c.named[name] = prev
		} else {
			delete(c.named, name)
		}
	}
}

func (c *Context) outerNode(name string) (*config.Node, error) {
	stack := c.outer[name]
	if len(stack) == 0 {
		attrs := []slog.Attr{slog.String("context", name)}
		if s := suggest(name, sortedKeys(c.outer)); s != "" {
			attrs = append(attrs, slog.String("suggest", s))
		}

		return nil, ErrContextNotFound.With(attrs...)
	}

	return stack[len(stack)-1], nil
}

// enterOuter records n under name until the returned func is called.
func (c *Context) enterOuter(name string, n *config.Node) func() {
	c.outer[name] = append(c.outer[name], n)

	return func() {
		stack := c.outer[name]
		if len(stack) <= 1 {
			delete(c.outer, name)
		} else {
			c.outer[name] = stack[:len(stack)-1]
		}
	}
}

// seen reports whether the first tag t has already run for lc, and marks
// it as seen.
func (c *Context) seen(t Tag, lc *LoopCounter) bool {
	k := firstKey{tag: t, id: lc.ID}
	if _, ok := c.firsts[k]; ok {
		return true
	}

	c.firsts[k] = struct{}{}

	return false
}

// maxDepth bounds the nesting of includes, files and variables.
const maxDepth = 64

// enter increments the nesting depth and returns a func that undoes it.
func (c *Context) enter(name string) (func(), error) {
	if c.depth >= maxDepth {
		return nil, ErrIncludeDepth.With(
			slog.String("name", name),
			slog.Int("max", maxDepth),
		)
	}

	c.depth++

	return func() { c.depth-- }, nil
}
