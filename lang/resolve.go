package lang

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/oldgreydog/codegen/config"
)

// rootPrefix makes an address absolute.
const rootPrefix = "root."

// address is a parsed config reference. Each leading '^' moves one level
// up from the current node before the dotted path is followed.
type address struct {
	raw  string
	root bool
	up   int
	path []string
}

func parseAddress(s string) address {
	a := address{raw: s}

	if rest, ok := strings.CutPrefix(s, rootPrefix); ok {
		a.root, s = true, rest
	}

	for strings.HasPrefix(s, "^") {
		a.up++
		s = s[1:]
	}

	if s != "" {
		a.path = strings.Split(s, ".")
	}

	return a
}

func (a address) last() string {
	if len(a.path) == 0 {
		return ""
	}

	return a.path[len(a.path)-1]
}

// locate returns the node holding the last element of a.
func (c *Context) locate(a address) (*config.Node, error) {
	n := c.node()
	if a.root {
		n = n.Root()
	}

	for i := range a.up {
		if n.Parent() == nil {
			return nil, ErrParentDepth.With(
				slog.String("address", a.raw),
				slog.Int("levels", a.up),
				slog.Int("depth", i),
			)
		}

		n = n.Parent()
	}

	if len(a.path) == 0 {
		return nil, ErrAttrValue.With(slog.String("address", a.raw))
	}

	for _, name := range a.path[:len(a.path)-1] {
		next := n.Node(name)
		if next == nil {
			attrs := []slog.Attr{
				slog.String("address", a.raw),
				slog.String("node", name),
			}
			if s := suggest(name, n.Names()); s != "" {
				attrs = append(attrs, slog.String("suggest", s))
			}

			return nil, ErrNodeNotFound.With(attrs...)
		}

		n = next
	}

	return n, nil
}

// value resolves ref to the text of a config value.
func (c *Context) value(ref string) (string, error) {
	a := parseAddress(ref)

	n, err := c.locate(a)
	if err != nil {
		return "", err
	}

	v, ok := n.Value(a.last())
	if !ok {
		attrs := []slog.Attr{slog.String("address", ref)}
		if p := n.Path(); p != "" {
			attrs = append(attrs, slog.String("node", p))
		}

		if s := suggest(a.last(), n.Names()); s != "" {
			attrs = append(attrs, slog.String("suggest", s))
		}

		return "", ErrValueNotFound.With(attrs...)
	}

	return v, nil
}

// exists reports whether ref names a child node or value. Only a parent
// reference above the root is an error.
func (c *Context) exists(ref string) (bool, error) {
	a := parseAddress(ref)

	n, err := c.locate(a)
	if err != nil {
		if errors.Is(err, ErrParentDepth) {
			return false, err
		}

		return false, nil
	}

	if n.Node(a.last()) != nil {
		return true, nil
	}

	_, ok := n.Value(a.last())

	return ok, nil
}

// children returns the child nodes, or the child values if leaf is set,
// that ref names.
func (c *Context) children(ref string, leaf bool) ([]*config.Node, error) {
	a := parseAddress(ref)

	n, err := c.locate(a)
	if err != nil {
		return nil, err
	}

	if leaf {
		return n.Values(a.last()), nil
	}

	return n.Nodes(a.last()), nil
}
