package config

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/klauspost/readahead"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/oldgreydog/codegen/log"
	"github.com/oldgreydog/codegen/pkg"
)

var (
	ErrRead        = pkg.NewError("read configuration")
	ErrSyntax      = pkg.NewError("configuration syntax")
	ErrUnsupported = pkg.NewError("unsupported configuration element")
	ErrFormat      = pkg.NewError("unknown configuration format")
)

// Format identifies a configuration file encoding.
type Format int

const (
	FormatYAML Format = iota
	FormatHCL
)

// FormatOf chooses a Format from a file extension. JSON is read by the YAML
// decoder.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return FormatYAML, nil
	case ".hcl":
		return FormatHCL, nil
	default:
		return 0, ErrFormat.With(slog.String("file", path))
	}
}

// Load reads and decodes the configuration file at path.
func Load(ctx context.Context, path string, logger log.Logger) (*Node, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, ErrRead.With(slog.String("file", path)).Wrap(err)
	}
	defer f.Close()

	ra := readahead.NewReader(f)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return nil, ErrRead.With(slog.String("file", path)).Wrap(err)
	}

	var root *Node

	switch format {
	case FormatHCL:
		root, err = ParseHCL(data, path)
	default:
		root, err = ParseYAML(data)
	}

	if err != nil {
		return nil, err
	}

	logger.DebugContext(ctx, "loaded configuration",
		slog.String("file", path),
		slog.Int("children", len(root.Children())),
	)

	return root, nil
}

// ParseYAML decodes a YAML (or JSON) document into a tree.
//
// Mappings become container nodes and scalars become values. A sequence
// repeats its key: a sequence of mappings yields sibling nodes with the same
// name, a sequence of scalars yields sibling values.
func ParseYAML(data []byte) (*Node, error) {
	var doc any

	if err := yaml.UnmarshalWithOptions(data, &doc, yaml.UseOrderedMap()); err != nil {
		return nil, ErrSyntax.Wrap(err)
	}

	root := New(RootName)

	if doc == nil {
		return root, nil
	}

	items, ok := doc.(yaml.MapSlice)
	if !ok {
		return nil, ErrUnsupported.With(
			slog.String("path", RootName),
			slog.String("kind", fmt.Sprintf("%T", doc)),
		)
	}

	if err := addMapping(root, items); err != nil {
		return nil, err
	}

	return root, nil
}

func addMapping(n *Node, items yaml.MapSlice) error {
	for _, item := range items {
		if err := addYAML(n, fmt.Sprint(item.Key), item.Value); err != nil {
			return err
		}
	}

	return nil
}

func addYAML(n *Node, name string, v any) error {
	switch v := v.(type) {
	case yaml.MapSlice:
		return addMapping(n.AddNode(name), v)

	case []any:
		for _, elem := range v {
			if _, nested := elem.([]any); nested {
				return ErrUnsupported.With(
					slog.String("path", joinPath(n, name)),
					slog.String("kind", "nested sequence"),
				)
			}

			if err := addYAML(n, name, elem); err != nil {
				return err
			}
		}

		return nil

	default:
		n.AddValue(name, scalar(v))

		return nil
	}
}

func scalar(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

func joinPath(n *Node, name string) string {
	if p := n.Path(); p != "" {
		return p + "." + name
	}

	return name
}

// ParseHCL decodes an HCL document into a tree.
//
// Blocks become container nodes named by the block type; the first label is
// stored as the value "name" and further labels as "label2", "label3", ....
// Attributes become values. Attribute expressions are evaluated without
// variables or functions.
func ParseHCL(data []byte, filename string) (*Node, error) {
	file, diags := hclparse.NewParser().ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, ErrSyntax.With(slog.String("file", filename)).Wrap(diags)
	}

	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		return nil, ErrUnsupported.With(slog.String("file", filename))
	}

	root := New(RootName)

	if err := addBody(root, body); err != nil {
		return nil, err
	}

	return root, nil
}

// addBody adds attributes and blocks in source order; hclsyntax keeps
// attributes in a map.
func addBody(n *Node, body *hclsyntax.Body) error {
	type element struct {
		offset int
		attr   *hclsyntax.Attribute
		block  *hclsyntax.Block
	}

	elems := make([]element, 0, len(body.Attributes)+len(body.Blocks))

	for _, a := range body.Attributes {
		elems = append(elems, element{offset: a.SrcRange.Start.Byte, attr: a})
	}

	for _, b := range body.Blocks {
		elems = append(elems, element{offset: b.TypeRange.Start.Byte, block: b})
	}

	slices.SortFunc(elems, func(a, b element) int { return a.offset - b.offset })

	for _, e := range elems {
		if e.block != nil {
			child := n.AddNode(e.block.Type)

			for i, label := range e.block.Labels {
				key := "name"
				if i > 0 {
					key = "label" + strconv.Itoa(i+1)
				}

				child.AddValue(key, label)
			}

			if err := addBody(child, e.block.Body); err != nil {
				return err
			}

			continue
		}

		v, diags := e.attr.Expr.Value(nil)
		if diags.HasErrors() {
			return ErrSyntax.With(
				slog.String("path", joinPath(n, e.attr.Name)),
				slog.String("range", e.attr.SrcRange.String()),
			).Wrap(diags)
		}

		if err := addCty(n, e.attr.Name, v, e.attr.SrcRange); err != nil {
			return err
		}
	}

	return nil
}

func addCty(n *Node, name string, v cty.Value, rng hcl.Range) error {
	if v.IsNull() || !v.IsKnown() {
		n.AddValue(name, "")

		return nil
	}

	ty := v.Type()

	switch {
	case ty.IsPrimitiveType():
		s, err := convert.Convert(v, cty.String)
		if err != nil {
			return ErrUnsupported.With(
				slog.String("path", joinPath(n, name)),
				slog.String("range", rng.String()),
			).Wrap(err)
		}

		n.AddValue(name, s.AsString())

	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		for it := v.ElementIterator(); it.Next(); {
			_, elem := it.Element()

			et := elem.Type()
			if et.IsListType() || et.IsTupleType() || et.IsSetType() {
				return ErrUnsupported.With(
					slog.String("path", joinPath(n, name)),
					slog.String("kind", "nested sequence"),
				)
			}

			if err := addCty(n, name, elem, rng); err != nil {
				return err
			}
		}

	case ty.IsObjectType() || ty.IsMapType():
		child := n.AddNode(name)

		keys := make([]string, 0, v.LengthInt())
		vals := make(map[string]cty.Value, v.LengthInt())

		for it := v.ElementIterator(); it.Next(); {
			k, ev := it.Element()
			keys = append(keys, k.AsString())
			vals[k.AsString()] = ev
		}

		slices.Sort(keys)

		for _, k := range keys {
			if err := addCty(child, k, vals[k], rng); err != nil {
				return err
			}
		}

	default:
		return ErrUnsupported.With(
			slog.String("path", joinPath(n, name)),
			slog.String("kind", ty.FriendlyName()),
		)
	}

	return nil
}
