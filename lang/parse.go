package lang

import (
	"errors"
	"log/slog"
	"slices"
	"strings"

	"github.com/oldgreydog/codegen/pkg"
)

// TagParse is one tag invocation as written in a template.
type TagParse struct {
	Name  string
	Attrs []*Attr
	Line  int
}

// Attr is one attribute of a tag invocation. Both the name and the value
// may mix literal text with nested tags.
type Attr struct {
	Name  Sequence
	Value Sequence
	Line  int
}

// Key returns the attribute name if it is plain text.
func (a *Attr) Key() (string, bool) { return a.Name.Const() }

// Template is a parsed template file.
type Template struct {
	Name   string
	Header Header
	Body   Sequence
}

// Parse parses the template src. name is used in error attributes and
// for resolving the templates it references.
func Parse(name string, src []byte) (*Template, error) {
	lex, h, err := NewLexer(string(src))
	if err != nil {
		var e *pkg.Error
		if errors.As(err, &e) {
			return nil, e.With(slog.String("template", name), slog.Int("line", 1))
		}

		return nil, err
	}

	p := &parser{lex: lex, header: h, template: name}

	body, _, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	return &Template{Name: name, Header: h, Body: body}, nil
}

type parser struct {
	lex      *Lexer
	header   Header
	template string
	inline   int
}

// parseBlock builds tags until it reads a tag the registry does not know.
// That tag is returned to the caller as the block terminator and must be
// one of stop. With an empty stop set, the block is a whole template and
// ends at end of input.
func (p *parser) parseBlock(stop ...string) (Sequence, *TagParse, error) {
	var seq Sequence

	for {
		p.skipSpace()

		tok := p.lex.Next()

		switch tok.Kind {
		case KindOpen:
		case KindEOF:
			if len(stop) == 0 {
				return seq, nil, nil
			}

			return nil, nil, p.errorAt(ErrUnexpectedEOF, tok.Line,
				slog.String("expected", strings.Join(stop, "|")))
		default:
			return nil, nil, p.errorAt(ErrUnexpectedText, tok.Line,
				slog.String("text", tok.Text))
		}

		tp, err := p.parseTag(tok.Line)
		if err != nil {
			return nil, nil, err
		}

		e, ok := lookup(tp.Name)
		if !ok {
			if isStop(tp.Name, stop) {
				return seq, tp, nil
			}

			return nil, nil, p.unexpected(tp, stop)
		}

		t, err := p.build(e, tp, false)
		if err != nil {
			return nil, nil, err
		}

		seq = append(seq, t)
	}
}

// parseText collects literal text and inline tags until the tag named
// stop.
func (p *parser) parseText(stop string) (Sequence, *TagParse, error) {
	var (
		seq  Sequence
		text strings.Builder
		line int
	)

	flush := func() {
		if text.Len() > 0 {
			seq = append(seq, &literal{text: text.String(), line: line})
			text.Reset()
		}
	}

	for {
		tok := p.lex.Next()

		switch tok.Kind {
		case KindEOF:
			return nil, nil, p.errorAt(ErrUnexpectedEOF, tok.Line,
				slog.String("expected", stop))

		case KindOpen:
			flush()

			tp, err := p.parseTag(tok.Line)
			if err != nil {
				return nil, nil, err
			}

			e, ok := lookup(tp.Name)
			if !ok {
				if strings.EqualFold(tp.Name, stop) {
					return seq, tp, nil
				}

				return nil, nil, p.unexpected(tp, []string{stop})
			}

			if !e.inText {
				return nil, nil, p.tagError(tp, ErrTagNotAllowed,
					slog.String("context", "text"))
			}

			t, err := p.build(e, tp, true)
			if err != nil {
				return nil, nil, err
			}

			seq = append(seq, t)

		default:
			if text.Len() == 0 {
				line = tok.Line
			}

			text.WriteString(tok.Text)
		}
	}
}

// parseTag reads the remainder of a tag after its opening delimiter.
func (p *parser) parseTag(line int) (*TagParse, error) {
	p.skipSpace()

	tok := p.lex.Next()

	switch tok.Kind {
	case KindWord:
	case KindEOF:
		return nil, p.errorAt(ErrUnterminatedTag, line)
	default:
		return nil, p.errorAt(ErrTagName, tok.Line, slog.String("found", tok.Kind.String()))
	}

	tp := &TagParse{Name: tok.Text, Line: line}

	for {
		p.skipSpace()

		switch p.lex.Peek().Kind {
		case KindClose:
			p.lex.Next()

			return tp, nil
		case KindEOF:
			return nil, p.tagError(tp, ErrUnterminatedTag)
		}

		attr, err := p.parseAttr(tp)
		if err != nil {
			return nil, err
		}

		tp.Attrs = append(tp.Attrs, attr)
	}
}

func (p *parser) parseAttr(tp *TagParse) (*Attr, error) {
	line := p.lex.Line()

	name, err := p.parseUnits(true)
	if err != nil {
		return nil, err
	}

	if len(name) == 0 {
		return nil, p.tagError(tp, ErrAttrSyntax, slog.String("issue", "missing attribute name"))
	}

	p.skipSpace()

	if p.lex.Peek().Kind != KindEquals {
		return nil, p.tagError(tp, ErrAttrSyntax,
			slog.String("attribute", name.source()),
			slog.String("issue", "expected '='"))
	}

	p.lex.Next()
	p.skipSpace()

	value, err := p.parseUnits(false)
	if err != nil {
		return nil, err
	}

	return &Attr{Name: name, Value: value, Line: line}, nil
}

// parseUnits reads adjacent words, quoted strings and nested tags. A name
// ends at '='; a value treats '=' as text. Both end at whitespace or the
// closing delimiter.
func (p *parser) parseUnits(name bool) (Sequence, error) {
	var (
		seq  Sequence
		text strings.Builder
		line = p.lex.Line()
	)

	flush := func() {
		if text.Len() > 0 {
			seq = append(seq, &literal{text: text.String(), line: line})
			text.Reset()
		}
	}

	for {
		tok := p.lex.Peek()

		switch tok.Kind {
		case KindWord:
			p.lex.Next()
			text.WriteString(tok.Text)

		case KindEquals:
			if name {
				flush()

				return seq, nil
			}

			p.lex.Next()
			text.WriteString(tok.Text)

		case KindQuote:
			p.lex.Next()

			if err := p.parseQuoted(tok.Line, &seq, &text, flush); err != nil {
				return nil, err
			}

		case KindOpen:
			p.lex.Next()
			flush()

			t, err := p.parseNested(tok.Line)
			if err != nil {
				return nil, err
			}

			seq = append(seq, t)

		default:
			flush()

			return seq, nil
		}
	}
}

func (p *parser) parseQuoted(
	line int,
	seq *Sequence,
	text *strings.Builder,
	flush func(),
) error {
	for {
		tok := p.lex.Next()

		switch tok.Kind {
		case KindQuote:
			return nil

		case KindEOF:
			return p.errorAt(ErrUnterminatedStr, line)

		case KindOpen:
			flush()

			t, err := p.parseNested(tok.Line)
			if err != nil {
				return err
			}

			*seq = append(*seq, t)

		default:
			text.WriteString(tok.Text)
		}
	}
}

// parseNested parses a tag used inside an attribute.
func (p *parser) parseNested(line int) (Tag, error) {
	tp, err := p.parseTag(line)
	if err != nil {
		return nil, err
	}

	e, ok := lookup(tp.Name)
	if !ok || !e.inAttr {
		return nil, p.tagError(tp, ErrTagNotAllowed, slog.String("context", "attribute"))
	}

	return p.build(e, tp, true)
}

func (p *parser) build(e entry, tp *TagParse, inline bool) (Tag, error) {
	if inline {
		p.inline++
		defer func() { p.inline-- }()
	}

	return e.build(p, tp)
}

func (p *parser) skipSpace() {
	for p.lex.Peek().Kind == KindSpace {
		p.lex.Next()
	}
}

// bare checks that a terminator carries no attributes.
func (p *parser) bare(tp *TagParse) error {
	if len(tp.Attrs) > 0 {
		return p.tagError(tp, ErrAttrUnknown,
			slog.String("attribute", tp.Attrs[0].Name.source()))
	}

	return nil
}

func (p *parser) unexpected(tp *TagParse, stop []string) error {
	attrs := []slog.Attr{slog.String("name", tp.Name)}

	if len(stop) > 0 {
		attrs = append(attrs, slog.String("expected", strings.Join(stop, "|")))
	}

	if s := suggest(tp.Name, slices.Concat(Names(), stop)); s != "" {
		attrs = append(attrs, slog.String("suggest", s))
	}

	return p.errorAt(ErrUnexpectedTerminator, tp.Line, attrs...)
}

func (p *parser) errorAt(e *pkg.Error, line int, attrs ...slog.Attr) error {
	return e.With(append([]slog.Attr{
		slog.String("template", p.template),
		slog.Int("line", line),
	}, attrs...)...)
}

func (p *parser) tagError(tp *TagParse, e *pkg.Error, attrs ...slog.Attr) error {
	return p.errorAt(e, tp.Line, append([]slog.Attr{slog.String("tag", tp.Name)}, attrs...)...)
}

func isStop(name string, stop []string) bool {
	return slices.ContainsFunc(stop, func(s string) bool {
		return strings.EqualFold(s, name)
	})
}
