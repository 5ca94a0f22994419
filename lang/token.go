package lang

import (
	"cmp"
	"log/slog"
	"slices"
	"strings"
	"unicode/utf8"
)

// Kind identifies the class of a [Token].
type Kind int

const (
	KindEOF Kind = iota
	KindOpen
	KindClose
	KindEquals
	KindQuote
	KindSpace
	KindWord
)

func (k Kind) String() string {
	switch k {
	case KindEOF:
		return "EOF"
	case KindOpen:
		return "Open"
	case KindClose:
		return "Close"
	case KindEquals:
		return "Equals"
	case KindQuote:
		return "Quote"
	case KindSpace:
		return "Space"
	case KindWord:
		return "Word"
	default:
		return "Unknown"
	}
}

// Token is one lexical unit of a template.
type Token struct {
	Kind Kind
	Text string
	Line int
}

// HeaderMarker begins the mandatory first line of every template.
const HeaderMarker = "%%HEADER%%"

// Header holds the tag delimiters declared by a template.
type Header struct {
	Open  string
	Close string
}

// ParseHeader parses a header line of the form
//
//	%%HEADER%% openingDelimiter=<% closingDelimiter=%>
//
// Keys are matched without regard to case and may appear in either order.
func ParseHeader(line string) (Header, error) {
	line = strings.TrimRight(line, "\r\n")

	rest, ok := strings.CutPrefix(strings.TrimSpace(line), HeaderMarker)
	if !ok {
		return Header{}, ErrHeader.With(slog.String("issue", "missing "+HeaderMarker))
	}

	var h Header

	for _, field := range strings.Fields(rest) {
		key, val, ok := strings.Cut(field, "=")
		if !ok {
			return Header{}, ErrHeader.With(slog.String("field", field))
		}

		switch {
		case strings.EqualFold(key, "openingDelimiter"):
			h.Open = val
		case strings.EqualFold(key, "closingDelimiter"):
			h.Close = val
		default:
			return Header{}, ErrHeader.With(slog.String("field", field))
		}
	}

	switch {
	case h.Open == "" || h.Close == "":
		return Header{}, ErrHeader.With(slog.String("issue", "both delimiters are required"))
	case h.Open == h.Close:
		return Header{}, ErrHeader.With(slog.String("issue", "delimiters must differ"))
	case strings.ContainsAny(h.Open+h.Close, `="`):
		return Header{}, ErrHeader.With(slog.String("issue", `delimiters may not contain '=' or '"'`))
	}

	return h, nil
}

type symbol struct {
	text string
	kind Kind
}

// Lexer splits a template body into tokens. It supports one token of
// lookahead through [Lexer.Peek].
type Lexer struct {
	src     string
	pos     int
	line    int
	symbols []symbol
	peeked  *Token
}

// NewLexer reads the header of src and returns a Lexer positioned at the
// start of the second line.
func NewLexer(src string) (*Lexer, Header, error) {
	first, body, _ := strings.Cut(src, "\n")

	h, err := ParseHeader(first)
	if err != nil {
		return nil, Header{}, err
	}

	syms := []symbol{
		{h.Open, KindOpen},
		{h.Close, KindClose},
		{"=", KindEquals},
		{`"`, KindQuote},
	}

	// longest match first
	slices.SortStableFunc(syms, func(a, b symbol) int {
		return cmp.Compare(len(b.text), len(a.text))
	})

	return &Lexer{src: body, line: 2, symbols: syms}, h, nil
}

// Next consumes and returns the next token.
func (l *Lexer) Next() Token {
	if l.peeked != nil {
		t := *l.peeked
		l.peeked = nil

		return t
	}

	return l.scan()
}

// Peek returns the next token without consuming it.
func (l *Lexer) Peek() Token {
	if l.peeked == nil {
		t := l.scan()
		l.peeked = &t
	}

	return *l.peeked
}

// Line returns the line of the next token.
func (l *Lexer) Line() int {
	if l.peeked != nil {
		return l.peeked.Line
	}

	return l.line
}

func (l *Lexer) scan() Token {
	if l.pos >= len(l.src) {
		return Token{Kind: KindEOF, Line: l.line}
	}

	if sym, ok := l.symbolAt(l.pos); ok {
		t := Token{Kind: sym.kind, Text: sym.text, Line: l.line}
		l.pos += len(sym.text)

		return t
	}

	start, line := l.pos, l.line

	if isSpace(l.src[l.pos]) {
		for l.pos < len(l.src) && isSpace(l.src[l.pos]) {
			if l.src[l.pos] == '\n' {
				l.line++
			}

			l.pos++
		}

		return Token{Kind: KindSpace, Text: l.src[start:l.pos], Line: line}
	}

	for l.pos < len(l.src) && !isSpace(l.src[l.pos]) {
		if _, ok := l.symbolAt(l.pos); ok {
			break
		}

		_, size := utf8.DecodeRuneInString(l.src[l.pos:])
		l.pos += size
	}

	return Token{Kind: KindWord, Text: l.src[start:l.pos], Line: line}
}

func (l *Lexer) symbolAt(pos int) (symbol, bool) {
	for _, s := range l.symbols {
		if strings.HasPrefix(l.src[pos:], s.text) {
			return s, true
		}
	}

	return symbol{}, false
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\n'
}
