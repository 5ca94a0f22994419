package lang

import (
	"errors"
	"log/slog"

	"github.com/oldgreydog/codegen/pkg"
)

// Lexical errors.
var (
	ErrHeader          = pkg.NewError("malformed template header")
	ErrUnexpectedEOF   = pkg.NewError("unexpected end of template")
	ErrUnterminatedTag = pkg.NewError("unterminated tag")
	ErrUnterminatedStr = pkg.NewError("unterminated quoted string")
)

// Structural errors.
var (
	ErrAttrMissing          = pkg.NewError("required attribute missing")
	ErrAttrConflict         = pkg.NewError("conflicting attributes")
	ErrAttrUnknown          = pkg.NewError("unknown attribute")
	ErrAttrSyntax           = pkg.NewError("malformed attribute")
	ErrAttrValue            = pkg.NewError("invalid attribute value")
	ErrUnexpectedTerminator = pkg.NewError("unexpected block terminator")
	ErrUnexpectedText       = pkg.NewError("unexpected text outside of a text block")
	ErrTagNotAllowed        = pkg.NewError("tag not allowed here")
	ErrTagName              = pkg.NewError("missing tag name")
)

// Scoping errors.
var (
	ErrParentDepth      = pkg.NewError("parent reference above root")
	ErrNodeNotFound     = pkg.NewError("config node not found")
	ErrValueNotFound    = pkg.NewError("config value not found")
	ErrCounterNotFound  = pkg.NewError("counter not found")
	ErrContextNotFound  = pkg.NewError("outer context not found")
	ErrFragmentNotFound = pkg.NewError("variable not found")
	ErrIncludeDepth     = pkg.NewError("include depth exceeded")
)

// I/O and evaluation errors.
var (
	ErrReadTemplate = pkg.NewError("read template")
	ErrWriteOutput  = pkg.NewError("write output")
	ErrEvaluate     = pkg.NewError("evaluate tag")
)

// annotate attaches attrs to err. Errors of other packages are wrapped in
// ErrEvaluate so the attributes are never lost.
func annotate(err error, attrs ...slog.Attr) error {
	if err == nil {
		return nil
	}

	if e, ok := err.(*pkg.Error); ok { //nolint:errorlint
		if _, tagged := e.Attr("tag"); tagged {
			return e
		}

		return e.With(attrs...)
	}

	var e *pkg.Error
	if errors.As(err, &e) {
		if _, tagged := e.Attr("tag"); tagged {
			return err
		}
	}

	return ErrEvaluate.With(attrs...).Wrap(err)
}
