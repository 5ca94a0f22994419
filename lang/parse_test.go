package lang

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/oldgreydog/codegen/pkg"
)

const header = "%%HEADER%% openingDelimiter=<% closingDelimiter=%>\n"

func names(s Sequence) []string {
	out := make([]string, 0, len(s))
	for _, t := range s {
		out = append(out, t.Name())
	}

	return out
}

func TestParse_Structure(t *testing.T) {
	src := header + `
<%forEach node=table%>
  <%if exists=column%>
    <%text%>has columns<%endText%>
  <%elseIf name=empty%>
  <%else%>
    <%text%>none<%endText%>
  <%endIf%>
<%endFor%>
<%TEXT%>done<%ENDTEXT%>
`

	tmpl, err := Parse("structure.tmpl", []byte(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if diff := cmp.Diff([]string{"forEach", "TEXT"}, names(tmpl.Body)); diff != "" {
		t.Fatalf("top level mismatch (-want +got):\n%s", diff)
	}

	loop, ok := tmpl.Body[0].(*forEachTag)
	if !ok {
		t.Fatalf("Body[0] is %T", tmpl.Body[0])
	}

	if loop.Line() != 3 {
		t.Errorf("forEach line = %d, want 3", loop.Line())
	}

	cond, ok := loop.body[0].(*ifTag)
	if !ok {
		t.Fatalf("loop body[0] is %T", loop.body[0])
	}

	var got []string
	for _, b := range cond.branches {
		got = append(got, b.name)
	}

	if diff := cmp.Diff([]string{"if", "elseIf", "else"}, got); diff != "" {
		t.Errorf("branches mismatch (-want +got):\n%s", diff)
	}

	if len(cond.branches[1].body) != 0 {
		t.Errorf("empty elseIf body has %d tags", len(cond.branches[1].body))
	}
}

func TestParse_Attributes(t *testing.T) {
	src := header +
		`<%text%><%value name="quoted name"%>|<%customCode key=<%value name=table%>Body openComment = "<!--" closeComment=-->%><%endText%>`

	tmpl, err := Parse("attrs.tmpl", []byte(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	text := tmpl.Body[0].(*textTag)

	if diff := cmp.Diff([]string{"value", "literal", "customCode"}, names(text.body)); diff != "" {
		t.Fatalf("text body mismatch (-want +got):\n%s", diff)
	}

	v := text.body[0].(*valueTag)
	if ref, ok := v.ref.Const(); !ok || ref != "quoted name" {
		t.Errorf("value ref = %q, %v", ref, ok)
	}

	cc := text.body[2].(*customCodeTag)

	if diff := cmp.Diff([]string{"value", "literal"}, names(cc.key)); diff != "" {
		t.Errorf("key mismatch (-want +got):\n%s", diff)
	}

	if s, _ := cc.openComment.Const(); s != "<!--" {
		t.Errorf("openComment = %q", s)
	}

	if s, _ := cc.closeComment.Const(); s != "-->" {
		t.Errorf("closeComment = %q", s)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want *pkg.Error
		line int
	}{
		{"missing header", "<%text%>x<%endText%>", ErrHeader, 1},
		{"text outside block", header + "hello", ErrUnexpectedText, 2},
		{"wrong terminator", header + "<%forEach node=a%>\n<%endIf%>", ErrUnexpectedTerminator, 3},
		{"unknown top-level tag", header + "<%bogus%>", ErrUnexpectedTerminator, 2},
		{"missing terminator", header + "<%forEach node=a%>", ErrUnexpectedEOF, 2},
		{"unterminated text", header + "<%text%>abc", ErrUnexpectedEOF, 2},
		{"unterminated tag", header + "<%value name=a", ErrUnterminatedTag, 2},
		{"unterminated string", header + `<%value name="a%>`, ErrUnterminatedStr, 2},
		{"missing equals", header + "<%value name%>", ErrAttrSyntax, 2},
		{"missing name", header + "<%%>", ErrTagName, 2},
		{"unknown attribute", header + "<%value nmae=a%>", ErrAttrUnknown, 2},
		{"repeated attribute", header + "<%value name=a name=b%>", ErrAttrConflict, 2},
		{"missing attribute", header + "<%customCode%>", ErrAttrMissing, 2},
		{"node and value", header + "<%forEach node=a value=b%><%endFor%>", ErrAttrConflict, 2},
		{"neither node nor value", header + "<%forEach%><%endFor%>", ErrAttrMissing, 2},
		{"block tag in text", header + "<%text%><%forEach node=a%><%endFor%><%endText%>", ErrTagNotAllowed, 2},
		{"block tag in attribute", header + "<%value name=<%include template=x%>%>", ErrTagNotAllowed, 2},
		{"else after else", header + "<%if a=b%><%else%><%else%><%endIf%>", ErrUnexpectedTerminator, 2},
		{"if without condition", header + "<%if%><%endIf%>", ErrAttrMissing, 2},
		{"not with two conditions", header + "<%text%><%not a=b c=d%><%endText%>", ErrAttrConflict, 2},
		{"terminator with attribute", header + "<%forEach node=a%><%endFor x=y%>", ErrAttrUnknown, 2},
		{"variable set inline", header + "<%text%><%variable name=a mode=set%><%endText%>", ErrTagNotAllowed, 2},
		{"variable bad mode", header + "<%variable name=a mode=store%>", ErrAttrValue, 2},
		{"dynamic attribute name", header + "<%value <%value name=a%>=b%>", ErrAttrSyntax, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("bad.tmpl", []byte(tt.src))
			if !errors.Is(err, tt.want) {
				t.Fatalf("Parse() error = %v, want %v", err, tt.want)
			}

			var e *pkg.Error
			if !errors.As(err, &e) {
				t.Fatalf("error %T is not *pkg.Error", err)
			}

			if v, ok := e.Attr("line"); !ok || int(v.Int64()) != tt.line {
				t.Errorf("line attribute = %v, want %d", v, tt.line)
			}

			if v, ok := e.Attr("template"); !ok || v.String() != "bad.tmpl" {
				t.Errorf("template attribute = %v", v)
			}
		})
	}
}

func TestParse_TerminatorSuggestion(t *testing.T) {
	_, err := Parse("typo.tmpl", []byte(header+"<%forEach node=a%><%endFo%>"))

	var e *pkg.Error
	if !errors.As(err, &e) {
		t.Fatalf("Parse() error = %v", err)
	}

	if v, _ := e.Attr("expected"); v.String() != "endFor" {
		t.Errorf("expected attribute = %q", v.String())
	}

	if v, _ := e.Attr("suggest"); v.String() != "endFor" {
		t.Errorf("suggest attribute = %q", v.String())
	}
}

func TestParse_Dynamic(t *testing.T) {
	src := header + `<%if <%and type=int exists=name%>=true%><%endIf%>`

	tmpl, err := Parse("dyn.tmpl", []byte(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	cond := tmpl.Body[0].(*ifTag).branches[0].cond

	if _, plain := cond.lhs.Const(); plain {
		t.Error("lhs with a nested tag reported as plain")
	}

	if diff := cmp.Diff([]string{"and"}, names(cond.lhs)); diff != "" {
		t.Errorf("lhs mismatch (-want +got):\n%s", diff)
	}

	if !strings.Contains(cond.lhs.source(), "{and type=int exists=name}") {
		t.Errorf("source() = %q", cond.lhs.source())
	}
}
