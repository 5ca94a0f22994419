// Package lang implements the codegen template language.
//
// A template starts with a header line declaring its tag delimiters:
//
//	%%HEADER%% openingDelimiter=<% closingDelimiter=%>
//
// The rest of the file is a sequence of tags. Whitespace between tags is
// ignored; literal output appears only inside text blocks:
//
//	<%forEach node=table%>
//	<%text%>
//	class <%camelCase value=<%value name=name%>%> {
//	<%endText%>
//	<%endFor%>
//
// # Grammar
//
//	Tag      → Open Name (Attr)* Close
//	Attr     → Units '=' Units
//	Units    → (Word | '"' ... '"' | Tag)+
//
// There is no generic end-of-block token. A container tag parses child
// tags until it meets a tag name that is not registered and then checks
// that name against the terminators it accepts: forEach ends at endFor,
// and if accepts elseIf, else and endIf.
//
// # Addressing
//
// Config references name a child of the current node. Each leading '^'
// moves up one level first, "root." starts at the root, and dots descend
// through child nodes:
//
//	<%value name=^^schema.name%>
//
// # Evaluation
//
// A [Context] carries the current node, the output cursor, loop counters
// and tab settings as stacks. Container tags push on entry and pop on
// exit. [Generator] owns everything shared by one run: the template
// cache, the type conversion table and the optional worker pool that
// renders file tags concurrently.
package lang
