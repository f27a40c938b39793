// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package helm

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// polymerLexer tokenizes the simple-polymer section.
var polymerLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "PolymerID", Pattern: `(?:PEPTIDE|RNA|CHEM|BLOB)[1-9][0-9]*`},
	// Multi-letter IDs and inline SMILES; SMILES may nest one level of brackets.
	{Name: "Bracket", Pattern: `\[(?:[^\[\]]|\[[^\[\]]*\])*\]`},
	{Name: "Annotation", Pattern: `"[^"]*"`},
	{Name: "Repeat", Pattern: `'[^']*'`},
	{Name: "Symbol", Pattern: `[A-Za-z*?_]`},
	{Name: "Punct", Pattern: `[{}().|]`},
})

//nolint:govet // participle grammar tags are not standard struct tags
type polymerListAST struct {
	Polymers []*polymerAST `@@ ( "|" @@ )*`
}

//nolint:govet
type polymerAST struct {
	ID         string     `@PolymerID "{"`
	Units      []*unitAST `@@ ( "." @@ )* "}"`
	Annotation *string    `( @Annotation )?`
}

//nolint:govet
type unitAST struct {
	Group      []*unitAST `( "(" @@ ( "." @@ )* ")"`
	Items      []*itemAST `  | @@+ )`
	Repeat     *string    `( @Repeat )?`
	Annotation *string    `( @Annotation )?`
}

//nolint:govet
type itemAST struct {
	Monomer *monomerAST `@@`
	Branch  *monomerAST `( "(" @@ ")" )?`
}

//nolint:govet
type monomerAST struct {
	Symbol     string  `@( Symbol | Bracket )`
	Annotation *string `( @Annotation )?`
}

var polymerParser = participle.MustBuild[polymerListAST](
	participle.Lexer(polymerLexer),
)

// connectionLexer tokenizes the connection section and HELM1 pair section.
var connectionLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "PolymerID", Pattern: `(?:PEPTIDE|RNA|CHEM|BLOB|G)[1-9][0-9]*`},
	{Name: "Attach", Pattern: `R[1-9][0-9]*|pair|\?`},
	{Name: "Number", Pattern: `[0-9]+`},
	{Name: "Annotation", Pattern: `"[^"]*"`},
	{Name: "Punct", Pattern: `[,:\-|]`},
})

//nolint:govet
type connectionListAST struct {
	Connections []*connectionAST `@@ ( "|" @@ )*`
}

//nolint:govet
type connectionAST struct {
	Source       string  `@PolymerID ","`
	Target       string  `@PolymerID ","`
	SourcePos    string  `@( Number | "?" ) ":"`
	SourceAttach string  `@Attach "-"`
	TargetPos    string  `@( Number | "?" ) ":"`
	TargetAttach string  `@Attach`
	Annotation   *string `( @Annotation )?`
}

var connectionParser = participle.MustBuild[connectionListAST](
	participle.Lexer(connectionLexer),
)

// groupLexer tokenizes the HELM2 grouping section.
var groupLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "GroupID", Pattern: `G[1-9][0-9]*`},
	{Name: "PolymerID", Pattern: `(?:PEPTIDE|RNA|CHEM|BLOB)[1-9][0-9]*`},
	{Name: "Ratio", Pattern: `[0-9]+(?:\.[0-9]+)?(?:-[0-9]+(?:\.[0-9]+)?)?`},
	{Name: "Annotation", Pattern: `"[^"]*"`},
	{Name: "Punct", Pattern: `[()+,:|]`},
})

//nolint:govet
type groupListAST struct {
	Groups []*groupAST `@@ ( "|" @@ )*`
}

//nolint:govet
type groupAST struct {
	ID         string             `@GroupID "("`
	First      *groupMemberAST    `@@`
	Rest       []*groupMemberTail `@@* ")"`
	Annotation *string            `( @Annotation )?`
}

//nolint:govet
type groupMemberTail struct {
	Sep    string          `@( "+" | "," )`
	Member *groupMemberAST `@@`
}

//nolint:govet
type groupMemberAST struct {
	ID    string  `@( PolymerID | GroupID )`
	Ratio *string `( ":" @Ratio )?`
}

var groupParser = participle.MustBuild[groupListAST](
	participle.Lexer(groupLexer),
)
