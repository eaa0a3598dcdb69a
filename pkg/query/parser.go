package query

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var (
	queryLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Comment", Pattern: `;[^\n]*`},
		{Name: "whitespace", Pattern: `\s+`},
		{Name: "String", Pattern: `"(?:\\.|[^"\\])*"`},
		{Name: "Capture", Pattern: `@[\p{L}_][\p{L}\p{N}_.\-]*`},
		{Name: "Predicate", Pattern: `#[\p{L}_][\p{L}\p{N}_\-]*[?!]?`},
		{Name: "Ident", Pattern: `[\p{L}_][\p{L}\p{N}_]*`},
		{Name: "Punct", Pattern: `[():]`},
	})

	queryParser = participle.MustBuild[sourceNode](
		participle.Lexer(queryLexer),
		participle.Elide("whitespace", "Comment"),
		participle.Unquote("String"),
		participle.UseLookahead(2),
	)
)

type sourceNode struct {
	Patterns []*patternNode `@@*`
}

// patternNode is `_`, a quoted token or a parenthesized group, followed by captures
type patternNode struct {
	Pos lexer.Position

	Wildcard bool       `(  @"_"`
	Literal  *string    ` | @String`
	Group    *groupNode ` | "(" @@ ")" )`
	Captures []string   `@Capture*`
}

// groupNode is either a predicate call or a node kind with child patterns.
// A group without a kind wraps a single pattern and its predicates.
type groupNode struct {
	Predicate string       `(  @Predicate`
	Args      []*argNode   `   @@*`
	Kind      *string      ` | @Ident?`
	Children  []*childNode `   @@* )`
}

type childNode struct {
	Field   *string      `(@Ident ":")?`
	Pattern *patternNode `@@`
}

type argNode struct {
	Capture *string `  @Capture`
	String  *string `| @String`
}

func (g *groupNode) isPredicate() bool {
	return g != nil && g.Predicate != ""
}
