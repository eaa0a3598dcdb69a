package semtok

import (
	"strconv"
	"strings"
	"sync"
	"unicode"

	"github.com/walteh/syntaxwalk/pkg/grammar"
	"github.com/walteh/syntaxwalk/pkg/query"
)

var highlightQueries sync.Map // *grammar.Grammar -> *query.Query

// HighlightQuery returns the highlight query for g: one pattern per visible
// terminal, captured under its token type. When g has a "name" field the
// declaration patterns come first so they take precedence.
func HighlightQuery(g *grammar.Grammar) string {
	_, hasName := g.FieldIDForName("name")

	var decls, plain []string
	for s := grammar.Symbol(1); int(s) < g.SymbolCount(); s++ {
		info, _ := g.SymbolInfo(s)
		if !info.Terminal || !info.Visible {
			continue
		}

		typ := classify(info)
		if !info.Named {
			plain = append(plain, strconv.Quote(info.Name)+" @"+typ.String())
			continue
		}
		if !isIdent(info.Name) {
			continue
		}
		pat := "(" + info.Name + ")"
		if hasName && typ == TokenVariable {
			decls = append(decls, "(_ name: "+pat+" @"+typ.String()+"."+ModifierDeclaration.String()+")")
		}
		plain = append(plain, pat+" @"+typ.String())
	}

	return strings.Join(append(decls, plain...), "\n")
}

func highlightQuery(g *grammar.Grammar) (*query.Query, error) {
	if q, ok := highlightQueries.Load(g); ok {
		return q.(*query.Query), nil
	}
	q, err := query.New(g, HighlightQuery(g))
	if err != nil {
		return nil, err
	}
	actual, _ := highlightQueries.LoadOrStore(g, q)
	return actual.(*query.Query), nil
}

// captureToken reads a capture name such as "variable.declaration"
func captureToken(name string) (TokenType, TokenModifier, bool) {
	base, mod, _ := strings.Cut(name, ".")

	typ := TokenType(0)
	for i, legend := range TokenTypes() {
		if legend == base {
			typ = TokenType(i + 1)
		}
	}
	if typ == 0 {
		return 0, ModifierNone, false
	}

	if mod == ModifierDeclaration.String() {
		return typ, ModifierDeclaration, true
	}
	return typ, ModifierNone, true
}

func classify(info grammar.SymbolInfo) TokenType {
	if !info.Named {
		if isWord(info.Name) {
			return TokenKeyword
		}
		return TokenOperator
	}

	kind := strings.ToLower(info.Name)
	switch {
	case strings.Contains(kind, "comment"):
		return TokenComment
	case strings.Contains(kind, "string"), strings.Contains(kind, "char"):
		return TokenString
	case strings.Contains(kind, "number"), strings.Contains(kind, "integer"), strings.Contains(kind, "float"):
		return TokenNumber
	default:
		return TokenVariable
	}
}

func isWord(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// isIdent reports whether s can be written as a node kind in a query
func isIdent(s string) bool {
	if s == "_" {
		return false
	}
	for i, r := range s {
		if i == 0 && unicode.IsDigit(r) {
			return false
		}
	}
	return isWord(s)
}
