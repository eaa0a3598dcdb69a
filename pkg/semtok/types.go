package semtok

import (
	"github.com/walteh/syntaxwalk/pkg/position"
)

// TokenType represents the semantic meaning of a token
type TokenType uint32

const (
	// TokenVariable represents a named token such as an identifier
	TokenVariable TokenType = iota + 1

	// TokenKeyword represents an anonymous word token (e.g., let)
	TokenKeyword

	// TokenOperator represents anonymous punctuation (e.g., +)
	TokenOperator

	// TokenString represents a string literal
	TokenString

	// TokenComment represents a comment
	TokenComment

	// TokenNumber represents a numeric literal (e.g., 0, 1.5)
	TokenNumber
)

// TokenModifier represents additional characteristics of a token
type TokenModifier uint32

const (
	// ModifierNone indicates no special characteristics
	ModifierNone TokenModifier = 0

	// ModifierDeclaration indicates the token names the thing being declared
	ModifierDeclaration TokenModifier = 1
)

// Token represents a semantic token with its type, modifiers, and position
type Token struct {
	// Type indicates the semantic meaning of the token
	Type TokenType

	// Modifier indicates any special characteristics
	Modifier TokenModifier

	// Range indicates the token's position in the source
	Range position.Range
}

// String returns a human-readable representation of the token type
func (t TokenType) String() string {
	switch t {
	case TokenVariable:
		return "variable"
	case TokenKeyword:
		return "keyword"
	case TokenOperator:
		return "operator"
	case TokenString:
		return "string"
	case TokenComment:
		return "comment"
	case TokenNumber:
		return "number"
	default:
		return "unknown"
	}
}

// String returns a human-readable representation of the token modifier
func (m TokenModifier) String() string {
	switch m {
	case ModifierNone:
		return "none"
	case ModifierDeclaration:
		return "declaration"
	default:
		return "unknown"
	}
}

// TokenTypes is the legend for encoded token types, indexed by TokenType-1
func TokenTypes() []string {
	return []string{"variable", "keyword", "operator", "string", "comment", "number"}
}

// TokenModifiers is the legend for encoded modifier bits
func TokenModifiers() []string {
	return []string{"declaration"}
}
