// Package query finds subtrees of a syntax tree that match S-expression patterns.
//
//	(binary_expression
//	  left: (identifier) @lhs
//	  operator: "+"
//	  (#not-eq? @lhs "tmp"))
//
// A pattern is a node kind in parentheses, a quoted anonymous token, `(_)`
// for any named node or `_` for any node. Children are matched in order and
// may be separated by other children. Captures are written @name after a
// pattern and predicates such as #eq? filter the matches of their pattern.
package query

import (
	"context"
	"sort"

	"github.com/rs/zerolog"
	"github.com/walteh/syntaxwalk/pkg/cursor"
	"github.com/walteh/syntaxwalk/pkg/grammar"
	"github.com/walteh/syntaxwalk/pkg/syntax"
	"gitlab.com/tozd/go/errors"
)

var (
	ErrSyntax    = errors.Base("query syntax error")
	ErrNodeType  = errors.Base("invalid node type")
	ErrField     = errors.Base("invalid field")
	ErrCapture   = errors.Base("invalid capture")
	ErrPredicate = errors.Base("invalid predicate")
	ErrStructure = errors.Base("invalid pattern structure")
)

// Capture is a node bound to a capture name
type Capture struct {
	Name string
	Node syntax.Node
}

// Match is one successful application of a pattern
type Match struct {
	Pattern  int
	Captures []Capture
}

// Nodes returns the nodes captured under name, in pattern order
func (m Match) Nodes(name string) []syntax.Node {
	var nodes []syntax.Node
	for _, c := range m.Captures {
		if c.Name == name {
			nodes = append(nodes, c.Node)
		}
	}
	return nodes
}

// Query is a compiled list of patterns for one grammar. It is immutable and
// may be shared between goroutines.
type Query struct {
	grammar      *grammar.Grammar
	patterns     []*pattern
	captureNames []string
}

type pattern struct {
	root       *step
	predicates []Predicate
	startByte  uint32
}

type wildcard uint8

const (
	exactKind wildcard = iota
	anyNode
	anyNamedNode
)

// step matches one node of a pattern
type step struct {
	symbol   grammar.Symbol
	wildcard wildcard
	field    grammar.FieldID
	captures []string
	children []*step
}

// New compiles source against g
func New(g *grammar.Grammar, source string) (*Query, error) {
	if g == nil {
		return nil, errors.New("query needs a grammar")
	}

	ast, err := queryParser.ParseString("query", source)
	if err != nil {
		return nil, errors.Errorf("%w: %s", ErrSyntax, err)
	}

	q := &Query{grammar: g}
	seen := map[string]bool{}
	for i, p := range ast.Patterns {
		c := &compiler{grammar: g, captures: map[string]bool{}}

		root, err := c.step(p, grammar.NoField)
		if err != nil {
			return nil, errors.Errorf("pattern %d: %w", i, err)
		}

		pat := &pattern{root: root, startByte: uint32(p.Pos.Offset)}
		for _, call := range c.calls {
			pred, err := newPredicate(call.name, call.args, c.captures)
			if err != nil {
				return nil, errors.Errorf("pattern %d: %w", i, err)
			}
			pat.predicates = append(pat.predicates, pred)
		}
		q.patterns = append(q.patterns, pat)

		for _, name := range c.order {
			if !seen[name] {
				seen[name] = true
				q.captureNames = append(q.captureNames, name)
			}
		}
	}

	return q, nil
}

// MustNew is New for queries known to be valid
func MustNew(g *grammar.Grammar, source string) *Query {
	q, err := New(g, source)
	if err != nil {
		panic(err)
	}
	return q
}

func (q *Query) Grammar() *grammar.Grammar {
	return q.grammar
}

func (q *Query) PatternCount() int {
	return len(q.patterns)
}

// CaptureNames returns every capture name in order of first appearance
func (q *Query) CaptureNames() []string {
	return append([]string(nil), q.captureNames...)
}

// Predicates returns the predicates of a pattern, nil for an unknown pattern
func (q *Query) Predicates(pattern int) []Predicate {
	if pattern < 0 || pattern >= len(q.patterns) {
		return nil
	}
	return q.patterns[pattern].predicates
}

// StartByteForPattern returns the offset of a pattern in the query source
func (q *Query) StartByteForPattern(pattern int) (uint32, bool) {
	if pattern < 0 || pattern >= len(q.patterns) {
		return 0, false
	}
	return q.patterns[pattern].startByte, true
}

// Matches applies every pattern to node and each of its descendants. Matches
// come in pre-order of the node they start at, then in pattern order.
func (q *Query) Matches(ctx context.Context, node syntax.Node) ([]Match, error) {
	return q.matches(ctx, node, func(syntax.Node) bool { return true })
}

// MatchesInRange is Matches restricted to nodes that overlap [start, end).
// Zero-width nodes count when they sit inside the range.
func (q *Query) MatchesInRange(ctx context.Context, node syntax.Node, start, end uint32) ([]Match, error) {
	if end < start {
		return nil, errors.Errorf("invalid range %d-%d", start, end)
	}
	return q.matches(ctx, node, func(n syntax.Node) bool {
		if n.StartByte() == n.EndByte() {
			return n.StartByte() >= start && n.StartByte() < end
		}
		return n.StartByte() < end && n.EndByte() > start
	})
}

func (q *Query) matches(ctx context.Context, node syntax.Node, inRange func(syntax.Node) bool) ([]Match, error) {
	if node.IsValid() && node.Tree().Grammar() != q.grammar {
		return nil, errors.Errorf("query for grammar %q run on a %q tree", q.grammar.Name(), node.Tree().Grammar().Name())
	}

	var out []Match
	err := cursor.Walk(node, func(c *cursor.TreeCursor) bool {
		n := c.Node()
		if !inRange(n) {
			return false
		}
		for i, p := range q.patterns {
			captures, ok := p.root.match(n, nil)
			if !ok {
				continue
			}
			m := Match{Pattern: i, Captures: captures}
			if p.holds(m) {
				out = append(out, m)
			}
		}
		return true
	})
	if err != nil {
		return nil, errors.Errorf("walking tree: %w", err)
	}

	zerolog.Ctx(ctx).Debug().Int("patterns", len(q.patterns)).Int("matches", len(out)).Msg("ran query")

	return out, nil
}

// Captures flattens matches into their captures, ordered by node position.
// A node captured by several matches appears once per capture.
func Captures(matches []Match) []Capture {
	var out []Capture
	for _, m := range matches {
		out = append(out, m.Captures...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Node.Index() < out[j].Node.Index()
	})
	return out
}

func (p *pattern) holds(m Match) bool {
	for _, pred := range p.predicates {
		if !pred.Test(m) {
			return false
		}
	}
	return true
}

func (s *step) matchesNode(n syntax.Node) bool {
	switch s.wildcard {
	case anyNode:
		return true
	case anyNamedNode:
		return n.IsNamed()
	default:
		return n.Symbol() == s.symbol
	}
}

// match binds s to n and its children to an ordered subsequence of n's children,
// appending captures to out. The first binding found wins.
func (s *step) match(n syntax.Node, out []Capture) ([]Capture, bool) {
	if !s.matchesNode(n) {
		return out, false
	}
	for _, name := range s.captures {
		out = append(out, Capture{Name: name, Node: n})
	}
	if len(s.children) == 0 {
		return out, true
	}
	first, ok := n.FirstChild()
	return s.matchChildren(0, first, ok, out)
}

func (s *step) matchChildren(i int, child syntax.Node, ok bool, out []Capture) ([]Capture, bool) {
	if i == len(s.children) {
		return out, true
	}
	want := s.children[i]
	for ; ok; child, ok = child.NextSibling() {
		mark := len(out)
		if want.field != grammar.NoField && child.FieldID() != want.field {
			continue
		}
		got, matched := want.match(child, out)
		if matched {
			next, hasNext := child.NextSibling()
			if res, done := s.matchChildren(i+1, next, hasNext, got); done {
				return res, true
			}
		}
		out = out[:mark]
	}
	return out, false
}
