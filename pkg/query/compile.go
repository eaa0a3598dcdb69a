package query

import (
	"github.com/walteh/syntaxwalk/pkg/grammar"
	"gitlab.com/tozd/go/errors"
)

type call struct {
	name string
	args []PredicateArg
}

// compiler turns the parsed form of one pattern into steps, collecting its
// captures and predicate calls on the way
type compiler struct {
	grammar  *grammar.Grammar
	captures map[string]bool
	order    []string
	calls    []call
}

func (c *compiler) step(p *patternNode, field grammar.FieldID) (*step, error) {
	if p.Group.isPredicate() {
		return nil, errors.Errorf("%w: #%s must follow a pattern inside parentheses", ErrStructure, p.Group.Predicate[1:])
	}

	var s *step
	switch {
	case p.Wildcard:
		s = &step{wildcard: anyNode}

	case p.Literal != nil:
		sym, ok := c.grammar.SymbolForName(*p.Literal, false)
		if !ok {
			return nil, errors.Errorf("%w: %q", ErrNodeType, *p.Literal)
		}
		s = &step{symbol: sym}

	case p.Group.Kind == nil:
		inner, err := c.group(p.Group)
		if err != nil {
			return nil, err
		}
		s = inner

	default:
		var err error
		if s, err = c.kind(*p.Group.Kind); err != nil {
			return nil, err
		}
		if s.children, err = c.children(p.Group.Children); err != nil {
			return nil, err
		}
	}

	if field != grammar.NoField {
		if s.field != grammar.NoField && s.field != field {
			return nil, errors.Errorf("%w: conflicting fields on one pattern", ErrStructure)
		}
		s.field = field
	}
	for _, name := range p.Captures {
		s.captures = append(s.captures, c.capture(name[1:]))
	}
	return s, nil
}

// group handles a parenthesized pattern without a kind, which wraps exactly
// one pattern together with its predicates
func (c *compiler) group(g *groupNode) (*step, error) {
	children, err := c.children(g.Children)
	if err != nil {
		return nil, err
	}
	if len(children) != 1 {
		return nil, errors.Errorf("%w: a group must hold exactly one pattern, got %d", ErrStructure, len(children))
	}
	return children[0], nil
}

func (c *compiler) kind(name string) (*step, error) {
	if name == "_" {
		return &step{wildcard: anyNamedNode}, nil
	}
	sym, ok := c.grammar.SymbolForName(name, true)
	if !ok {
		return nil, errors.Errorf("%w: %s", ErrNodeType, name)
	}
	return &step{symbol: sym}, nil
}

func (c *compiler) children(nodes []*childNode) ([]*step, error) {
	var steps []*step
	for _, ch := range nodes {
		if ch.Pattern.Group.isPredicate() {
			if ch.Field != nil || len(ch.Pattern.Captures) > 0 {
				return nil, errors.Errorf("%w: #%s cannot carry a field or captures", ErrStructure, ch.Pattern.Group.Predicate[1:])
			}
			c.predicate(ch.Pattern.Group)
			continue
		}

		field := grammar.NoField
		if ch.Field != nil {
			id, ok := c.grammar.FieldIDForName(*ch.Field)
			if !ok {
				return nil, errors.Errorf("%w: %s", ErrField, *ch.Field)
			}
			field = id
		}

		s, err := c.step(ch.Pattern, field)
		if err != nil {
			return nil, err
		}
		steps = append(steps, s)
	}
	return steps, nil
}

func (c *compiler) predicate(g *groupNode) {
	pc := call{name: g.Predicate[1:]}
	for _, a := range g.Args {
		if a.Capture != nil {
			pc.args = append(pc.args, PredicateArg{Capture: (*a.Capture)[1:]})
		} else {
			pc.args = append(pc.args, PredicateArg{Value: *a.String})
		}
	}
	c.calls = append(c.calls, pc)
}

func (c *compiler) capture(name string) string {
	if !c.captures[name] {
		c.captures[name] = true
		c.order = append(c.order, name)
	}
	return name
}
