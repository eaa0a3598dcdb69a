package query

import (
	"regexp"
	"slices"
	"strings"

	"github.com/walteh/syntaxwalk/pkg/syntax"
	"gitlab.com/tozd/go/errors"
)

// PredicateArg is one argument of a predicate: a capture name or a string literal
type PredicateArg struct {
	Capture string
	Value   string
}

func (a PredicateArg) IsCapture() bool {
	return a.Capture != ""
}

func (a PredicateArg) String() string {
	if a.IsCapture() {
		return "@" + a.Capture
	}
	return a.Value
}

// Predicate is a condition attached to a pattern. A match is reported only
// when every predicate of its pattern holds.
type Predicate interface {
	Name() string
	Args() []PredicateArg
	Test(m Match) bool
}

var (
	_ Predicate = (*EqCapture)(nil)
	_ Predicate = (*EqString)(nil)
	_ Predicate = (*RegexMatch)(nil)
	_ Predicate = (*AnyOf)(nil)
	_ Predicate = (*Generic)(nil)
)

// EqCapture compares the text of two captures (#eq? @a @b and variants)
type EqCapture struct {
	name       string
	Capture    string
	Other      string
	IsPositive bool
	IsAny      bool
}

func (p *EqCapture) Name() string {
	return p.name
}

func (p *EqCapture) Args() []PredicateArg {
	return []PredicateArg{{Capture: p.Capture}, {Capture: p.Other}}
}

func (p *EqCapture) Test(m Match) bool {
	others := m.Nodes(p.Other)
	return quantify(m.Nodes(p.Capture), p.IsAny, func(n syntax.Node) bool {
		text := n.Content()
		for _, o := range others {
			if (text == o.Content()) == p.IsPositive {
				return true
			}
		}
		return false
	})
}

// EqString compares the text of a capture with a literal (#eq? @a "x" and variants)
type EqString struct {
	name       string
	Capture    string
	Value      string
	IsPositive bool
	IsAny      bool
}

func (p *EqString) Name() string {
	return p.name
}

func (p *EqString) Args() []PredicateArg {
	return []PredicateArg{{Capture: p.Capture}, {Value: p.Value}}
}

func (p *EqString) Test(m Match) bool {
	nodes := m.Nodes(p.Capture)
	if len(nodes) == 0 {
		return !p.IsPositive
	}
	return quantify(nodes, p.IsAny, func(n syntax.Node) bool {
		return (n.Content() == p.Value) == p.IsPositive
	})
}

// RegexMatch searches the text of a capture for a pattern (#match? and variants)
type RegexMatch struct {
	name       string
	Capture    string
	Pattern    *regexp.Regexp
	IsPositive bool
	IsAny      bool
}

func (p *RegexMatch) Name() string {
	return p.name
}

func (p *RegexMatch) Args() []PredicateArg {
	return []PredicateArg{{Capture: p.Capture}, {Value: p.Pattern.String()}}
}

func (p *RegexMatch) Test(m Match) bool {
	nodes := m.Nodes(p.Capture)
	if len(nodes) == 0 {
		return !p.IsPositive
	}
	return quantify(nodes, p.IsAny, func(n syntax.Node) bool {
		return p.Pattern.MatchString(n.Content()) == p.IsPositive
	})
}

// AnyOf checks the text of every node of a capture against a set of strings
// (#any-of? and #not-any-of?). It holds for an empty capture.
type AnyOf struct {
	name       string
	Capture    string
	Values     []string
	IsPositive bool
}

func (p *AnyOf) Name() string {
	return p.name
}

func (p *AnyOf) Args() []PredicateArg {
	args := []PredicateArg{{Capture: p.Capture}}
	for _, v := range p.Values {
		args = append(args, PredicateArg{Value: v})
	}
	return args
}

func (p *AnyOf) Test(m Match) bool {
	for _, n := range m.Nodes(p.Capture) {
		if slices.Contains(p.Values, n.Content()) != p.IsPositive {
			return false
		}
	}
	return true
}

// Generic is any predicate or directive without built-in semantics, such as
// #set!. It always holds and only carries its arguments.
type Generic struct {
	name string
	args []PredicateArg
}

func (p *Generic) Name() string {
	return p.name
}

func (p *Generic) Args() []PredicateArg {
	return p.args
}

func (p *Generic) Test(Match) bool {
	return true
}

func quantify(nodes []syntax.Node, isAny bool, test func(syntax.Node) bool) bool {
	for _, n := range nodes {
		if test(n) == isAny {
			return isAny
		}
	}
	return !isAny
}

// newPredicate builds the predicate for a call such as #not-eq?. Capture
// arguments must name captures of the enclosing pattern.
func newPredicate(name string, args []PredicateArg, captures map[string]bool) (Predicate, error) {
	for _, a := range args {
		if a.IsCapture() && !captures[a.Capture] {
			return nil, errors.Errorf("%w: #%s references undefined capture @%s", ErrCapture, name, a.Capture)
		}
	}

	if name == "any-of?" || name == "not-any-of?" {
		return newAnyOf(name, args, name == "any-of?")
	}

	rest := name
	isAny := strings.HasPrefix(rest, "any-")
	rest = strings.TrimPrefix(rest, "any-")
	isPositive := !strings.HasPrefix(rest, "not-")
	rest = strings.TrimPrefix(rest, "not-")

	switch rest {
	case "eq?":
		if len(args) != 2 || !args[0].IsCapture() {
			return nil, errors.Errorf("%w: #%s takes a capture and a capture or string, got %d arguments", ErrPredicate, name, len(args))
		}
		if args[1].IsCapture() {
			return &EqCapture{name: name, Capture: args[0].Capture, Other: args[1].Capture, IsPositive: isPositive, IsAny: isAny}, nil
		}
		return &EqString{name: name, Capture: args[0].Capture, Value: args[1].Value, IsPositive: isPositive, IsAny: isAny}, nil

	case "match?":
		if len(args) != 2 || !args[0].IsCapture() || args[1].IsCapture() {
			return nil, errors.Errorf("%w: #%s takes a capture and a string", ErrPredicate, name)
		}
		re, err := regexp.Compile(args[1].Value)
		if err != nil {
			return nil, errors.Errorf("%w: #%s: %s", ErrPredicate, name, err)
		}
		return &RegexMatch{name: name, Capture: args[0].Capture, Pattern: re, IsPositive: isPositive, IsAny: isAny}, nil
	}

	return &Generic{name: name, args: args}, nil
}

func newAnyOf(name string, args []PredicateArg, isPositive bool) (Predicate, error) {
	if len(args) < 2 || !args[0].IsCapture() {
		return nil, errors.Errorf("%w: #%s takes a capture and at least one string", ErrPredicate, name)
	}
	values := make([]string, 0, len(args)-1)
	for _, a := range args[1:] {
		if a.IsCapture() {
			return nil, errors.Errorf("%w: #%s takes strings after the capture, got @%s", ErrPredicate, name, a.Capture)
		}
		values = append(values, a.Value)
	}
	return &AnyOf{name: name, Capture: args[0].Capture, Values: values, IsPositive: isPositive}, nil
}
