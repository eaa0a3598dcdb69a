package grammar

import (
	"math"
	"sort"

	"github.com/hashicorp/go-multierror"
	"gitlab.com/tozd/go/errors"
)

var ErrInvalidGrammar = errors.Base("invalid grammar")

// Builder assembles a Grammar. Mistakes are collected and reported all at
// once by Build, so a caller can declare a whole table without checking
// every call.
type Builder struct {
	name    string
	symbols []SymbolInfo
	fields  []string
	states  [][]Transition
	errs    *multierror.Error
}

// NewBuilder starts a grammar whose symbol table already holds EndSymbol
func NewBuilder(name string) *Builder {
	return &Builder{
		name:    name,
		symbols: []SymbolInfo{{Name: EndSymbolName, Terminal: true}},
		fields:  []string{""},
	}
}

// Symbol appends a symbol table entry and returns its id
func (b *Builder) Symbol(info SymbolInfo) Symbol {
	if info.Name == "" {
		b.fail(errors.Errorf("symbol %d has an empty name", len(b.symbols)))
	}
	b.symbols = append(b.symbols, info)
	return Symbol(len(b.symbols) - 1)
}

// Terminal adds a visible token. Anonymous terminals are literal tokens such as "+".
func (b *Builder) Terminal(name string, named bool) Symbol {
	return b.Symbol(SymbolInfo{Name: name, Named: named, Visible: true, Terminal: true})
}

// Nonterminal adds a visible named rule
func (b *Builder) Nonterminal(name string) Symbol {
	return b.Symbol(SymbolInfo{Name: name, Named: true, Visible: true})
}

func (b *Builder) Field(name string) FieldID {
	if name == "" {
		b.fail(errors.Errorf("field %d has an empty name", len(b.fields)))
	}
	b.fields = append(b.fields, name)
	return FieldID(len(b.fields) - 1)
}

// State adds an empty parse state
func (b *Builder) State() StateID {
	b.states = append(b.states, nil)
	return StateID(len(b.states) - 1)
}

// Transition adds the edge from -symbol-> next. The next state may be
// declared later.
func (b *Builder) Transition(from StateID, symbol Symbol, next StateID) {
	if int(from) >= len(b.states) {
		b.fail(errors.Errorf("transition from unknown state %d", from))
		return
	}
	b.states[from] = append(b.states[from], Transition{Symbol: symbol, Next: next})
}

func (b *Builder) fail(err error) {
	b.errs = multierror.Append(b.errs, err)
}

// Build validates the table and freezes it into a Grammar
func (b *Builder) Build() (*Grammar, error) {
	g, errs := b.build()
	if err := errs.ErrorOrNil(); err != nil {
		return nil, errors.Errorf("%w: %s", ErrInvalidGrammar, err)
	}
	return g, nil
}

func (b *Builder) build() (*Grammar, *multierror.Error) {
	errs := b.errs

	if len(b.symbols) >= int(ErrorSymbol) {
		errs = multierror.Append(errs, errors.Errorf("too many symbols: %d", len(b.symbols)))
	}
	if len(b.fields) > math.MaxUint16 {
		errs = multierror.Append(errs, errors.Errorf("too many fields: %d", len(b.fields)))
	}
	if len(b.states) > math.MaxUint16 {
		errs = multierror.Append(errs, errors.Errorf("too many states: %d", len(b.states)))
	}

	g := &Grammar{
		name:        b.name,
		symbols:     append([]SymbolInfo(nil), b.symbols...),
		fields:      append([]string(nil), b.fields...),
		states:      make([][]Transition, len(b.states)),
		symbolIndex: make(map[symbolKey]Symbol, len(b.symbols)),
		fieldIndex:  make(map[string]FieldID, len(b.fields)),
	}

	for i, info := range g.symbols {
		key := symbolKey{info.Name, info.Named}
		if prev, dup := g.symbolIndex[key]; dup {
			errs = multierror.Append(errs, errors.Errorf("symbol %q declared twice (%d and %d)", info.Name, prev, i))
			continue
		}
		g.symbolIndex[key] = Symbol(i)
	}

	for i, name := range g.fields[1:] {
		if prev, dup := g.fieldIndex[name]; dup {
			errs = multierror.Append(errs, errors.Errorf("field %q declared twice (%d and %d)", name, prev, i+1))
			continue
		}
		g.fieldIndex[name] = FieldID(i + 1)
	}

	for si, ts := range b.states {
		sorted := append([]Transition(nil), ts...)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].Symbol < sorted[j].Symbol
		})
		for i, t := range sorted {
			if int(t.Symbol) >= len(g.symbols) {
				errs = multierror.Append(errs, errors.Errorf("state %d: unknown symbol %d", si, t.Symbol))
			}
			if int(t.Next) >= len(b.states) {
				errs = multierror.Append(errs, errors.Errorf("state %d: next state %d out of range", si, t.Next))
			}
			if i > 0 && sorted[i-1].Symbol == t.Symbol {
				errs = multierror.Append(errs, errors.Errorf("state %d: symbol %q has more than one transition", si, g.SymbolName(t.Symbol)))
			}
		}
		g.states[si] = sorted
	}

	return g, errs
}
