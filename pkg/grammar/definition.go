package grammar

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"gitlab.com/tozd/go/errors"
)

// Definition is the serialized form of a compiled grammar table, as written
// by a grammar compiler.
//
//	name: arith
//	symbols:
//	  - {name: number, named: true, terminal: true}
//	  - {name: "+", terminal: true}
//	  - {name: sum, named: true}
//	fields: [left, right]
//	states:
//	  - transitions:
//	      - {symbol: number, next: 1}
//	  - transitions:
//	      - {symbol: "+", anonymous: true, next: 0}
type Definition struct {
	Name    string             `json:"name" yaml:"name" hcl:"name"`
	Symbols []SymbolDefinition `json:"symbols" yaml:"symbols" hcl:"symbol,block"`
	Fields  []string           `json:"fields,omitempty" yaml:"fields,omitempty" hcl:"fields,optional"`
	States  []StateDefinition  `json:"states" yaml:"states" hcl:"state,block"`
}

type SymbolDefinition struct {
	Name     string `json:"name" yaml:"name" hcl:"name,label"`
	Named    bool   `json:"named,omitempty" yaml:"named,omitempty" hcl:"named,optional"`
	Hidden   bool   `json:"hidden,omitempty" yaml:"hidden,omitempty" hcl:"hidden,optional"`
	Terminal bool   `json:"terminal,omitempty" yaml:"terminal,omitempty" hcl:"terminal,optional"`
}

type StateDefinition struct {
	Transitions []TransitionDefinition `json:"transitions" yaml:"transitions" hcl:"transition,block"`
}

// TransitionDefinition refers to its symbol by name. Anonymous selects the
// literal token when a rule of the same name exists.
type TransitionDefinition struct {
	Symbol    string `json:"symbol" yaml:"symbol" hcl:"symbol,label"`
	Anonymous bool   `json:"anonymous,omitempty" yaml:"anonymous,omitempty" hcl:"anonymous,optional"`
	Next      int    `json:"next" yaml:"next" hcl:"next"`
}

// Format selects the encoding of a definition or tree document
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	// FormatHCL is read-only and only describes grammar definitions
	FormatHCL Format = "hcl"
)

// FormatForPath picks the format from a file extension, JSON when unknown
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".hcl":
		return FormatHCL
	default:
		return FormatJSON
	}
}

// Unmarshal decodes data in the given format into v
func Unmarshal(data []byte, format Format, v any) error {
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, v); err != nil {
			return errors.Errorf("decoding yaml: %w", err)
		}
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(v); err != nil {
			return errors.Errorf("decoding json: %w", err)
		}
	case FormatHCL:
		file, diags := hclparse.NewParser().ParseHCL(data, "definition.hcl")
		if diags.HasErrors() {
			return errors.Errorf("parsing hcl: %s", diags.Error())
		}
		if diags := gohcl.DecodeBody(file.Body, nil, v); diags.HasErrors() {
			return errors.Errorf("decoding hcl: %s", diags.Error())
		}
	default:
		return errors.Errorf("unknown format %q", format)
	}
	return nil
}

// Marshal encodes v in the given format. JSON output is indented.
func Marshal(v any, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		data, err := yaml.Marshal(v)
		if err != nil {
			return nil, errors.Errorf("encoding yaml: %w", err)
		}
		return data, nil
	case FormatJSON:
		data, err := json.MarshalIndent(v, "", "\t")
		if err != nil {
			return nil, errors.Errorf("encoding json: %w", err)
		}
		return data, nil
	case FormatHCL:
		return nil, errors.Errorf("encoding %s is not supported", format)
	default:
		return nil, errors.Errorf("unknown format %q", format)
	}
}

// ParseDefinition decodes and compiles a definition document
func ParseDefinition(data []byte, format Format) (*Grammar, error) {
	var def Definition
	if err := Unmarshal(data, format, &def); err != nil {
		return nil, errors.Errorf("unmarshaling grammar definition: %w", err)
	}
	return FromDefinition(&def)
}

// FromDefinition compiles a definition into a Grammar. Symbol 0 of the
// resulting table is always EndSymbol, so declared symbols start at 1.
func FromDefinition(def *Definition) (*Grammar, error) {
	if def == nil {
		return nil, errors.Errorf("%w: nil definition", ErrInvalidGrammar)
	}

	var errs *multierror.Error
	if def.Name == "" {
		errs = multierror.Append(errs, errors.New("grammar has no name"))
	}

	b := NewBuilder(def.Name)
	lookup := map[symbolKey]Symbol{{EndSymbolName, false}: EndSymbol}
	for _, sd := range def.Symbols {
		s := b.Symbol(SymbolInfo{
			Name:     sd.Name,
			Named:    sd.Named,
			Visible:  !sd.Hidden,
			Terminal: sd.Terminal,
		})
		key := symbolKey{sd.Name, sd.Named}
		if _, dup := lookup[key]; !dup {
			lookup[key] = s
		}
	}

	for _, f := range def.Fields {
		b.Field(f)
	}

	for range def.States {
		b.State()
	}

	for si, sd := range def.States {
		for _, td := range sd.Transitions {
			sym, ok := lookup[symbolKey{td.Symbol, !td.Anonymous}]
			if !ok {
				errs = multierror.Append(errs, errors.Errorf("state %d: unknown symbol %q", si, td.Symbol))
				continue
			}
			if td.Next < 0 || td.Next >= len(def.States) {
				errs = multierror.Append(errs, errors.Errorf("state %d: next state %d out of range", si, td.Next))
				continue
			}
			b.Transition(StateID(si), sym, StateID(td.Next))
		}
	}

	g, berrs := b.build()
	if berrs != nil {
		errs = multierror.Append(errs, berrs.Errors...)
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, errors.Errorf("%w: %s", ErrInvalidGrammar, err)
	}

	return g, nil
}

// Definition converts the grammar back into its serialized form
func (g *Grammar) Definition() *Definition {
	def := &Definition{
		Name:   g.name,
		Fields: append([]string(nil), g.fields[1:]...),
		States: make([]StateDefinition, len(g.states)),
	}
	for _, info := range g.symbols[1:] {
		def.Symbols = append(def.Symbols, SymbolDefinition{
			Name:     info.Name,
			Named:    info.Named,
			Hidden:   !info.Visible,
			Terminal: info.Terminal,
		})
	}
	for si, ts := range g.states {
		for _, t := range ts {
			info := g.symbols[t.Symbol]
			def.States[si].Transitions = append(def.States[si].Transitions, TransitionDefinition{
				Symbol:    info.Name,
				Anonymous: !info.Named,
				Next:      int(t.Next),
			})
		}
	}
	return def
}
