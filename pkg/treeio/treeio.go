// Package treeio reads and writes syntax trees as JSON or YAML documents, so
// the output of an external parser can be inspected without linking it.
//
//	grammar: arith
//	source: "a + 1"
//	root:
//	  kind: program
//	  children:
//	    - kind: binary_expression
//	      children:
//	        - {kind: identifier, field: left, text: a}
//	        - {kind: "+", anonymous: true, field: operator, text: "+", state: 1}
//	        - {kind: number, field: right, text: "1", state: 4}
//
// Leaves are placed by explicit start and end offsets, or by searching for
// their text from the end of the previous leaf.
package treeio

import (
	"bytes"
	"context"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/walteh/syntaxwalk/pkg/cursor"
	"github.com/walteh/syntaxwalk/pkg/grammar"
	"github.com/walteh/syntaxwalk/pkg/syntax"
	"gitlab.com/tozd/go/errors"
)

var ErrDecode = errors.Base("invalid tree document")

type Document struct {
	Grammar string        `json:"grammar" yaml:"grammar"`
	Source  string        `json:"source" yaml:"source"`
	Root    *NodeDocument `json:"root" yaml:"root"`
}

type NodeDocument struct {
	Kind      string          `json:"kind,omitempty" yaml:"kind,omitempty"`
	Anonymous bool            `json:"anonymous,omitempty" yaml:"anonymous,omitempty"`
	Field     string          `json:"field,omitempty" yaml:"field,omitempty"`
	Text      string          `json:"text,omitempty" yaml:"text,omitempty"`
	Start     *uint32         `json:"start,omitempty" yaml:"start,omitempty"`
	End       *uint32         `json:"end,omitempty" yaml:"end,omitempty"`
	State     *int            `json:"state,omitempty" yaml:"state,omitempty"`
	Error     bool            `json:"error,omitempty" yaml:"error,omitempty"`
	Missing   bool            `json:"missing,omitempty" yaml:"missing,omitempty"`
	Children  []*NodeDocument `json:"children,omitempty" yaml:"children,omitempty"`
}

// Parse decodes a document without resolving its grammar
func Parse(data []byte, format grammar.Format) (*Document, error) {
	var doc Document
	if err := grammar.Unmarshal(data, format, &doc); err != nil {
		return nil, errors.Errorf("unmarshaling tree document: %w", err)
	}
	return &doc, nil
}

// Load reads a tree document from fs and decodes it against the grammar it
// names, which must be registered in store
func Load(ctx context.Context, fs afero.Fs, filename string, store *grammar.Store) (*syntax.Tree, error) {
	data, err := afero.ReadFile(fs, filename)
	if err != nil {
		return nil, errors.Errorf("reading tree document %s: %w", filename, err)
	}

	doc, err := Parse(data, grammar.FormatForPath(filename))
	if err != nil {
		return nil, errors.Errorf("parsing %s: %w", filename, err)
	}

	g, err := store.Get(doc.Grammar)
	if err != nil {
		return nil, errors.Errorf("resolving grammar of %s: %w", filename, err)
	}

	tree, err := Decode(g, doc)
	if err != nil {
		return nil, errors.Errorf("decoding %s: %w", filename, err)
	}

	zerolog.Ctx(ctx).Debug().
		Str("file", filename).
		Str("grammar", g.Name()).
		Int("nodes", tree.NodeCount()).
		Str("tree", tree.ID().String()).
		Msg("loaded tree document")

	return tree, nil
}

type decoder struct {
	g    *grammar.Grammar
	b    *syntax.Builder
	src  []byte
	errs *multierror.Error
}

// Decode builds a tree from doc. Every problem in the document is reported, not just the first.
func Decode(g *grammar.Grammar, doc *Document) (*syntax.Tree, error) {
	if doc.Root == nil {
		return nil, errors.Errorf("%w: no root node", ErrDecode)
	}
	if doc.Grammar != "" && doc.Grammar != g.Name() {
		return nil, errors.Errorf("%w: document is for grammar %q, not %q", ErrDecode, doc.Grammar, g.Name())
	}

	src := []byte(doc.Source)
	d := &decoder{g: g, b: syntax.NewBuilder(g, src), src: src}
	d.node(doc.Root, "root")

	if err := d.errs.ErrorOrNil(); err != nil {
		return nil, errors.Errorf("%w: %s", ErrDecode, err)
	}

	tree, err := d.b.Build()
	if err != nil {
		return nil, errors.Errorf("building tree: %w", err)
	}
	return tree, nil
}

func (d *decoder) fail(path string, format string, args ...any) {
	d.errs = multierror.Append(d.errs, errors.Errorf("%s: "+format, append([]any{path}, args...)...))
}

func (d *decoder) node(n *NodeDocument, path string) {
	if n == nil {
		d.fail(path, "empty node")
		return
	}

	field := grammar.NoField
	if n.Field != "" {
		f, ok := d.g.FieldIDForName(n.Field)
		if !ok {
			d.fail(path, "unknown field %q", n.Field)
			return
		}
		field = f
	}

	if n.Error {
		if field != grammar.NoField {
			d.fail(path, "ERROR nodes cannot have a field")
			return
		}
		if len(n.Children) == 0 {
			if start, end, ok := d.span(n, path); ok {
				d.b.ErrorLeaf(start, end)
				d.state(n, path)
			}
			return
		}
		d.b.Error()
		d.state(n, path)
		d.children(n, path)
		d.b.Close()
		return
	}

	symbol, ok := d.g.SymbolForName(n.Kind, !n.Anonymous)
	if !ok {
		d.fail(path, "unknown symbol %q (anonymous: %t)", n.Kind, n.Anonymous)
		return
	}
	info, _ := d.g.SymbolInfo(symbol)
	path = path + "/" + n.Kind

	switch {
	case n.Missing:
		d.b.Missing(symbol, field)
		d.state(n, path)
	case info.Terminal:
		if len(n.Children) > 0 {
			d.fail(path, "terminal has children")
			return
		}
		start, end, ok := d.span(n, path)
		if !ok {
			return
		}
		d.b.Leaf(symbol, field, start, end)
		d.state(n, path)
	default:
		d.b.Open(symbol, field)
		d.state(n, path)
		d.children(n, path)
		d.b.Close()
	}
}

func (d *decoder) children(n *NodeDocument, path string) {
	for _, c := range n.Children {
		d.node(c, path)
	}
}

func (d *decoder) state(n *NodeDocument, path string) {
	if n.State == nil {
		return
	}
	if *n.State < 0 || !d.g.ValidState(grammar.StateID(*n.State)) {
		d.fail(path, "parse state %d out of range", *n.State)
		return
	}
	d.b.SetState(grammar.StateID(*n.State))
}

func (d *decoder) span(n *NodeDocument, path string) (uint32, uint32, bool) {
	switch {
	case n.Start != nil && n.End != nil:
		return *n.Start, *n.End, true
	case n.Start != nil || n.End != nil:
		d.fail(path, "start and end must be given together")
	case n.Text == "":
		d.fail(path, "leaf has neither text nor start and end")
	default:
		from := d.b.Offset()
		if int(from) > len(d.src) {
			from = uint32(len(d.src))
		}
		i := bytes.Index(d.src[from:], []byte(n.Text))
		if i < 0 {
			d.fail(path, "text %q not found after offset %d", n.Text, from)
			return 0, 0, false
		}
		start := from + uint32(i)
		return start, start + uint32(len(n.Text)), true
	}
	return 0, 0, false
}

// Encode converts a tree back into a document. Leaves carry both their text and their span.
func Encode(tree *syntax.Tree) (*Document, error) {
	if tree.Closed() {
		return nil, errors.Errorf("encoding tree: %w", cursor.ErrInvalidNode)
	}

	var stack []*NodeDocument
	var root *NodeDocument

	err := cursor.Walk(tree.RootNode(), func(c *cursor.TreeCursor) bool {
		n := c.Node()
		doc := &NodeDocument{Missing: n.IsMissing(), Error: n.IsError()}
		if !n.IsError() {
			doc.Kind = n.Kind()
			doc.Anonymous = !n.IsNamed()
		}
		if name, ok := c.FieldName(); ok {
			doc.Field = name
		}
		if s := n.ParseState(); s != 0 {
			state := int(s)
			doc.State = &state
		}
		if n.ChildCount() == 0 && !n.IsMissing() {
			start, end := n.StartByte(), n.EndByte()
			doc.Text = n.Content()
			doc.Start, doc.End = &start, &end
		}

		depth := int(c.Depth())
		stack = stack[:depth]
		if depth == 0 {
			root = doc
		} else {
			parent := stack[depth-1]
			parent.Children = append(parent.Children, doc)
		}
		stack = append(stack, doc)
		return true
	})
	if err != nil {
		return nil, errors.Errorf("encoding tree: %w", err)
	}

	return &Document{
		Grammar: tree.Grammar().Name(),
		Source:  string(tree.Source()),
		Root:    root,
	}, nil
}
