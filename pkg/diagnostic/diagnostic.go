package diagnostic

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/apparentlymart/go-textseg/v13/textseg"
	"github.com/rs/zerolog"
	"github.com/walteh/syntaxwalk/pkg/cursor"
	"github.com/walteh/syntaxwalk/pkg/grammar"
	"github.com/walteh/syntaxwalk/pkg/lookahead"
	"github.com/walteh/syntaxwalk/pkg/position"
	"github.com/walteh/syntaxwalk/pkg/syntax"
	"gitlab.com/tozd/go/errors"
)

// Severity represents the severity level of a diagnostic
type Severity string

const (
	SeverityError       Severity = "error"
	SeverityWarning     Severity = "warning"
	SeverityInformation Severity = "information"
	SeverityHint        Severity = "hint"
)

// Location is where a diagnostic applies. Line and column fields are
// one-based, columns count grapheme clusters.
type Location struct {
	Range     position.Range `json:"range"`
	Line      int            `json:"line"`
	Column    int            `json:"column"`
	EndLine   int            `json:"end_line"`
	EndColumn int            `json:"end_column"`
}

// Diagnostic represents a single diagnostic message
type Diagnostic struct {
	Message  string   `json:"message"`
	Location Location `json:"location"`
	Severity Severity `json:"severity"`
	// Expected lists the symbols the grammar would have accepted, if known
	Expected []string `json:"expected,omitempty"`
}

func (d *Diagnostic) String() string {
	return fmt.Sprintf("%d:%d: %s: %s", d.Location.Line, d.Location.Column, d.Severity, d.Message)
}

const maxQuoted = 24

// GetDiagnostics reports every ERROR and MISSING node of the tree, in document order
func GetDiagnostics(ctx context.Context, tree *syntax.Tree) ([]*Diagnostic, error) {
	if tree.Closed() {
		return nil, errors.Errorf("getting diagnostics: %w", cursor.ErrInvalidNode)
	}

	g := tree.Grammar()
	it, err := lookahead.New(g, 0)
	if err != nil && g.StateCount() > 0 {
		return nil, errors.Errorf("creating lookahead iterator: %w", err)
	}
	if it != nil {
		defer it.Close()
	}

	var diags []*Diagnostic
	err = cursor.Walk(tree.RootNode(), func(c *cursor.TreeCursor) bool {
		n := c.Node()
		switch {
		case !n.HasError():
			return false
		case n.IsError():
			diags = append(diags, unexpected(tree, n, c, it))
			return false
		case n.IsMissing():
			d := &Diagnostic{
				Message:  "missing " + describe(g, n.Symbol()),
				Location: locate(tree, n.Range()),
				Severity: SeverityError,
			}
			if state, ok := stateAfterPrecedingLeaf(c); ok {
				d.Expected = expected(g, it, state)
			}
			diags = append(diags, d)
		}
		return true
	})
	if err != nil {
		return nil, errors.Errorf("walking tree: %w", err)
	}

	zerolog.Ctx(ctx).Debug().
		Str("tree", tree.ID().String()).
		Int("diagnostics", len(diags)).
		Msg("collected syntax diagnostics")

	return diags, nil
}

func unexpected(tree *syntax.Tree, n syntax.Node, c *cursor.TreeCursor, it *lookahead.Iterator) *Diagnostic {
	d := &Diagnostic{
		Location: locate(tree, n.Range()),
		Severity: SeverityError,
	}

	if text := strings.TrimSpace(n.Content()); text == "" {
		d.Message = "unexpected end of input"
	} else {
		d.Message = "unexpected " + strconv.Quote(truncate(text, maxQuoted))
	}

	state, ok := firstLeafState(n)
	if !ok {
		if state, ok = stateAfterPrecedingLeaf(c); !ok {
			return d
		}
	}

	d.Expected = expected(tree.Grammar(), it, state)
	if len(d.Expected) > 0 {
		d.Message += ", expected " + joinOr(d.Expected)
	}
	return d
}

// firstLeafState is the parse state recorded on the first leaf of an ERROR
// node. State 0 counts as unrecorded.
func firstLeafState(n syntax.Node) (grammar.StateID, bool) {
	for {
		child, ok := n.FirstChild()
		if !ok {
			break
		}
		n = child
	}
	if s := n.ParseState(); s != 0 {
		return s, true
	}
	return 0, false
}

// stateAfterPrecedingLeaf is the state the parser reached after the leaf
// before the cursor's node, or state 0 at the start of input
func stateAfterPrecedingLeaf(c *cursor.TreeCursor) (grammar.StateID, bool) {
	leaf, ok := precedingLeaf(c)
	if !ok {
		return 0, true
	}
	return leaf.NextParseState()
}

func expected(g *grammar.Grammar, it *lookahead.Iterator, state grammar.StateID) []string {
	if it == nil || !it.Reset(state) {
		return nil
	}
	var names []string
	for sym := range it.Symbols() {
		if info, _ := g.SymbolInfo(sym); info.Visible || sym == grammar.EndSymbol {
			names = append(names, describe(g, sym))
		}
	}
	return names
}

// truncate cuts text to at most max bytes on a grapheme cluster boundary
func truncate(text string, max int) string {
	if len(text) <= max {
		return text
	}
	cut := 0
	for cut < len(text) {
		adv, _, err := textseg.ScanGraphemeClusters([]byte(text[cut:]), true)
		if err != nil || adv <= 0 || cut+adv > max {
			break
		}
		cut += adv
	}
	return text[:cut] + "..."
}

// precedingLeaf finds the last leaf before the cursor's node that is not
// part of an ERROR node
func precedingLeaf(c *cursor.TreeCursor) (syntax.Node, bool) {
	c = c.Copy()
	defer c.Close()

	for {
		if !c.GotoPreviousSibling() {
			if !c.GotoParent() {
				return syntax.Node{}, false
			}
			continue
		}
		for !c.Node().IsError() && c.GotoLastChild() {
		}
		if n := c.Node(); !n.IsError() {
			return n, true
		}
	}
}

func describe(g *grammar.Grammar, sym grammar.Symbol) string {
	if sym == grammar.EndSymbol {
		return "end of input"
	}
	info, _ := g.SymbolInfo(sym)
	if info.Named {
		return info.Name
	}
	return strconv.Quote(info.Name)
}

func joinOr(names []string) string {
	if len(names) == 1 {
		return names[0]
	}
	return strings.Join(names[:len(names)-1], ", ") + " or " + names[len(names)-1]
}

func locate(tree *syntax.Tree, r position.Range) Location {
	ix := tree.PositionIndex()
	return Location{
		Range:     r,
		Line:      int(r.StartPoint.Row) + 1,
		Column:    position.DisplayColumn(tree.Source(), ix, r.StartPoint),
		EndLine:   int(r.EndPoint.Row) + 1,
		EndColumn: position.DisplayColumn(tree.Source(), ix, r.EndPoint),
	}
}

// Formatter formats diagnostics into different output formats
type Formatter interface {
	Format(diagnostics []*Diagnostic) ([]byte, error)
}

// VSCodeFormatter formats diagnostics into VSCode-compatible format
type VSCodeFormatter struct{}

func NewVSCodeFormatter() *VSCodeFormatter {
	return &VSCodeFormatter{}
}

type vscodePosition struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

type vscodeDiagnostic struct {
	Severity int    `json:"severity"`
	Message  string `json:"message"`
	Source   string `json:"source"`
	Range    struct {
		Start vscodePosition `json:"start"`
		End   vscodePosition `json:"end"`
	} `json:"range"`
}

var vscodeSeverity = map[Severity]int{
	SeverityError:       1,
	SeverityWarning:     2,
	SeverityInformation: 3,
	SeverityHint:        4,
}

// Format implements Formatter. Positions are zero-based, as VSCode expects.
func (f *VSCodeFormatter) Format(diagnostics []*Diagnostic) ([]byte, error) {
	result := make([]vscodeDiagnostic, 0, len(diagnostics))
	for _, d := range diagnostics {
		vd := vscodeDiagnostic{
			Severity: vscodeSeverity[d.Severity],
			Message:  d.Message,
			Source:   "syntaxwalk",
		}
		vd.Range.Start = vscodePosition{Line: d.Location.Line - 1, Character: d.Location.Column - 1}
		vd.Range.End = vscodePosition{Line: d.Location.EndLine - 1, Character: d.Location.EndColumn - 1}
		result = append(result, vd)
	}

	data, err := json.Marshal(result)
	if err != nil {
		return nil, errors.Errorf("marshaling diagnostics: %w", err)
	}
	return data, nil
}

// TextFormatter writes one diagnostic per line, prefixed with a file name
type TextFormatter struct {
	Filename string
}

func (f *TextFormatter) Format(diagnostics []*Diagnostic) ([]byte, error) {
	var sb strings.Builder
	for _, d := range diagnostics {
		if f.Filename != "" {
			sb.WriteString(f.Filename)
			sb.WriteString(":")
		}
		sb.WriteString(d.String())
		sb.WriteString("\n")
	}
	return []byte(sb.String()), nil
}
