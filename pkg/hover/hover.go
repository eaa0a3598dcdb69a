// Package hover describes the syntax node under a location as markdown.
package hover

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/walteh/syntaxwalk/pkg/cursor"
	"github.com/walteh/syntaxwalk/pkg/grammar"
	"github.com/walteh/syntaxwalk/pkg/lookahead"
	"github.com/walteh/syntaxwalk/pkg/position"
	"github.com/walteh/syntaxwalk/pkg/syntax"
	"gitlab.com/tozd/go/errors"
)

// HoverInfo represents the information to be displayed in a hover tooltip
type HoverInfo struct {
	// Content is the markdown content to display
	Content []string
	// Range is the span of the described node
	Range position.Range
}

// BuildHoverResponse describes the deepest node containing offset
func BuildHoverResponse(ctx context.Context, tree *syntax.Tree, offset uint32) (*HoverInfo, error) {
	if tree.Closed() {
		return nil, errors.Errorf("hover: %w", cursor.ErrInvalidNode)
	}
	if int(offset) > len(tree.Source()) {
		return nil, errors.Errorf("offset %d beyond end of source (%d bytes)", offset, len(tree.Source()))
	}

	node := cursor.NodeForByte(tree.RootNode(), offset)
	zerolog.Ctx(ctx).Debug().Uint32("offset", offset).Str("kind", node.Kind()).Uint32("index", node.Index()).Msg("hovering node")

	return FormatHoverResponse(ctx, node)
}

// FormatHoverResponse renders the markdown for a single node
func FormatHoverResponse(ctx context.Context, node syntax.Node) (*HoverInfo, error) {
	if !node.IsValid() {
		return nil, errors.WithStack(cursor.ErrInvalidNode)
	}

	var sb strings.Builder

	sb.WriteString("### Node\n\n")
	sb.WriteString(label(node))
	if name, ok := node.FieldName(); ok {
		sb.WriteString(" as `" + name + "`")
	}
	sb.WriteString("\n\n")

	sb.WriteString("### Path\n\n")
	sb.WriteString(strings.Join(ancestry(node), "\n    │\n    ▼\n"))
	sb.WriteString("\n\n")

	sb.WriteString("### Parse State\n\n")
	next, hasNext := node.NextParseState()
	if hasNext {
		sb.WriteString(fmt.Sprintf("%d → %d", node.ParseState(), next))
	} else {
		sb.WriteString(strconv.Itoa(int(node.ParseState())))
	}

	if hasNext {
		followers, err := followedBy(node.Tree().Grammar(), next)
		if err != nil {
			return nil, errors.Errorf("listing followers of state %d: %w", next, err)
		}
		if followers != "" {
			sb.WriteString("\n\n### Followed By\n\n")
			sb.WriteString(followers)
		}
	}

	if node.ChildCount() > 0 {
		sb.WriteString("\n\n### Tree\n\n```\n")
		sb.WriteString(node.String())
		sb.WriteString("\n```")
	}

	return &HoverInfo{
		Content: []string{sb.String()},
		Range:   node.Range(),
	}, nil
}

func label(n syntax.Node) string {
	switch {
	case n.IsMissing():
		return "`MISSING " + display(n) + "`"
	case n.IsError():
		return "`ERROR`"
	default:
		return "`" + display(n) + "`"
	}
}

func display(n syntax.Node) string {
	if n.IsNamed() {
		return n.Kind()
	}
	return strconv.Quote(n.Kind())
}

func ancestry(n syntax.Node) []string {
	var path []string
	for ok := true; ok; n, ok = n.Parent() {
		path = append(path, display(n))
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

func followedBy(g *grammar.Grammar, state grammar.StateID) (string, error) {
	it, err := lookahead.New(g, state)
	if err != nil {
		return "", err
	}
	defer it.Close()

	var names []string
	for sym, name := range it.All() {
		switch {
		case sym == grammar.EndSymbol:
			names = append(names, "end of input")
		case isNamed(g, sym):
			names = append(names, name)
		default:
			names = append(names, strconv.Quote(name))
		}
	}
	if len(names) == 0 {
		return "", nil
	}
	if len(names) == 1 {
		return names[0], nil
	}
	return strings.Join(names[:len(names)-1], ", ") + " or " + names[len(names)-1], nil
}

func isNamed(g *grammar.Grammar, sym grammar.Symbol) bool {
	info, _ := g.SymbolInfo(sym)
	return info.Named
}
