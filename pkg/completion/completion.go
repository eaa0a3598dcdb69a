package completion

import (
	"context"
	"fmt"
	"unicode"

	"github.com/rs/zerolog"
	"github.com/sahilm/fuzzy"
	"github.com/walteh/syntaxwalk/pkg/grammar"
	"github.com/walteh/syntaxwalk/pkg/lookahead"
	"github.com/walteh/syntaxwalk/pkg/syntax"
	"gitlab.com/tozd/go/errors"
)

// Item represents a single completion suggestion
type Item struct {
	Label  string         `json:"label"`
	Kind   string         `json:"kind"`
	Symbol grammar.Symbol `json:"symbol"`
	Detail string         `json:"detail,omitempty"`
	Score  int            `json:"score,omitempty"`
}

// Provider suggests the tokens and rules the grammar accepts at an offset of a tree
type Provider struct {
	tree *syntax.Tree
}

func NewProvider(tree *syntax.Tree) *Provider {
	return &Provider{tree: tree}
}

type candidates []Item

func (c candidates) String(i int) string { return c[i].Label }
func (c candidates) Len() int            { return len(c) }

// GetCompletions returns completion items for the given byte offset. Without
// a typed prefix items come in symbol order; with one they are ranked by
// fuzzy match score and non-matching items are dropped.
func (p *Provider) GetCompletions(ctx context.Context, offset uint32) ([]Item, error) {
	cc, err := NewCompletionContext(p.tree, offset)
	if err != nil {
		return nil, errors.Errorf("getting completion context: %w", err)
	}

	logger := zerolog.Ctx(ctx).With().Uint32("offset", offset).Str("prefix", cc.Prefix).Logger()
	if !cc.Ok {
		logger.Debug().Msg("no parse state at offset")
		return nil, nil
	}

	g := p.tree.Grammar()
	it, err := lookahead.New(g, cc.State)
	if err != nil {
		return nil, errors.Errorf("creating lookahead iterator: %w", err)
	}
	defer it.Close()

	var all candidates
	for sym, name := range it.All() {
		info, _ := g.SymbolInfo(sym)
		if sym == grammar.EndSymbol || !info.Visible {
			continue
		}
		all = append(all, Item{
			Label:  name,
			Kind:   kindOf(info),
			Symbol: sym,
			Detail: fmt.Sprintf("symbol %d in state %d", sym, cc.State),
		})
	}

	logger.Debug().Uint16("state", uint16(cc.State)).Int("candidates", len(all)).Msg("completing")

	if cc.Prefix == "" {
		return all, nil
	}

	matches := fuzzy.FindFrom(cc.Prefix, all)
	items := make([]Item, 0, len(matches))
	for _, m := range matches {
		item := all[m.Index]
		item.Score = m.Score
		items = append(items, item)
	}
	return items, nil
}

func kindOf(info grammar.SymbolInfo) string {
	switch {
	case info.Named && info.Terminal:
		return "terminal"
	case info.Named:
		return "nonterminal"
	case isWord(info.Name):
		return "keyword"
	default:
		return "operator"
	}
}

func isWord(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return false
		}
	}
	return s != ""
}
