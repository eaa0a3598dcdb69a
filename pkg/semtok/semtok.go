package semtok

import (
	"bytes"
	"context"
	"sort"

	"github.com/rs/zerolog"
	"github.com/walteh/syntaxwalk/pkg/syntax"
	"gitlab.com/tozd/go/errors"
)

// GetTokensForTree returns the semantic tokens of every leaf in source order
func GetTokensForTree(ctx context.Context, tree *syntax.Tree) ([]Token, error) {
	return GetTokensForRange(ctx, tree, 0, uint32(len(tree.Source())))
}

// GetTokensForRange returns the tokens overlapping the byte range [start, end).
// Leaves are classified by the grammar's highlight query; when several
// patterns capture a leaf the earliest pattern wins.
func GetTokensForRange(ctx context.Context, tree *syntax.Tree, start, end uint32) ([]Token, error) {
	if end < start {
		return nil, errors.Errorf("invalid range %d-%d", start, end)
	}

	q, err := highlightQuery(tree.Grammar())
	if err != nil {
		return nil, errors.Errorf("compiling highlight query: %w", err)
	}

	matches, err := q.MatchesInRange(ctx, tree.RootNode(), start, end)
	if err != nil {
		return nil, errors.Errorf("matching highlight query: %w", err)
	}

	type hit struct {
		pattern int
		index   uint32
		token   Token
	}
	best := map[uint32]hit{}
	for _, m := range matches {
		for _, c := range m.Captures {
			n := c.Node
			if n.ChildCount() > 0 || n.IsMissing() || n.IsError() || n.EndByte() == n.StartByte() {
				continue
			}
			if n.StartByte() >= end || n.EndByte() <= start {
				continue
			}
			if prev, ok := best[n.Index()]; ok && prev.pattern <= m.Pattern {
				continue
			}
			typ, mod, ok := captureToken(c.Name)
			if !ok {
				continue
			}
			best[n.Index()] = hit{m.Pattern, n.Index(), Token{Type: typ, Modifier: mod, Range: n.Range()}}
		}
	}

	hits := make([]hit, 0, len(best))
	for _, h := range best {
		hits = append(hits, h)
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].index < hits[j].index })

	tokens := make([]Token, len(hits))
	for i, h := range hits {
		tokens[i] = h.token
	}

	zerolog.Ctx(ctx).Debug().Int("tokens", len(tokens)).Uint32("start", start).Uint32("end", end).Msg("collected semantic tokens")

	return tokens, nil
}

// Encode packs tokens into the relative five-integer form used by editors:
// line delta, start delta, length, type index and modifier bits. Columns and
// lengths are in bytes. A token spanning lines is cut at its first newline.
func Encode(source []byte, tokens []Token) []uint32 {
	out := make([]uint32, 0, len(tokens)*5)

	var prevLine, prevChar uint32
	for _, t := range tokens {
		line, char := t.Range.StartPoint.Row, t.Range.StartPoint.Column

		length := t.Range.EndByte - t.Range.StartByte
		if t.Range.EndPoint.Row != line {
			if nl := bytes.IndexByte(source[t.Range.StartByte:t.Range.EndByte], '\n'); nl >= 0 {
				length = uint32(nl)
			}
		}

		deltaChar := char
		if line == prevLine {
			deltaChar = char - prevChar
		}

		out = append(out, line-prevLine, deltaChar, length, uint32(t.Type)-1, uint32(t.Modifier))
		prevLine, prevChar = line, char
	}

	return out
}
