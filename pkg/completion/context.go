package completion

import (
	"github.com/walteh/syntaxwalk/pkg/cursor"
	"github.com/walteh/syntaxwalk/pkg/grammar"
	"github.com/walteh/syntaxwalk/pkg/syntax"
	"gitlab.com/tozd/go/errors"
)

// CompletionContext holds information about the completion request context
type CompletionContext struct {
	Offset uint32
	// Prefix is the part of a word already typed before Offset
	Prefix string
	// Anchor is the leaf the parse state was taken from, invalid at the start of input
	Anchor syntax.Node
	// State is the parse state in which the completed token would be read
	State grammar.StateID
	// Ok is false when no parse state could be derived
	Ok bool
}

// NewCompletionContext derives the parse state at offset. Inside or at the
// end of a named token the token itself is being completed, so its own state
// is used; otherwise the state after the last complete leaf is.
func NewCompletionContext(tree *syntax.Tree, offset uint32) (*CompletionContext, error) {
	if tree.Closed() {
		return nil, errors.Errorf("completion context: %w", cursor.ErrInvalidNode)
	}
	if int(offset) > len(tree.Source()) {
		return nil, errors.Errorf("offset %d beyond end of source (%d bytes)", offset, len(tree.Source()))
	}

	cc := &CompletionContext{Offset: offset}
	root := tree.RootNode()

	if offset > 0 {
		n := cursor.NodeForByte(root, offset-1)
		if inWord(n, offset) {
			cc.Prefix = string(tree.Source()[n.StartByte():offset])
			cc.Anchor = n
			cc.State = n.ParseState()
			cc.Ok = true
			return cc, nil
		}
	}

	leaf, ok, err := lastLeafBefore(root, offset)
	if err != nil {
		return nil, err
	}
	if !ok {
		cc.Ok = true
		return cc, nil
	}

	cc.Anchor = leaf
	cc.State, cc.Ok = leaf.NextParseState()
	return cc, nil
}

func inWord(n syntax.Node, offset uint32) bool {
	if !n.IsValid() || n.ChildCount() > 0 || n.IsError() || n.IsMissing() || !n.IsNamed() {
		return false
	}
	return n.StartByte() < offset && offset <= n.EndByte()
}

func lastLeafBefore(root syntax.Node, offset uint32) (syntax.Node, bool, error) {
	var leaf syntax.Node
	found := false
	err := cursor.Walk(root, func(c *cursor.TreeCursor) bool {
		n := c.Node()
		if n.StartByte() > offset || n.IsError() {
			return false
		}
		if n.ChildCount() == 0 && !n.IsMissing() && n.EndByte() <= offset {
			leaf, found = n, true
		}
		return true
	})
	if err != nil {
		return syntax.Node{}, false, errors.Errorf("finding leaf before %d: %w", offset, err)
	}
	return leaf, found, nil
}
