package hover

import (
	"strings"

	"github.com/walteh/syntaxwalk/pkg/position"
)

// LSPRange represents a range in a document for LSP
type LSPRange struct {
	Start LSPPosition `json:"start"`
	End   LSPPosition `json:"end"`
}

// LSPPosition is zero-based. Character counts bytes.
type LSPPosition struct {
	Line      uint32 `json:"line"`
	Character uint32 `json:"character"`
}

// LSPHover represents a hover response for LSP
type LSPHover struct {
	Contents LSPMarkupContent `json:"contents"`
	Range    *LSPRange        `json:"range,omitempty"`
}

// LSPMarkupContent represents markup content for LSP
type LSPMarkupContent struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

// ToLSPHover converts a HoverInfo to an LSP hover response
func (h *HoverInfo) ToLSPHover() *LSPHover {
	if h == nil {
		return nil
	}

	return &LSPHover{
		Contents: LSPMarkupContent{
			Kind:  "markdown",
			Value: strings.Join(h.Content, "\n\n"),
		},
		Range: rangeToLSPRange(h.Range),
	}
}

func rangeToLSPRange(r position.Range) *LSPRange {
	return &LSPRange{
		Start: LSPPosition{Line: r.StartPoint.Row, Character: r.StartPoint.Column},
		End:   LSPPosition{Line: r.EndPoint.Row, Character: r.EndPoint.Column},
	}
}
