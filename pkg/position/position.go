package position

import (
	"fmt"
	"sort"

	"github.com/apparentlymart/go-textseg/v13/textseg"
)

// Point is a zero-based row and byte column in a source text
type Point struct {
	Row    uint32
	Column uint32
}

// Compare returns -1, 0 or 1 depending on whether p is before, equal to or after o
func (p Point) Compare(o Point) int {
	switch {
	case p.Row < o.Row:
		return -1
	case p.Row > o.Row:
		return 1
	case p.Column < o.Column:
		return -1
	case p.Column > o.Column:
		return 1
	}
	return 0
}

func (p Point) Less(o Point) bool {
	return p.Compare(o) < 0
}

func (p Point) String() string {
	return fmt.Sprintf("%d:%d", p.Row, p.Column)
}

// Range is the span of a node, both as byte offsets and as points.
// The end is exclusive.
type Range struct {
	StartByte  uint32
	EndByte    uint32
	StartPoint Point
	EndPoint   Point
}

// Contains reports whether offset falls inside the range
func (r Range) Contains(offset uint32) bool {
	return offset >= r.StartByte && offset < r.EndByte
}

func (r Range) Len() uint32 {
	return r.EndByte - r.StartByte
}

func (r Range) String() string {
	return fmt.Sprintf("[%s - %s]", r.StartPoint, r.EndPoint)
}

// Index converts between byte offsets and points for a single source text.
// It is immutable once built and safe for concurrent use.
type Index struct {
	size       uint32
	lineStarts []uint32
}

// NewIndex records the start offset of every line in text
func NewIndex(text []byte) *Index {
	starts := []uint32{0}
	for i, b := range text {
		if b == '\n' {
			starts = append(starts, uint32(i+1))
		}
	}
	return &Index{size: uint32(len(text)), lineStarts: starts}
}

// LineCount returns the number of rows, a trailing newline opens an empty last row
func (ix *Index) LineCount() int {
	return len(ix.lineStarts)
}

// PointAt returns the point of a byte offset. Offsets past the end of the
// text are clamped to the end.
func (ix *Index) PointAt(offset uint32) Point {
	if offset > ix.size {
		offset = ix.size
	}
	row := sort.Search(len(ix.lineStarts), func(i int) bool {
		return ix.lineStarts[i] > offset
	}) - 1
	return Point{Row: uint32(row), Column: offset - ix.lineStarts[row]}
}

// OffsetAt returns the byte offset of a point, false if the point is not in the text
func (ix *Index) OffsetAt(p Point) (uint32, bool) {
	if int(p.Row) >= len(ix.lineStarts) {
		return 0, false
	}
	end := ix.size
	if int(p.Row)+1 < len(ix.lineStarts) {
		// the newline itself belongs to the row
		end = ix.lineStarts[p.Row+1] - 1
	}
	offset := ix.lineStarts[p.Row] + p.Column
	if offset > end {
		return 0, false
	}
	return offset, true
}

// GetLineAndColumn calculates the line and column number for a given byte offset in the text.
// Returns one-based line and column numbers, the way editors display them.
func GetLineAndColumn(text string, offset int) (line, col int) {
	if offset > len(text) {
		offset = len(text)
	}

	line = 1
	lastNewline := -1
	for i := 0; i < offset; i++ {
		if text[i] == '\n' {
			line++
			lastNewline = i
		}
	}

	col = offset - lastNewline
	return line, col
}

// DisplayColumn returns the one-based column of p counted in grapheme
// clusters rather than bytes.
func DisplayColumn(text []byte, ix *Index, p Point) int {
	start, ok := ix.OffsetAt(Point{Row: p.Row})
	if !ok {
		return 1
	}
	end, ok := ix.OffsetAt(p)
	if !ok {
		return 1
	}
	n, err := textseg.TokenCount(text[start:end], textseg.ScanGraphemeClusters)
	if err != nil {
		// malformed utf-8, fall back to bytes
		return int(p.Column) + 1
	}
	return n + 1
}
