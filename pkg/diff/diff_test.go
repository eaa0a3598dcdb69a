package diff_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/walteh/syntaxwalk/pkg/diff"
)

type sample struct {
	Kind     string
	Children []string
	hidden   int
}

func TestExportedOnly(t *testing.T) {
	a := sample{Kind: "program", Children: []string{"a", "b"}, hidden: 1}
	b := sample{Kind: "program", Children: []string{"a", "b"}, hidden: 2}
	assert.Empty(t, diff.ExportedOnly(a, b), "unexported fields are ignored")

	c := sample{Kind: "program", Children: []string{"a", "c"}}
	d := diff.ExportedOnly(a, c)
	assert.Contains(t, d, "to convert ACTUAL ⏩️ EXPECTED")
	assert.Contains(t, d, "➕")
	assert.Contains(t, d, "➖")
}

func TestText(t *testing.T) {
	assert.Empty(t, diff.Text("x\ny", "x\ny"))
	assert.Contains(t, diff.Text("x\ny", "x\nz"), "➕y")
	assert.Contains(t, diff.Text("x\ny", "x\nz"), "➖z")
	assert.Contains(t, diff.Text("y", "z"), "➕y")
}
