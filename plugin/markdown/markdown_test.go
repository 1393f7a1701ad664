package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	html, err := Render("# Title\n\nSome **bold** text.")
	require.NoError(t, err)
	assert.Contains(t, html, "<h1>Title</h1>")
	assert.Contains(t, html, "<strong>bold</strong>")

	html, err = Render("| a | b |\n|---|---|\n| 1 | 2 |")
	require.NoError(t, err)
	assert.Contains(t, html, "<table>")
}

func TestStrip(t *testing.T) {
	assert.Equal(t, "Some bold text with code in it.", Strip("Some **bold** text with `code` in it."))

	// Fenced code blocks are dropped entirely.
	stripped := Strip("Before\n\n```python\nprint('hi')\n```\n\nAfter")
	assert.Contains(t, stripped, "Before")
	assert.Contains(t, stripped, "After")
	assert.NotContains(t, stripped, "print")

	assert.Equal(t, "", Strip(""))
}
