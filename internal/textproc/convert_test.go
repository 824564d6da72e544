package textproc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTMLToMarkdown(t *testing.T) {
	md, err := HTMLToMarkdown("<h1>Hello</h1><p>This is <strong>bold</strong> text.</p>")
	require.NoError(t, err)

	assert.Contains(t, md, "# Hello")
	assert.Contains(t, md, "**bold**")
}

func TestMarkdownToHTML(t *testing.T) {
	html, err := MarkdownToHTML("# Hello\n\nThis is **bold** text.")
	require.NoError(t, err)

	assert.Contains(t, html, "<h1>Hello</h1>")
	assert.Contains(t, html, "<strong>bold</strong>")
}

func TestRoundTripPreservesContent(t *testing.T) {
	html, err := MarkdownToHTML("# Hello\n\nThis is **bold** text.")
	require.NoError(t, err)

	md, err := HTMLToMarkdown(html)
	require.NoError(t, err)

	assert.Contains(t, md, "Hello")
	assert.Contains(t, md, "bold")
}

func TestSanitizeHTMLStripsScripts(t *testing.T) {
	out := SanitizeHTML(`<p>ok</p><script>alert("xss")</script>`)

	assert.Contains(t, out, "<p>ok</p>")
	assert.NotContains(t, out, "<script>")
	assert.NotContains(t, out, "alert")
}

func TestSanitizeHTMLKeepsLinks(t *testing.T) {
	out := SanitizeHTML(`<p><a href="https://www.tuwien.at/studium" title="TU">TU Wien</a></p>`)

	assert.Contains(t, out, `href="https://www.tuwien.at/studium"`)
	assert.Contains(t, out, "TU Wien")
}

func TestSanitizeHTMLStripsEventHandlers(t *testing.T) {
	out := SanitizeHTML(`<div class="note" onclick="steal()">text</div>`)

	assert.Contains(t, out, `class="note"`)
	assert.NotContains(t, out, "onclick")
}
