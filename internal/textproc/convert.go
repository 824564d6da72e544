// Package textproc converts between the HTML the helpdesk stores and the
// markdown the LLM reads and writes.
package textproc

import (
	"bytes"
	"fmt"

	htmltomd "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
)

var mdConverter = htmltomd.NewConverter("", true, &htmltomd.Options{
	HeadingStyle: "atx",
})

var markdown = goldmark.New()

// sanitizePolicy allows only the tags markdown rendering produces.
// Code blocks are deliberately excluded; replies are plain prose.
var sanitizePolicy = func() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements(
		"p", "br", "strong", "b", "em", "i", "u",
		"h1", "h2", "h3", "h4", "h5", "h6",
		"ul", "ol", "li", "blockquote", "hr",
		"div", "span",
	)
	p.AllowAttrs("href", "title").OnElements("a")
	p.AllowAttrs("class").OnElements("div", "span")
	p.AllowStandardURLs()
	return p
}()

// HTMLToMarkdown converts helpdesk thread HTML to markdown.
func HTMLToMarkdown(html string) (string, error) {
	md, err := mdConverter.ConvertString(html)
	if err != nil {
		return "", fmt.Errorf("convert html to markdown: %w", err)
	}
	return md, nil
}

// MarkdownToHTML renders markdown to HTML.
func MarkdownToHTML(md string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(md), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}

// SanitizeHTML strips everything but the markdown-equivalent tag set.
func SanitizeHTML(html string) string {
	return sanitizePolicy.Sanitize(html)
}
