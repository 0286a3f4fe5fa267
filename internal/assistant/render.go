package assistant

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/renderer/html"
)

// Raw HTML in the source is omitted, not passed through.
var md = goldmark.New(goldmark.WithRendererOptions(html.WithHardWraps()))

// RenderHTML converts assistant text (markdown, e.g. **bold** and line
// breaks) to HTML safe to embed in a page.
func RenderHTML(text string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
