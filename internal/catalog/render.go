package catalog

import (
	"bytes"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
)

var (
	descRenderer = goldmark.New()
	descPolicy   = bluemonday.UGCPolicy()
)

// RenderDescription converts a product's markdown description to sanitized
// HTML for detail views. Descriptions come from the hand-edited catalog
// file, so the output is always run through the sanitizer.
func RenderDescription(src string) string {
	if src == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := descRenderer.Convert([]byte(src), &buf); err != nil {
		return ""
	}
	return descPolicy.Sanitize(buf.String())
}
