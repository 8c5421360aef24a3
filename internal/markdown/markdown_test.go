package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToHTML(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		contains []string
		excludes []string
	}{
		{
			name:     "paragraph and emphasis",
			source:   "We are **hiring**.",
			contains: []string{"<p>We are <strong>hiring</strong>.</p>"},
		},
		{
			name:     "links open in a new tab without referrer",
			source:   "[apply](https://example.com/jobs)",
			contains: []string{`href="https://example.com/jobs"`, `rel="nofollow noreferrer"`, `target="_blank"`},
		},
		{
			name:     "raw html is dropped",
			source:   "hello <script>alert(1)</script>",
			contains: []string{"hello"},
			excludes: []string{"<script>"},
		},
		{
			name:     "javascript links lose their href",
			source:   "[click](javascript:alert(document.cookie)) and [mail](mailto:jobs@example.com)",
			contains: []string{"click", `href="mailto:jobs@example.com"`},
			excludes: []string{"javascript:", `href="javascript`},
		},
		{
			name:     "empty body",
			source:   "",
			contains: []string{""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			html := ToHTML(tt.source)
			for _, s := range tt.contains {
				assert.Contains(t, html, s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, html, s)
			}
		})
	}
}
