// Package markdown turns listing bodies into the HTML stored next to them.
package markdown

import (
	"strings"

	"github.com/russross/blackfriday/v2"
)

const extensions = blackfriday.CommonExtensions | blackfriday.AutoHeadingIDs

// ToHTML renders markdown to HTML. Raw HTML in the source is dropped and
// links with unsafe schemes lose their href.
func ToHTML(source string) string {
	renderer := blackfriday.NewHTMLRenderer(blackfriday.HTMLRendererParameters{
		Flags: blackfriday.CommonHTMLFlags | blackfriday.SkipHTML | blackfriday.Safelink | blackfriday.NofollowLinks | blackfriday.NoreferrerLinks | blackfriday.HrefTargetBlank,
	})

	out := blackfriday.Run([]byte(source),
		blackfriday.WithExtensions(extensions),
		blackfriday.WithRenderer(renderer),
	)
	return strings.TrimSpace(string(out))
}
