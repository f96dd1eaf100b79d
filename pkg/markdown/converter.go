package markdown

import (
	"regexp"
	"strings"

	"github.com/russross/blackfriday/v2"
)

// ToInlineHTML converts a short markdown fragment to HTML suitable for
// embedding in the admin dashboard cards (no block wrappers, basic tags
// only). AI-written summaries often carry stray markdown emphasis and lists.
func ToInlineHTML(markdown string) string {
	if markdown == "" {
		return ""
	}

	html := string(blackfriday.Run([]byte(markdown), blackfriday.WithExtensions(blackfriday.CommonExtensions)))

	return cleanInlineHTML(html)
}

func cleanInlineHTML(html string) string {
	// Unwrap paragraphs
	html = regexp.MustCompile(`<p>(.*?)</p>`).ReplaceAllString(html, "$1<br>")

	// Lists become bullet lines
	html = strings.ReplaceAll(html, "<ul>", "")
	html = strings.ReplaceAll(html, "</ul>", "")
	html = strings.ReplaceAll(html, "<ol>", "")
	html = strings.ReplaceAll(html, "</ol>", "")
	html = strings.ReplaceAll(html, "<li>", "• ")
	html = strings.ReplaceAll(html, "</li>", "<br>")

	// Drop anything beyond simple inline formatting
	supportedTags := []string{"b", "strong", "i", "em", "u", "s", "code", "br"}
	tagPattern := `</?([a-zA-Z]+)(?:\s[^>]*)?>`

	html = regexp.MustCompile(tagPattern).ReplaceAllStringFunc(html, func(match string) string {
		tagMatch := regexp.MustCompile(`</?([a-zA-Z]+)`).FindStringSubmatch(match)
		if len(tagMatch) > 1 {
			for _, supported := range supportedTags {
				if tagMatch[1] == supported {
					return match
				}
			}
		}
		return ""
	})

	// Collapse trailing breaks
	html = regexp.MustCompile(`(<br>\s*){2,}$`).ReplaceAllString(html, "")

	return strings.TrimSpace(html)
}
