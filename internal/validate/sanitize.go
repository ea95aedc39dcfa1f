package validate

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

var (
	strictPolicy = bluemonday.StrictPolicy()
	bodyPolicy   = newBodyPolicy()
)

func newBodyPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowElements("p", "br", "div", "span", "h1", "h2", "h3", "h4", "h5", "h6")
	p.AllowElements("strong", "em", "u", "s", "code", "pre", "blockquote")
	p.AllowElements("ul", "ol", "li", "table", "thead", "tbody", "tr", "th", "td")
	p.AllowAttrs("href").OnElements("a")
	p.RequireParseableURLs(true)
	p.AllowURLSchemes("http", "https", "mailto")
	return p
}

// StripHTML removes all markup from s and returns plain text.
// Entities escaped by the policy are decoded again so plain text
// such as "Q&A" survives unchanged.
func StripHTML(s string) string {
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(s)))
}

// SanitizeBody removes unsafe markup from an HTML email body. Plain text
// bodies, including ones with angle brackets such as "<bob@example.com>"
// or "a < b", are returned unchanged.
func SanitizeBody(s string) string {
	if !IsHTML(s) {
		return s
	}
	return bodyPolicy.Sanitize(s)
}

// IsHTML reports whether s contains at least one known HTML element tag.
func IsHTML(s string) bool {
	if !strings.ContainsRune(s, '<') {
		return false
	}
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return false
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			if z.Token().DataAtom != 0 {
				return true
			}
		}
	}
}
