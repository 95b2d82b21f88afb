// Package sanitize cleans user-supplied text before it is stored.
//
// RichText keeps a small allow-list of formatting markup, StripTags removes
// every tag, and URL accepts only absolute http(s) links. The Opt variants
// pass nil through untouched so optional fields stay unset.
package sanitize

import (
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	richPolicy = newRichPolicy()
	tagRe      = regexp.MustCompile(`<[^>]*>`)
)

func newRichPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements(
		"p", "div", "h1", "h2", "h3", "h4", "h5", "h6",
		"blockquote", "pre", "ul", "ol", "li", "hr", "br",
		"b", "i", "u", "s", "strike", "strong", "em",
		"sub", "sup", "small", "big", "tt", "code", "span",
	)
	p.RequireParseableURLs(true)
	p.AllowURLSchemes("http", "https")
	p.AllowAttrs("href").OnElements("a")
	p.RequireNoFollowOnLinks(true)
	return p
}

// RichText removes scripts, event handlers and any markup outside the
// formatting allow-list. Links keep only http/https hrefs and get rel="nofollow".
func RichText(s string) string {
	return richPolicy.Sanitize(s)
}

// StripTags removes every <...> sequence and leaves the remaining text verbatim.
func StripTags(s string) string {
	return tagRe.ReplaceAllString(s, "")
}

// URL returns s when it is an http or https URL and "" otherwise.
func URL(s string) string {
	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
		return s
	}
	return ""
}

func OptRichText(s *string) *string { return opt(s, RichText) }
func OptStripTags(s *string) *string { return opt(s, StripTags) }
func OptURL(s *string) *string       { return opt(s, URL) }

func opt(s *string, fn func(string) string) *string {
	if s == nil {
		return nil
	}
	v := fn(*s)
	return &v
}
