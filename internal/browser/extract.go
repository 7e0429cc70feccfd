package browser

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// skipElements are elements whose text content is never visible page text.
var skipElements = map[string]struct{}{
	"script":   {},
	"style":    {},
	"noscript": {},
	"head":     {},
	"template": {},
}

// blockElements delimit snippet boundaries when extracting text.
var blockElements = map[string]struct{}{
	"div": {}, "p": {}, "section": {}, "article": {},
	"li": {}, "tr": {}, "h1": {}, "h2": {}, "h3": {}, "br": {},
}

// ExtractText returns the visible text of an HTML document, one line per
// block-level element, blank lines collapsed.
func ExtractText(body []byte) string {
	z := html.NewTokenizer(bytes.NewReader(body))

	var (
		b    strings.Builder
		skip int
	)
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return collapseLines(b.String())
		case html.StartTagToken:
			name, _ := z.TagName()
			if _, ok := skipElements[string(name)]; ok {
				skip++
			}
			if _, ok := blockElements[string(name)]; ok {
				b.WriteByte('\n')
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if _, ok := skipElements[string(name)]; ok && skip > 0 {
				skip--
			}
			if _, ok := blockElements[string(name)]; ok {
				b.WriteByte('\n')
			}
		case html.TextToken:
			if skip > 0 {
				continue
			}
			text := strings.TrimSpace(string(z.Text()))
			if text != "" {
				b.WriteString(text)
				b.WriteByte(' ')
			}
		}
	}
}

// Snippets splits extracted text into non-empty lines, a rough analogue of
// one search-result block per line.
func Snippets(text string, max int) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, line)
		if max > 0 && len(out) >= max {
			break
		}
	}
	return out
}

func collapseLines(s string) string {
	lines := strings.Split(s, "\n")
	var out []string
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
