// Package extract converts one section's XHTML markup into normalized
// plain text suitable for pagination.
package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// skipElements are subtrees that never contribute readable text.
var skipElements = map[string]struct{}{
	"script": {},
	"style":  {},
	"head":   {},
	"title":  {},
}

// Text extracts the readable text of a section. Each text node becomes
// one line with its whitespace collapsed; structural breaks are rendered
// as newlines. Returns "" when the section holds no readable text, which
// callers treat as "drop this section".
func Text(markup []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(markup))
	if err != nil {
		return "", fmt.Errorf("failed to parse section markup: %w", err)
	}

	var lines []string
	for _, n := range doc.Selection.Nodes {
		collectText(n, &lines)
	}
	return strings.Join(lines, "\n"), nil
}

func collectText(n *html.Node, lines *[]string) {
	switch n.Type {
	case html.TextNode:
		if line := strings.Join(strings.Fields(n.Data), " "); line != "" {
			*lines = append(*lines, line)
		}
		return
	case html.ElementNode:
		if _, skip := skipElements[n.Data]; skip {
			return
		}
	case html.CommentNode:
		return
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, lines)
	}
}
