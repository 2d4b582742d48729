package extract

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// Document is the readable text of a page, used as the raw blob handed to the
// structurer.
type Document struct {
	Title string
	Text  string
}

// FromHTML extracts readable text from HTML, preferring <main> or <article>
// and falling back to <body>. Table rows become one line each with cells
// separated by tabs so that statistics survive as text.
func FromHTML(input []byte) Document {
	node, err := html.Parse(bytes.NewReader(input))
	if err != nil || node == nil {
		return Document{}
	}

	title := ""
	if head := findFirst(node, "head"); head != nil {
		if t := findFirst(head, "title"); t != nil && t.FirstChild != nil {
			title = strings.TrimSpace(t.FirstChild.Data)
		}
	}

	content := findFirst(node, "main")
	if content == nil {
		content = findFirst(node, "article")
	}
	if content == nil {
		content = findFirst(node, "body")
	}
	var b strings.Builder
	if content != nil {
		collectText(&b, content)
	}
	return Document{Title: title, Text: normalizeWhitespace(b.String())}
}

func findFirst(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && strings.EqualFold(n.Data, tag) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if res := findFirst(c, tag); res != nil {
			return res
		}
	}
	return nil
}

func collectText(b *strings.Builder, n *html.Node) {
	if n.Type == html.ElementNode {
		if isBoilerplateContainer(n) {
			return
		}
		switch strings.ToLower(n.Data) {
		case "script", "style", "noscript", "nav", "footer", "aside", "iframe", "svg":
			return
		case "br", "hr":
			b.WriteString("\n")
		case "p", "h1", "h2", "h3", "h4", "h5", "h6", "li", "tr", "table", "div", "section":
			b.WriteString("\n")
		case "td", "th":
			b.WriteString("\t")
		}
	}
	if n.Type == html.TextNode {
		b.WriteString(strings.NewReplacer("\r", " ", "\n", " ").Replace(n.Data))
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(b, c)
	}
	if n.Type == html.ElementNode {
		switch strings.ToLower(n.Data) {
		case "p", "h1", "h2", "h3", "h4", "h5", "h6", "table":
			b.WriteString("\n\n")
		case "li", "tr":
			b.WriteString("\n")
		}
	}
}

// isBoilerplateContainer reports cookie and consent banners.
func isBoilerplateContainer(n *html.Node) bool {
	for _, attr := range n.Attr {
		key := strings.ToLower(attr.Key)
		if key != "id" && key != "class" && key != "role" && key != "aria-label" {
			continue
		}
		val := strings.ToLower(attr.Val)
		for _, marker := range []string{"cookie", "consent", "gdpr"} {
			if strings.Contains(val, marker) {
				return true
			}
		}
	}
	return false
}

func normalizeWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		cells := strings.Split(line, "\t")
		kept := cells[:0]
		for _, c := range cells {
			if c = strings.Join(strings.Fields(c), " "); c != "" {
				kept = append(kept, c)
			}
		}
		trimmed := strings.Join(kept, "\t")
		if trimmed == "" {
			// keep at most one blank line between blocks
			if len(out) > 0 && out[len(out)-1] == "" {
				continue
			}
			out = append(out, "")
			continue
		}
		out = append(out, trimmed)
	}
	for len(out) > 0 && out[0] == "" {
		out = out[1:]
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return strings.Join(out, "\n")
}
