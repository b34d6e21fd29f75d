package recording

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// CleanHTML strips scripts, styles, and other noise from a captured page
// before it is stored as a snapshot, keeping the semantic structure and the
// attributes needed to resolve selectors against the snapshot later. Output
// is capped at maxBytes of text content.
func CleanHTML(raw string, maxBytes int) (string, error) {
	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	var b strings.Builder
	var written int
	writeNode(doc, &b, &written, maxBytes)
	return b.String(), nil
}

// writeNode renders a node and its children, returning true once the byte
// cap is reached.
func writeNode(n *html.Node, b *strings.Builder, written *int, maxBytes int) bool {
	if *written >= maxBytes {
		return true
	}

	switch n.Type {
	case html.CommentNode:
		return false

	case html.TextNode:
		text := strings.TrimSpace(n.Data)
		if text == "" {
			return false
		}
		if *written+len(text) > maxBytes {
			text = text[:maxBytes-*written]
		}
		b.WriteString(text)
		*written += len(text)
		return *written >= maxBytes

	case html.ElementNode:
		tag := strings.ToLower(n.Data)
		if noiseElements[tag] {
			return false
		}

		b.WriteString("<")
		b.WriteString(tag)
		for _, attr := range n.Attr {
			if keepAttribute(tag, strings.ToLower(attr.Key)) {
				fmt.Fprintf(b, ` %s="%s"`, attr.Key, html.EscapeString(attr.Val))
			}
		}
		b.WriteString(">")
		*written += len(tag) + 2

		truncated := writeChildren(n, b, written, maxBytes)

		if !voidElements[tag] {
			b.WriteString("</")
			b.WriteString(tag)
			b.WriteString(">")
			*written += len(tag) + 3
		}
		return truncated
	}

	return writeChildren(n, b, written, maxBytes)
}

func writeChildren(n *html.Node, b *strings.Builder, written *int, maxBytes int) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if writeNode(c, b, written, maxBytes) {
			return true
		}
	}
	return false
}

// noiseElements are removed entirely from stored snapshots.
var noiseElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"iframe":   true,
	"embed":    true,
	"object":   true,
	"svg":      true,
}

// voidElements never take a closing tag.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true,
	"embed": true, "hr": true, "img": true, "input": true,
	"link": true, "meta": true, "param": true, "source": true,
	"track": true, "wbr": true,
}

// keepAttribute reports whether an attribute is worth keeping in a
// snapshot. Selector-bearing attributes stay so recorded operations can be
// matched back against the stored page.
func keepAttribute(tag, attr string) bool {
	switch attr {
	case "id", "class", "role", "name", "aria-label":
		return true
	}
	if strings.HasPrefix(attr, "data-") {
		return true
	}

	switch tag {
	case "a":
		return attr == "href"
	case "img":
		return attr == "src" || attr == "alt"
	case "input", "textarea", "select":
		return attr == "type" || attr == "placeholder" || attr == "value"
	case "button":
		return attr == "type"
	case "form":
		return attr == "action" || attr == "method"
	}
	return false
}
