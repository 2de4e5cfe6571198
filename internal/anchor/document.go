// Package anchor encodes a text-range selection into a serializable
// locator and re-resolves locators against a document that may have
// changed since capture.
//
// The document model is an x/net/html node tree. Anything that can
// parse into one (a live page snapshot, a test fixture string) can be
// anchored against.
package anchor

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/webmark/webmark/internal/domain"
)

// Range addresses a character span [Start, End) within the text
// content of a container element.
type Range struct {
	Container *html.Node
	Start     int
	End       int
}

// Text returns the literal text the range covers.
func (r Range) Text() string {
	text := TextContent(r.Container)
	if r.Start < 0 || r.End > len(text) || r.Start >= r.End {
		return ""
	}
	return text[r.Start:r.End]
}

// TextContent concatenates every text node under n in document order.
func TextContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			b.WriteString(node.Data)
			return
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// Parse builds a document tree from an HTML source string.
func Parse(src string) (*html.Node, error) {
	return html.Parse(strings.NewReader(src))
}

// Body returns the body element of doc, or the document root when the
// tree has no body (fragments in tests).
func Body(doc *html.Node) *html.Node {
	if b := findElement(doc, "body"); b != nil {
		return b
	}
	return doc
}

// FindByID returns the first element with the given id attribute.
func FindByID(doc *html.Node, id string) *html.Node {
	var found *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found != nil {
			return
		}
		if n.Type == html.ElementNode {
			for _, a := range n.Attr {
				if a.Key == "id" && a.Val == id {
					found = n
					return
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return found
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// sameTagIndex counts preceding element siblings of n sharing its tag.
func sameTagIndex(n *html.Node) int {
	idx := 0
	for s := n.PrevSibling; s != nil; s = s.PrevSibling {
		if s.Type == html.ElementNode && s.Data == n.Data {
			idx++
		}
	}
	return idx
}

// childByStep returns the step.Index-th element child of parent whose
// tag matches step.Tag, or nil.
func childByStep(parent *html.Node, step domain.PathStep) *html.Node {
	seen := 0
	for c := parent.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || c.Data != step.Tag {
			continue
		}
		if seen == step.Index {
			return c
		}
		seen++
	}
	return nil
}
