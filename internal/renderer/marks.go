package renderer

import (
	"golang.org/x/net/html"

	"github.com/webmark/webmark/internal/anchor"
)

// markTag is the element wrapped around highlighted text.
const markTag = "mark"

// Mark attributes carried on every wrapper element.
const (
	attrHighlightID = "data-highlight-id"
	attrColor       = "data-color"
)

// applyMark wraps the text covered by r in mark elements carrying the
// highlight id and color. Ranges spanning several text nodes get one
// wrapper per covered text node; text content is unchanged either way.
func applyMark(r anchor.Range, id, color string) {
	type slice struct {
		node       *html.Node
		start, end int // offsets within this text node
	}

	// Collect covered slices first; splicing while walking would
	// invalidate the traversal.
	var slices []slice
	offset := 0
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			nodeStart := offset
			nodeEnd := offset + len(n.Data)
			offset = nodeEnd
			if nodeEnd <= r.Start || nodeStart >= r.End {
				return
			}
			s := slice{node: n, start: 0, end: len(n.Data)}
			if r.Start > nodeStart {
				s.start = r.Start - nodeStart
			}
			if r.End < nodeEnd {
				s.end = r.End - nodeStart
			}
			slices = append(slices, s)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(r.Container)

	for _, s := range slices {
		wrapTextSlice(s.node, s.start, s.end, id, color)
	}
}

// wrapTextSlice splits a text node at [start, end) and wraps the middle
// piece in a mark element inserted at the same position.
func wrapTextSlice(text *html.Node, start, end int, id, color string) {
	parent := text.Parent
	if parent == nil || start >= end {
		return
	}

	data := text.Data
	next := text.NextSibling
	parent.RemoveChild(text)

	insert := func(n *html.Node) {
		if next != nil {
			parent.InsertBefore(n, next)
		} else {
			parent.AppendChild(n)
		}
	}

	if start > 0 {
		insert(&html.Node{Type: html.TextNode, Data: data[:start]})
	}

	wrapper := &html.Node{
		Type: html.ElementNode,
		Data: markTag,
		Attr: []html.Attribute{
			{Key: attrHighlightID, Val: id},
			{Key: attrColor, Val: color},
		},
	}
	wrapper.AppendChild(&html.Node{Type: html.TextNode, Data: data[start:end]})
	insert(wrapper)

	if end < len(data) {
		insert(&html.Node{Type: html.TextNode, Data: data[end:]})
	}
}

// removeMark unwraps every mark element carrying the given highlight id
// and merges the freed text back into its surroundings.
func removeMark(doc *html.Node, id string) {
	for _, wrapper := range findMarks(doc, id) {
		unwrap(wrapper)
	}
}

// restyleMark updates the color attribute on an applied mark.
func restyleMark(doc *html.Node, id, color string) {
	for _, wrapper := range findMarks(doc, id) {
		for i := range wrapper.Attr {
			if wrapper.Attr[i].Key == attrColor {
				wrapper.Attr[i].Val = color
			}
		}
	}
}

func findMarks(doc *html.Node, id string) []*html.Node {
	var found []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == markTag {
			for _, a := range n.Attr {
				if a.Key == attrHighlightID && a.Val == id {
					found = append(found, n)
					break
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

// unwrap replaces wrapper with its children and normalizes adjacent
// text nodes so repeated mark/unmark cycles do not fragment the tree.
func unwrap(wrapper *html.Node) {
	parent := wrapper.Parent
	if parent == nil {
		return
	}
	next := wrapper.NextSibling
	var children []*html.Node
	for c := wrapper.FirstChild; c != nil; c = c.NextSibling {
		children = append(children, c)
	}
	for _, c := range children {
		wrapper.RemoveChild(c)
		if next != nil {
			parent.InsertBefore(c, next)
		} else {
			parent.AppendChild(c)
		}
	}
	parent.RemoveChild(wrapper)
	normalize(parent)
}

// normalize merges adjacent text node children of n.
func normalize(n *html.Node) {
	c := n.FirstChild
	for c != nil {
		next := c.NextSibling
		if c.Type == html.TextNode && next != nil && next.Type == html.TextNode {
			c.Data += next.Data
			n.RemoveChild(next)
			continue // retry same node against the new sibling
		}
		c = next
	}
}
