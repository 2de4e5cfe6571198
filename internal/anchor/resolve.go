package anchor

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/webmark/webmark/internal/domain"
)

// Resolve re-locates pos inside doc. It tries, in order:
//
//  1. the structural path, verified against the stored literal text:
//     the exact match when the markup has not drifted;
//  2. a scan for the first case-sensitive occurrence of the literal
//     text anywhere in the document body, synthesizing a fresh range
//     there (only the first occurrence of duplicated text can match;
//     a known, accepted limitation);
//  3. failure with CodeAnchorLost. The record itself stays intact;
//     an unresolvable locator only means "not renderable this load".
//
// The second return value reports whether the fallback path was taken,
// so callers can re-anchor the record at its new position.
func Resolve(pos domain.Position, doc *html.Node) (Range, bool, error) {
	if pos.TextContent == "" {
		return Range{}, false, domain.NewError(domain.CodeAnchorLost,
			"locator carries no text to anchor on")
	}

	if container := walkPath(doc, pos.Path); container != nil {
		text := TextContent(container)
		if pos.StartOffset >= 0 && pos.EndOffset <= len(text) &&
			pos.StartOffset < pos.EndOffset &&
			text[pos.StartOffset:pos.EndOffset] == pos.TextContent {
			return Range{
				Container: container,
				Start:     pos.StartOffset,
				End:       pos.EndOffset,
			}, false, nil
		}
	}

	if r, ok := scanForText(Body(doc), pos.TextContent); ok {
		return r, true, nil
	}

	return Range{}, false, domain.NewError(domain.CodeAnchorLost,
		"highlighted text %q not found in document", truncate(pos.TextContent, 60))
}

// walkPath descends the structural path from the document root.
// Returns nil as soon as any step fails to match.
func walkPath(doc *html.Node, path []domain.PathStep) *html.Node {
	if len(path) == 0 {
		return nil
	}
	node := doc
	for _, step := range path {
		node = childByStep(node, step)
		if node == nil {
			return nil
		}
	}
	return node
}

// scanForText finds the first occurrence of literal in document order
// and returns the deepest element containing that occurrence whole.
// Descent follows the occurrence's character span, not the first child
// that happens to contain the literal somewhere, so a later duplicate
// never shadows text sitting directly under an ancestor.
func scanForText(n *html.Node, literal string) (Range, bool) {
	if n == nil {
		return Range{}, false
	}
	container := n
	idx := strings.Index(TextContent(container), literal)
	if idx < 0 {
		return Range{}, false
	}
	for {
		child, childStart := coveringChild(container, idx, len(literal))
		if child == nil {
			break
		}
		container = child
		idx = childStart
	}
	return Range{Container: container, Start: idx, End: idx + len(literal)}, true
}

// coveringChild returns the element child of n whose text span wholly
// contains [start, start+length), with start rebased to that child.
// Nil when the span sits in a direct text node or crosses children; n
// itself is then the deepest containing element.
func coveringChild(n *html.Node, start, length int) (*html.Node, int) {
	offset := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		width := len(TextContent(c))
		if start >= offset && start+length <= offset+width {
			if c.Type == html.ElementNode {
				return c, start - offset
			}
			return nil, 0
		}
		offset += width
	}
	return nil, 0
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
