package anchor

import (
	"golang.org/x/net/html"

	"github.com/webmark/webmark/internal/domain"
)

// Encode builds a locator for r. It records a structural path from the
// document root down to the container, the character offsets inside the
// container's text content, and the literal text of the range.
//
// Encode fails only for an empty or out-of-bounds range. The literal
// text is always captured, so a locator stays usable as a text anchor
// even after its structural path stops resolving.
func Encode(r Range) (domain.Position, error) {
	if r.Container == nil || r.Container.Type != html.ElementNode {
		return domain.Position{}, domain.NewError(domain.CodeValidation,
			"anchor container must be an element")
	}

	text := TextContent(r.Container)
	if r.Start < 0 || r.End > len(text) || r.Start >= r.End {
		return domain.Position{}, domain.NewError(domain.CodeValidation,
			"anchor range [%d, %d) out of bounds for container text of length %d",
			r.Start, r.End, len(text))
	}

	// Walk container -> root, then reverse so the path reads root-first.
	var up []domain.PathStep
	for n := r.Container; n != nil && n.Type == html.ElementNode; n = n.Parent {
		up = append(up, domain.PathStep{Tag: n.Data, Index: sameTagIndex(n)})
	}
	path := make([]domain.PathStep, 0, len(up))
	for i := len(up) - 1; i >= 0; i-- {
		path = append(path, up[i])
	}

	return domain.Position{
		Path:        path,
		StartOffset: r.Start,
		EndOffset:   r.End,
		TextContent: text[r.Start:r.End],
	}, nil
}
