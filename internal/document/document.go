package document

import (
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// Document is a parsed markup tree. It is read-only after Parse returns.
type Document struct {
	root *html.Node
}

// Parse reads r to completion and builds a tree from it.
// Malformed markup is repaired rather than rejected; only a failing reader
// produces an error, always of type *ParseError.
func Parse(r io.Reader) (*Document, error) {
	if r == nil {
		return nil, &ParseError{Err: errors.New("nil reader")}
	}
	root, err := html.Parse(r)
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	if root == nil {
		return nil, &ParseError{Err: errors.New("no document root")}
	}
	return &Document{root: root}, nil
}

// ParseString parses markup held in memory.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// Root returns the document node.
func (d *Document) Root() *html.Node {
	return d.root
}

// Title returns the text of the first <title> element, trimmed.
// It is used for diagnostics; extraction goes through selectors.
func (d *Document) Title() string {
	var title string
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == "title" {
			if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
				title = strings.TrimSpace(n.FirstChild.Data)
			}
			return true
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}
	walk(d.root)
	return title
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) (string, bool) {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val, true
		}
	}
	return "", false
}
