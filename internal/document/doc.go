// Package document parses markup into a navigable tree and evaluates
// path queries against it.
//
// # Parsing
//
// Parse is built on golang.org/x/net/html, which implements the HTML5
// tree-construction algorithm. Unterminated tags, stray end tags and
// unquoted attributes are repaired the same way a browser repairs them, so a
// malformed page still yields a best-effort tree. Parse only fails when the
// input cannot be read at all; that failure is reported as *ParseError.
//
// # Selectors
//
// A Selector is compiled once and evaluated many times. Two dialects are
// supported:
//
//   - XPath 1.0 (the default), evaluated with github.com/antchfx/xpath
//   - CSS, written with a "css:" prefix and evaluated with
//     github.com/andybalholm/cascadia through github.com/PuerkitoBio/goquery
//
// Selector evaluation never fails. A query that matches nothing yields an
// empty slice from SelectAll and false from SelectFirst.
//
// Values are returned verbatim. The engine never trims whitespace, resolves
// links or otherwise rewrites what the document contains; that is the job of
// the normalizers attached to a field.
//
// # Usage
//
//	doc, err := document.ParseString(page)
//	if err != nil {
//	    return err
//	}
//	sel := document.MustCompile(`//a[@rel="prev"]/@href`)
//	if href, ok := sel.SelectFirst(doc); ok {
//	    fmt.Println(href)
//	}
package document
