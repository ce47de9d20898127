package document

import (
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/antchfx/htmlquery"
	"github.com/antchfx/xpath"
	"golang.org/x/net/html"
)

// CSSPrefix marks a query written in the CSS dialect.
const CSSPrefix = "css:"

// Dialect identifies the query language of a Selector.
type Dialect string

const (
	// DialectXPath is XPath 1.0.
	DialectXPath Dialect = "xpath"
	// DialectCSS is a CSS selector, optionally followed by @attribute.
	DialectCSS Dialect = "css"
)

// attrSuffix matches the trailing "@name" of a CSS query.
var attrSuffix = regexp.MustCompile(`@([A-Za-z_:][-A-Za-z0-9_:.]*)$`)

// Selector is a compiled query. A Selector is safe for concurrent use.
type Selector struct {
	query   string
	dialect Dialect

	// xpath state. A compiled *xpath.Expr keeps evaluation state, so every
	// evaluation borrows its own copy from the pool.
	exprs sync.Pool

	// css state.
	css  cascadia.Selector
	attr string
}

// Compile validates query and returns a reusable Selector.
// Queries starting with "css:" use the CSS dialect; all others are XPath.
func Compile(query string) (*Selector, error) {
	if strings.TrimSpace(query) == "" {
		return nil, &SelectorError{Query: query, Err: ErrEmptyQuery}
	}

	if rest, ok := strings.CutPrefix(query, CSSPrefix); ok {
		return compileCSS(query, rest)
	}
	return compileXPath(query)
}

// MustCompile is like Compile but panics on error.
// It is intended for package-level selectors in tests and fixtures.
func MustCompile(query string) *Selector {
	s, err := Compile(query)
	if err != nil {
		panic(err)
	}
	return s
}

func compileXPath(query string) (*Selector, error) {
	expr, err := xpath.Compile(query)
	if err != nil {
		return nil, &SelectorError{Query: query, Err: err}
	}

	s := &Selector{query: query, dialect: DialectXPath}
	s.exprs.New = func() any {
		// The query already compiled once, so this cannot fail.
		return xpath.MustCompile(query)
	}
	s.exprs.Put(expr)
	return s, nil
}

func compileCSS(query, rest string) (*Selector, error) {
	rest = strings.TrimSpace(rest)
	var attr string
	if m := attrSuffix.FindStringSubmatchIndex(rest); m != nil {
		attr = rest[m[2]:m[3]]
		rest = strings.TrimSpace(rest[:m[0]])
	}
	if rest == "" {
		return nil, &SelectorError{Query: query, Err: ErrEmptyQuery}
	}

	sel, err := cascadia.Compile(rest)
	if err != nil {
		return nil, &SelectorError{Query: query, Err: err}
	}
	return &Selector{query: query, dialect: DialectCSS, css: sel, attr: attr}, nil
}

// String returns the query the Selector was compiled from.
func (s *Selector) String() string {
	return s.query
}

// Dialect returns the query language of the Selector.
func (s *Selector) Dialect() Dialect {
	return s.dialect
}

// SelectAll returns every value the query yields, in document order.
// It returns an empty, non-nil slice when nothing matches.
func (s *Selector) SelectAll(doc *Document) []string {
	return s.eval(doc, false)
}

// SelectFirst returns the first value the query yields.
// The boolean is false when nothing matches.
func (s *Selector) SelectFirst(doc *Document) (string, bool) {
	values := s.eval(doc, true)
	if len(values) == 0 {
		return "", false
	}
	return values[0], true
}

func (s *Selector) eval(doc *Document, first bool) []string {
	values := make([]string, 0)
	if doc == nil || doc.root == nil {
		return values
	}
	if s.dialect == DialectCSS {
		return s.evalCSS(doc.root, first, values)
	}
	return s.evalXPath(doc.root, first, values)
}

func (s *Selector) evalXPath(root *html.Node, first bool, values []string) []string {
	expr, _ := s.exprs.Get().(*xpath.Expr) //nolint:errcheck // pool only holds *xpath.Expr
	defer s.exprs.Put(expr)

	switch v := expr.Evaluate(htmlquery.CreateXPathNavigator(root)).(type) {
	case *xpath.NodeIterator:
		for v.MoveNext() {
			values = append(values, v.Current().Value())
			if first {
				break
			}
		}
	case string:
		// An empty string result (e.g. string() of a missing node) is absence.
		if v != "" {
			values = append(values, v)
		}
	case float64:
		values = append(values, strconv.FormatFloat(v, 'f', -1, 64))
	case bool:
		values = append(values, strconv.FormatBool(v))
	}
	return values
}

func (s *Selector) evalCSS(root *html.Node, first bool, values []string) []string {
	goquery.NewDocumentFromNode(root).FindMatcher(s.css).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if s.attr == "" {
			values = append(values, sel.Text())
			return !first
		}
		if val, ok := getAttr(sel.Get(0), s.attr); ok {
			values = append(values, val)
			return !first
		}
		return true
	})
	return values
}
