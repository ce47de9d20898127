package extract

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/pagewalk/internal/document"
	"github.com/nao1215/pagewalk/internal/schema"
)

// Extractor reads the fields of one source from one document.
// It is owned by the goroutine that created it.
type Extractor struct {
	source *schema.Source
	doc    *document.Document
}

// New binds source to an already parsed document.
func New(source *schema.Source, doc *document.Document) *Extractor {
	return &Extractor{source: source, doc: doc}
}

// Parse parses raw markup and binds source to it.
// The only error is *document.ParseError.
func Parse(source *schema.Source, raw io.Reader) (*Extractor, error) {
	doc, err := document.Parse(raw)
	if err != nil {
		return nil, err
	}
	return New(source, doc), nil
}

// ParseString is Parse for markup held in a string.
func ParseString(source *schema.Source, raw string) (*Extractor, error) {
	return Parse(source, strings.NewReader(raw))
}

// Document returns the bound document.
func (e *Extractor) Document() *document.Document {
	return e.doc
}

// PreviousPage returns the address of the next older listing page.
// found is false when the document has no previous-page link, which marks
// the oldest page. A link with an empty address is no link. err is
// reserved for normalizer failures.
func (e *Extractor) PreviousPage() (address string, found bool, err error) {
	address, found, err = e.source.Schema.PreviousPage.Value(e.doc)
	if err != nil {
		return "", false, e.fieldError(schema.FieldPreviousPage, err)
	}
	if strings.TrimSpace(address) == "" {
		return "", false, nil
	}
	return address, found, nil
}

// RequirePreviousPage is PreviousPage with absence reported as an error
// matching ErrNoPreviousPage.
func (e *Extractor) RequirePreviousPage() (string, error) {
	address, found, err := e.PreviousPage()
	if err != nil {
		return "", err
	}
	if !found {
		return "", e.fieldError(schema.FieldPreviousPage, ErrNoPreviousPage)
	}
	return address, nil
}

// ItemLinks returns the detail page links of a listing page.
func (e *Extractor) ItemLinks() ([]string, error) {
	return e.list(e.source.Schema.ItemLinks)
}

// ItemThumbnails returns the preview images of a listing page.
func (e *Extractor) ItemThumbnails() ([]string, error) {
	return e.list(e.source.Schema.ItemThumbnails)
}

// Title returns the item title of a detail page.
func (e *Extractor) Title() (string, error) {
	return e.single(e.source.Schema.Title)
}

// Duration returns the item length of a detail page in seconds.
func (e *Extractor) Duration() (int, error) {
	f := e.source.Schema.Duration
	v, err := e.single(f)
	if err != nil {
		return 0, err
	}
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs < 0 {
		return 0, e.fieldError(f.Name, fmt.Errorf("%w: %q is not a number of seconds", ErrInvalidValue, v))
	}
	return secs, nil
}

// Tags returns the item tags of a detail page.
func (e *Extractor) Tags() ([]string, error) {
	return e.list(e.source.Schema.Tags)
}

func (e *Extractor) single(f schema.FieldSpec) (string, error) {
	v, ok, err := f.Value(e.doc)
	if err != nil {
		return "", e.fieldError(f.Name, err)
	}
	if !ok {
		return "", e.fieldError(f.Name, ErrMissingField)
	}
	return v, nil
}

func (e *Extractor) list(f schema.FieldSpec) ([]string, error) {
	values, err := f.Values(e.doc)
	if err != nil {
		return nil, e.fieldError(f.Name, err)
	}
	if len(values) == 0 {
		return nil, e.fieldError(f.Name, ErrMissingField)
	}
	return values, nil
}

func (e *Extractor) fieldError(field string, err error) error {
	return &FieldError{Source: e.source.Name, Field: field, Err: err}
}
