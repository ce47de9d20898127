package schema

import (
	"net/url"
	"strings"

	"github.com/nao1215/pagewalk/internal/document"
	"github.com/nao1215/pagewalk/internal/model"
)

// Field names used in definitions and error messages.
const (
	FieldPreviousPage   = "previousPage"
	FieldItemLinks      = "itemLinks"
	FieldItemThumbnails = "itemThumbnails"
	FieldTitle          = "item.title"
	FieldDuration       = "item.duration"
	FieldTags           = "item.tags"
)

// FieldSpec is one extractable field: where to look and how to clean it.
type FieldSpec struct {
	// Name is the field path, used in errors.
	Name string

	// Selector locates the raw value(s) in a document.
	Selector *document.Selector

	// Normalize transforms the raw values. Nil is the identity.
	Normalize Normalizer
}

// Values selects every raw value and normalizes the list.
func (f FieldSpec) Values(doc *document.Document) ([]string, error) {
	return f.Normalize.Apply(f.Selector.SelectAll(doc))
}

// Value selects the first raw value and normalizes it.
// The boolean is false when the selector matched nothing or a normalizer
// dropped the value. A matched empty value is found and returned as "".
func (f FieldSpec) Value(doc *document.Document) (string, bool, error) {
	raw, ok := f.Selector.SelectFirst(doc)
	if !ok {
		return "", false, nil
	}
	values, err := f.Normalize.Apply([]string{raw})
	if err != nil {
		return "", false, err
	}
	if len(values) == 0 {
		return "", false, nil
	}
	return values[0], true, nil
}

// Schema lists the fields of a listing page and of an item detail page.
type Schema struct {
	// PreviousPage is the link to the next older listing page.
	PreviousPage FieldSpec

	// ItemLinks are the detail page links on a listing page.
	ItemLinks FieldSpec

	// ItemThumbnails are the preview images on a listing page, in the same
	// order as ItemLinks.
	ItemThumbnails FieldSpec

	// Title is the item title on a detail page.
	Title FieldSpec

	// Duration is the item length on a detail page. Its normalized value must
	// be a whole number of seconds.
	Duration FieldSpec

	// Tags are the item tags on a detail page.
	Tags FieldSpec
}

// Source is a scraping target. A Source is immutable and safe to share.
type Source struct {
	// Name identifies the source.
	Name string

	// BaseURL is the source's base address. Relative links resolve against it.
	BaseURL *url.URL

	// Favicon is the absolute favicon address, or empty.
	Favicon string

	// EntryPoint is the listing page a run starts from by default.
	EntryPoint string

	// Schema holds the compiled fields.
	Schema Schema
}

// Site returns the model reference shared by every item of this source.
func (s *Source) Site() *model.Site {
	return &model.Site{
		Name:    s.Name,
		URL:     strings.TrimSuffix(s.BaseURL.String(), "/"),
		Favicon: s.Favicon,
	}
}

// Resolve resolves ref against the source's base address.
// ref is returned unchanged if it cannot be parsed.
func (s *Source) Resolve(ref string) string {
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return ref
	}
	return s.BaseURL.ResolveReference(u).String()
}
