// Package extract binds a source schema to one parsed document.
//
// An Extractor exposes one accessor per logical field. Accessors are pure:
// they read the document, apply the field's normalizers and return the
// result, so calling the same accessor twice yields the same answer.
//
// A required field that matches nothing fails with an error matching
// ErrMissingField. The previous-page link is the one field whose absence is
// expected: PreviousPage reports it through its boolean result, and the
// crawler treats that as the end of the pagination chain.
package extract
