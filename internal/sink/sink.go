package sink

import (
	"context"
	"encoding/json"
	"io"
	"sync"

	"github.com/nao1215/pagewalk/internal/model"
)

// Submitter accepts completed items. Implementations must be safe for
// concurrent use.
type Submitter interface {
	Submit(ctx context.Context, item *model.Item) error
}

// Func adapts a function to the Submitter interface.
type Func func(ctx context.Context, item *model.Item) error

// Submit calls f.
func (f Func) Submit(ctx context.Context, item *model.Item) error {
	return f(ctx, item)
}

// Multi submits to each sink in order and stops at the first failure.
type Multi []Submitter

// Submit implements Submitter.
func (m Multi) Submit(ctx context.Context, item *model.Item) error {
	for _, s := range m {
		if err := s.Submit(ctx, item); err != nil {
			return err
		}
	}
	return nil
}

// ItemStore persists items.
type ItemStore interface {
	SaveItem(ctx context.Context, item *model.Item) (int64, error)
}

// Store submits items to a database.
type Store struct {
	db ItemStore
}

// NewStore returns a sink writing to db.
func NewStore(db ItemStore) *Store {
	return &Store{db: db}
}

// Submit implements Submitter.
func (s *Store) Submit(ctx context.Context, item *model.Item) error {
	if _, err := s.db.SaveItem(ctx, item); err != nil {
		return &SubmissionError{URL: item.URL, Err: err}
	}
	return nil
}

// JSONLines writes every item as one JSON line.
type JSONLines struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewJSONLines returns a sink writing to w.
func NewJSONLines(w io.Writer) *JSONLines {
	return &JSONLines{enc: json.NewEncoder(w)}
}

// jsonLine is the serialized form of an item.
type jsonLine struct {
	*model.Item
	Fingerprint string `json:"fingerprint"`
}

// Submit implements Submitter.
func (j *JSONLines) Submit(ctx context.Context, item *model.Item) error {
	if err := ctx.Err(); err != nil {
		return &SubmissionError{URL: item.URL, Err: err}
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.enc.Encode(jsonLine{Item: item, Fingerprint: item.Fingerprint()}); err != nil {
		return &SubmissionError{URL: item.URL, Err: err}
	}
	return nil
}
