package sink

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/nao1215/pagewalk/internal/model"
)

// TokenHeader carries the API token on every GraphQL request.
const TokenHeader = "x-auth-token"

// Default GraphQL sink settings.
const (
	DefaultSubmitTimeout = 15 * time.Second
	DefaultSubmitRetries = 2
)

// createVideoMutation registers one item with the remote catalog.
const createVideoMutation = `mutation CreateVideo($input: CreateVideoInput!) {
  createVideo(input: $input) {
    id title url thumbnailUrl duration
    site { id name host }
    tags { id tag slug }
  }
}`

// siteInput identifies the source site in a createVideo request.
type siteInput struct {
	Name    string `json:"name"`
	Host    string `json:"host"`
	Favicon string `json:"favicon,omitempty"`
}

// videoInput is the CreateVideoInput payload.
type videoInput struct {
	Title        string    `json:"title"`
	URL          string    `json:"url"`
	ThumbnailURL string    `json:"thumbnailUrl"`
	Duration     int       `json:"duration"`
	Site         siteInput `json:"site"`
	Tags         []string  `json:"tags"`
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type graphQLResponse struct {
	Errors []graphQLError `json:"errors"`
}

// GraphQL submits items to a GraphQL API.
type GraphQL struct {
	client   *resty.Client
	endpoint string
	logger   *slog.Logger

	token     string
	timeout   time.Duration
	retries   int
	transport http.RoundTripper
}

// GraphQLOption configures a GraphQL sink.
type GraphQLOption func(*GraphQL)

// WithToken sets the API token sent in TokenHeader.
func WithToken(token string) GraphQLOption {
	return func(g *GraphQL) {
		g.token = token
	}
}

// WithSubmitTimeout sets the per-request timeout.
func WithSubmitTimeout(d time.Duration) GraphQLOption {
	return func(g *GraphQL) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// WithSubmitRetries sets how often a failed request is retried.
func WithSubmitRetries(n int) GraphQLOption {
	return func(g *GraphQL) {
		if n >= 0 {
			g.retries = n
		}
	}
}

// WithSubmitTransport replaces the HTTP transport.
func WithSubmitTransport(rt http.RoundTripper) GraphQLOption {
	return func(g *GraphQL) {
		g.transport = rt
	}
}

// WithSubmitLogger sets the logger.
func WithSubmitLogger(logger *slog.Logger) GraphQLOption {
	return func(g *GraphQL) {
		g.logger = logger
	}
}

// NewGraphQL creates a GraphQL sink for endpoint.
func NewGraphQL(endpoint string, opts ...GraphQLOption) (*GraphQL, error) {
	u, err := url.Parse(endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrNoEndpoint, endpoint)
	}

	g := &GraphQL{
		endpoint: endpoint,
		timeout:  DefaultSubmitTimeout,
		retries:  DefaultSubmitRetries,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}

	client := resty.New().
		SetTimeout(g.timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetRetryCount(g.retries).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
			}
			return r != nil && r.StatusCode() >= http.StatusInternalServerError
		})
	if g.token != "" {
		client.SetHeader(TokenHeader, g.token)
	}
	if g.transport != nil {
		client.SetTransport(g.transport)
	}
	g.client = client

	return g, nil
}

// Endpoint returns the API address.
func (g *GraphQL) Endpoint() string {
	return g.endpoint
}

// Submit sends item as a createVideo mutation.
func (g *GraphQL) Submit(ctx context.Context, item *model.Item) error {
	input := videoInput{
		Title:        item.Title,
		URL:          item.URL,
		ThumbnailURL: item.ThumbnailURL,
		Duration:     item.Duration,
		Tags:         item.Tags,
	}
	if item.Site != nil {
		input.Site = siteInput{
			Name:    item.Site.Name,
			Host:    item.Site.URL,
			Favicon: item.Site.Favicon,
		}
	}
	if input.Tags == nil {
		input.Tags = []string{}
	}

	var result graphQLResponse
	res, err := g.client.R().
		SetContext(ctx).
		SetBody(graphQLRequest{
			Query:     createVideoMutation,
			Variables: map[string]any{"input": input},
		}).
		SetResult(&result).
		SetError(&result).
		Post(g.endpoint)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return &SubmissionError{URL: item.URL, Err: err}
	}
	if !res.IsSuccess() {
		return &SubmissionError{URL: item.URL, StatusCode: res.StatusCode()}
	}
	if len(result.Errors) > 0 {
		msgs := make([]string, 0, len(result.Errors))
		for _, e := range result.Errors {
			msgs = append(msgs, e.Message)
		}
		return &SubmissionError{
			URL:        item.URL,
			StatusCode: res.StatusCode(),
			Err:        fmt.Errorf("%w: %s", ErrRejected, strings.Join(msgs, "; ")),
		}
	}

	g.logger.Debug("item sent", "title", item.Title, "url", item.URL)
	return nil
}
