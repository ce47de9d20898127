package crawler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"
)

// Fetcher retrieves the markup at an address.
// Implementations must honor ctx cancellation.
type Fetcher interface {
	Fetch(ctx context.Context, address string) (string, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, address string) (string, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, address string) (string, error) {
	return f(ctx, address)
}

// Default fetcher settings.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultUserAgent   = "pagewalk/1.0 (+https://github.com/nao1215/pagewalk)"
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB
	DefaultRetryCount  = 2
	DefaultRetryWait   = 500 * time.Millisecond
)

// HTTPFetcher fetches pages over HTTP(S) with retries, politeness delay and
// an optional SOCKS5 proxy.
type HTTPFetcher struct {
	client      *resty.Client
	limiter     *rate.Limiter
	logger      *slog.Logger
	maxBodySize int64

	// settings captured from options before the client is built
	timeout    time.Duration
	userAgent  string
	cookie     string
	headers    map[string]string
	proxyAddr  string
	delay      time.Duration
	retryCount int
	retryWait  time.Duration
	transport  http.RoundTripper
}

// FetcherOption configures an HTTPFetcher.
type FetcherOption func(*HTTPFetcher)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) FetcherOption {
	return func(f *HTTPFetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) FetcherOption {
	return func(f *HTTPFetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithCookie sets the Cookie header sent with every request.
func WithCookie(cookie string) FetcherOption {
	return func(f *HTTPFetcher) {
		f.cookie = cookie
	}
}

// WithHeaders adds custom headers to every request.
func WithHeaders(headers map[string]string) FetcherOption {
	return func(f *HTTPFetcher) {
		if f.headers == nil {
			f.headers = make(map[string]string, len(headers))
		}
		for k, v := range headers {
			f.headers[k] = v
		}
	}
}

// WithProxy routes requests through the SOCKS5 proxy at addr ("host:port").
func WithProxy(addr string) FetcherOption {
	return func(f *HTTPFetcher) {
		f.proxyAddr = addr
	}
}

// WithDelay sets the minimum interval between requests.
func WithDelay(d time.Duration) FetcherOption {
	return func(f *HTTPFetcher) {
		f.delay = d
	}
}

// WithRetries sets how often a failed request is retried and the initial wait.
func WithRetries(count int, wait time.Duration) FetcherOption {
	return func(f *HTTPFetcher) {
		if count >= 0 {
			f.retryCount = count
		}
		if wait > 0 {
			f.retryWait = wait
		}
	}
}

// WithMaxBodySize caps the number of body bytes read per response. The rest
// of a longer body is never read and the page is parsed from the prefix.
func WithMaxBodySize(n int64) FetcherOption {
	return func(f *HTTPFetcher) {
		if n > 0 {
			f.maxBodySize = n
		}
	}
}

// WithTransport replaces the HTTP transport. It takes precedence over WithProxy.
func WithTransport(rt http.RoundTripper) FetcherOption {
	return func(f *HTTPFetcher) {
		f.transport = rt
	}
}

// WithFetcherLogger sets the logger used for retry and fetch diagnostics.
func WithFetcherLogger(logger *slog.Logger) FetcherOption {
	return func(f *HTTPFetcher) {
		f.logger = logger
	}
}

// NewHTTPFetcher builds an HTTPFetcher. It fails only for an invalid proxy address.
func NewHTTPFetcher(opts ...FetcherOption) (*HTTPFetcher, error) {
	f := &HTTPFetcher{
		timeout:     DefaultTimeout,
		userAgent:   DefaultUserAgent,
		maxBodySize: DefaultMaxBodySize,
		retryCount:  DefaultRetryCount,
		retryWait:   DefaultRetryWait,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = slog.Default()
	}

	transport := f.transport
	if transport == nil && f.proxyAddr != "" {
		t, err := newSOCKS5Transport(f.proxyAddr)
		if err != nil {
			return nil, err
		}
		transport = t
	}

	client := resty.New().
		SetTimeout(f.timeout).
		SetHeader("User-Agent", f.userAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8").
		SetHeader("Accept-Language", "en-US,en;q=0.5").
		SetRetryCount(f.retryCount).
		SetRetryWaitTime(f.retryWait).
		SetRetryMaxWaitTime(f.retryWait * 8).
		AddRetryCondition(shouldRetry).
		AddRetryHook(closeBody)
	if f.cookie != "" {
		client.SetHeader("Cookie", f.cookie)
	}
	if len(f.headers) > 0 {
		client.SetHeaders(f.headers)
	}
	if transport != nil {
		client.SetTransport(transport)
	}
	f.client = client

	if f.delay > 0 {
		f.limiter = rate.NewLimiter(rate.Every(f.delay), 1)
	}

	return f, nil
}

// shouldRetry retries transport failures, throttling and server errors.
// Cancellation is never retried.
func shouldRetry(r *resty.Response, err error) bool {
	if err != nil {
		return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
	}
	if r == nil {
		return false
	}
	code := r.StatusCode()
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

// closeBody releases the unread body of a raw response.
func closeBody(r *resty.Response, _ error) {
	if r == nil {
		return
	}
	if body := r.RawBody(); body != nil {
		_ = body.Close()
	}
}

// Fetch retrieves address and returns its body decoded to UTF-8.
// Non-2xx responses and transport failures are returned as *FetchError.
func (f *HTTPFetcher) Fetch(ctx context.Context, address string) (string, error) {
	u, err := url.Parse(address)
	if err != nil {
		return "", &FetchError{URL: address, Err: err}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", &FetchError{URL: address, Err: fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)}
	}

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return "", &FetchError{URL: address, Err: err}
		}
	}

	res, err := f.client.R().SetContext(ctx).SetDoNotParseResponse(true).Get(address)
	defer closeBody(res, nil)
	if err != nil {
		return "", fetchError(ctx, address, err)
	}
	if !res.IsSuccess() {
		return "", &FetchError{URL: address, StatusCode: res.StatusCode()}
	}

	body, err := io.ReadAll(io.LimitReader(res.RawBody(), f.maxBodySize+1))
	if err != nil {
		return "", fetchError(ctx, address, err)
	}
	if int64(len(body)) > f.maxBodySize {
		f.logger.Debug("response truncated", "url", address, "limit", f.maxBodySize)
		body = body[:f.maxBodySize]
	}

	text, err := decode(body, res.Header().Get("Content-Type"))
	if err != nil {
		return "", &FetchError{URL: address, Err: err}
	}

	f.logger.Debug("fetched", "url", address, "status", res.StatusCode(), "bytes", len(body))
	return text, nil
}

// fetchError wraps a transport failure, preferring the context's error
// when the request was cancelled.
func fetchError(ctx context.Context, address string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		err = ctxErr
	}
	return &FetchError{URL: address, Err: err}
}

// decode converts body to UTF-8 using the Content-Type charset or, failing
// that, the document's own meta declaration.
func decode(body []byte, contentType string) (string, error) {
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		// Unknown charset label: keep the bytes as they are.
		return string(body), nil //nolint:nilerr // undecodable charsets fall back to raw bytes
	}
	text, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(text), nil
}

// FileFetcher reads markup from local files. Addresses may be plain paths
// or file:// URLs.
type FileFetcher struct {
	// Root, when set, is joined in front of relative paths.
	Root string
}

// Fetch reads the file named by address.
func (f FileFetcher) Fetch(ctx context.Context, address string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &FetchError{URL: address, Err: err}
	}

	path := address
	if strings.HasPrefix(address, "file://") {
		u, err := url.Parse(address)
		if err != nil {
			return "", &FetchError{URL: address, Err: err}
		}
		path = u.Path
	}
	if f.Root != "" && !strings.HasPrefix(path, "/") {
		path = f.Root + string(os.PathSeparator) + path
	}

	data, err := os.ReadFile(path) //nolint:gosec // reading user-named files is the purpose
	if err != nil {
		return "", &FetchError{URL: address, Err: err}
	}
	return decode(data, "")
}
