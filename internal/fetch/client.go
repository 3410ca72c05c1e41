// Package fetch pulls keyword search pages from the Google Books volumes API
// into the raw tree, one file per start index.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"time"

	"github.com/vvka-141/bookshelf/internal/files/filesystem"
	"github.com/vvka-141/bookshelf/internal/files/scanner"
	"github.com/vvka-141/bookshelf/internal/metrics"
	"github.com/vvka-141/bookshelf/internal/retry"
	"github.com/vvka-141/bookshelf/pkg/bookshelf"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// maxBodyBytes bounds a single page read into memory.
const maxBodyBytes int64 = 16 << 20

// Options configures a Client.
type Options struct {
	BaseURL string
	APIKey  string
	RawDir  string
	// EndIndex is the exclusive upper bound of start indexes requested.
	EndIndex          int
	MaxResults        int
	RequestsPerMinute int
}

// Result describes the pages written for one keyword.
type Result struct {
	Keyword string
	Date    string
	Files   []string
}

// Client fetches search pages. It is safe for concurrent use; requests of
// all goroutines share one rate limit.
type Client struct {
	httpClient *http.Client
	fsProvider filesystem.FileSystemProvider
	limiter    *rate.Limiter
	retry      *retry.Executor
	logger     *zap.Logger
	metrics    *metrics.Metrics
	opts       Options
	now        func() time.Time
	maxBody    int64
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// WithClock sets the clock that names the partition directory.
func WithClock(now func() time.Time) Option {
	return func(cl *Client) { cl.now = now }
}

// WithBackoff replaces the retry strategy for transient API errors.
func WithBackoff(strategy bookshelf.BackoffStrategy) Option {
	return func(cl *Client) {
		cl.retry = newRetryExecutor(strategy, cl.logger)
	}
}

// WithMaxBodySize bounds the size of one response body. Larger pages fail.
func WithMaxBodySize(n int64) Option {
	return func(cl *Client) { cl.maxBody = n }
}

// WithMetrics records written pages.
func WithMetrics(m *metrics.Metrics) Option {
	return func(cl *Client) { cl.metrics = m }
}

// NewClient creates a Client writing below opts.RawDir.
// Panics if fsProvider is nil.
func NewClient(fsProvider filesystem.FileSystemProvider, logger *zap.Logger, opts Options, options ...Option) *Client {
	if fsProvider == nil {
		panic("fsProvider cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.RequestsPerMinute <= 0 {
		opts.RequestsPerMinute = bookshelf.DefaultRequestsPerMinute
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = bookshelf.DefaultMaxResults
	}

	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		fsProvider: fsProvider,
		limiter:    rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RequestsPerMinute)), 1),
		logger:     logger,
		opts:       opts,
		now:        time.Now,
		maxBody:    maxBodyBytes,
	}
	c.retry = newRetryExecutor(retry.NewExponentialBackoff(bookshelf.DefaultRetryMaxAttempts), logger)
	for _, o := range options {
		o(c)
	}
	return c
}

func newRetryExecutor(strategy bookshelf.BackoffStrategy, logger *zap.Logger) *retry.Executor {
	return retry.NewExecutor(retry.NewHTTPErrorClassifier(), strategy).
		WithOnRetry(func(attempt int, err error, delay time.Duration) {
			logger.Warn("retrying catalog request",
				zap.Int("attempt", attempt+1),
				zap.Duration("delay", delay),
				zap.Error(err),
			)
		})
}

// Fetch requests start indexes 0 to EndIndex-1 for keyword and writes each
// body to <raw>/<keyword>/<today>/start_index_<i>.json. It stops at the
// first request that still fails after retries.
func (c *Client) Fetch(ctx context.Context, keyword string) (*Result, error) {
	date := c.now().Format(bookshelf.DateLayout)
	result := &Result{Keyword: keyword, Date: date}
	log := c.logger.With(zap.String("keyword", keyword), zap.String("date", date))

	for startIndex := 0; startIndex < c.opts.EndIndex; startIndex++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return result, err
		}

		var body []byte
		var status int
		err := c.retry.Execute(ctx, func(ctx context.Context) error {
			var err error
			body, status, err = c.get(ctx, keyword, startIndex)
			return err
		})
		if err != nil {
			log.Error("catalog request failed",
				zap.Int("start_index", startIndex),
				zap.Int("max_results", c.opts.MaxResults),
				zap.Error(err),
			)
			return result, err
		}

		path := scanner.RawPagePath(c.opts.RawDir, keyword, date, startIndex)
		if err := c.write(path, body); err != nil {
			return result, err
		}
		result.Files = append(result.Files, path)
		c.metrics.ObserveFetch(keyword, 1)

		log.Info("page fetched",
			zap.Int("start_index", startIndex),
			zap.Int("max_results", c.opts.MaxResults),
			zap.Int("status", status),
		)
	}
	return result, nil
}

func (c *Client) get(ctx context.Context, keyword string, startIndex int) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.pageURL(keyword, startIndex), nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, c.maxBody))
		return nil, resp.StatusCode, &bookshelf.ResponseError{
			StartIndex: startIndex,
			StatusCode: resp.StatusCode,
			Reason:     http.StatusText(resp.StatusCode),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response from index %d: %w", startIndex, err)
	}
	if int64(len(body)) > c.maxBody {
		return nil, resp.StatusCode, fmt.Errorf("%w: response from index %d exceeds %d bytes",
			bookshelf.ErrFetchFailed, startIndex, c.maxBody)
	}
	return body, resp.StatusCode, nil
}

func (c *Client) pageURL(keyword string, startIndex int) string {
	q := url.Values{}
	q.Set("q", keyword)
	q.Set("intitle", keyword)
	q.Set("startIndex", strconv.Itoa(startIndex))
	q.Set("maxResults", strconv.Itoa(c.opts.MaxResults))
	if c.opts.APIKey != "" {
		q.Set("key", c.opts.APIKey)
	}
	return c.opts.BaseURL + "?" + q.Encode()
}

func (c *Client) write(path string, body []byte) error {
	if err := c.fsProvider.MkdirAll(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}
	if err := c.fsProvider.WriteFile(path, body); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
