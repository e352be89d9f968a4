package wordpress

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/wp2pdf/wp2pdf/pkg/errors"
	"github.com/wp2pdf/wp2pdf/pkg/httputil"
)

// postsFields limits the response payload to what rendering needs.
const postsFields = "id,date,title,content,_embedded"

// userAgent mimics a regular browser; some WordPress hosts reject
// unrecognized clients with 403.
const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

// Options configures a Client.
type Options struct {
	SiteURL    string
	Username   string
	Password   string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

// Client fetches posts from a WordPress site.
type Client struct {
	baseURL    string
	http       *httputil.Client
	maxRetries int
	retryDelay time.Duration
}

// NewClient validates opts and builds a Client. Credentials are optional;
// without them requests go out unauthenticated and private posts stay
// invisible.
func NewClient(opts Options) (*Client, error) {
	base := strings.TrimRight(opts.SiteURL, "/")
	if base == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "site URL is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid site URL")
	}

	var auth *httputil.BasicAuth
	if opts.Username != "" {
		auth = &httputil.BasicAuth{Username: opts.Username, Password: opts.Password}
	}
	headers := map[string]string{
		"User-Agent": userAgent,
		"Accept":     "application/json",
	}
	retries := opts.MaxRetries
	if retries <= 0 {
		retries = 3
	}
	delay := opts.RetryDelay
	if delay <= 0 {
		delay = time.Second
	}
	return &Client{
		baseURL:    base,
		http:       httputil.NewClient(opts.Timeout, headers, auth),
		maxRetries: retries,
		retryDelay: delay,
	}, nil
}

// Posts fetches one page of posts, newest first, with embedded taxonomy
// terms. Transient failures (transport errors, 5xx) are retried with
// exponential backoff before the error is returned.
func (c *Client) Posts(ctx context.Context, page, perPage int) ([]Post, Pagination, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))
	q.Set("_embed", "true")
	q.Set("_fields", postsFields)
	q.Set("orderby", "date")
	q.Set("order", "desc")
	endpoint := fmt.Sprintf("%s/wp-json/wp/v2/posts?%s", c.baseURL, q.Encode())

	var (
		posts  []Post
		header http.Header
	)
	err := httputil.Retry(ctx, c.maxRetries, c.retryDelay, func() error {
		posts = posts[:0]
		var err error
		header, err = c.http.GetJSON(ctx, endpoint, &posts)
		return err
	})
	if err != nil {
		return nil, Pagination{}, errors.Wrap(errorCode(err), err, "fetch posts page %d", page)
	}

	return posts, pagination(header), nil
}

// errorCode classifies a fetch failure for the structured error wrapper.
func errorCode(err error) errors.Code {
	switch {
	case stderrors.Is(err, httputil.ErrUnauthorized):
		return errors.ErrCodeUnauthorized
	case stderrors.Is(err, httputil.ErrNotFound):
		return errors.ErrCodeNotFound
	case stderrors.Is(err, context.DeadlineExceeded):
		return errors.ErrCodeTimeout
	default:
		return errors.ErrCodeNetwork
	}
}

// pagination reads the listing totals from the response headers. Missing or
// malformed headers yield zero values; callers fall back to stopping on the
// first empty page.
func pagination(h http.Header) Pagination {
	var p Pagination
	if n, err := strconv.Atoi(h.Get("X-WP-Total")); err == nil {
		p.Total = n
	}
	if n, err := strconv.Atoi(h.Get("X-WP-TotalPages")); err == nil {
		p.TotalPages = n
	}
	return p
}
