package cms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/templui/spacenews/internal/metrics"
)

const (
	maxResponseBytes = 5 * 1024 * 1024
	accessTokenParam = "access_token"
	uidPageSize      = 100
)

// Client talks to a Prismic-style content API (REST v2).
type Client struct {
	apiURL       *url.URL
	accessToken  string
	documentType string
	httpClient   *http.Client
	recorder     metrics.Recorder
}

type Options struct {
	APIURL       string
	AccessToken  string
	DocumentType string
	Timeout      time.Duration
	HTTPClient   *http.Client // optional, Timeout is ignored when set
	Recorder     metrics.Recorder
}

// QueryOptions narrows a typed search.
type QueryOptions struct {
	Fetch    []string // field names without the type prefix, e.g. "title"
	PageSize int
	Page     int
}

func New(opts Options) (*Client, error) {
	apiURL, err := validateURL(opts.APIURL)
	if err != nil {
		return nil, fmt.Errorf("invalid cms api url: %w", err)
	}
	apiURL.Path = strings.TrimSuffix(apiURL.Path, "/")

	if opts.DocumentType == "" {
		opts.DocumentType = "posts"
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = newHTTPClient(timeout)
	}

	recorder := opts.Recorder
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}

	return &Client{
		apiURL:       apiURL,
		accessToken:  opts.AccessToken,
		documentType: opts.DocumentType,
		httpClient:   httpClient,
		recorder:     recorder,
	}, nil
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) == 0 {
				return nil
			}
			if req.URL.Host != via[0].URL.Host {
				return errors.New("redirect to different host blocked")
			}
			if len(via) >= 5 {
				return errors.New("too many redirects")
			}
			return nil
		},
	}
}

// DocumentType is the custom type queried by this client.
func (c *Client) DocumentType() string {
	return c.documentType
}

// MasterRef returns the ref of the currently published content.
func (c *Client) MasterRef(ctx context.Context) (string, error) {
	var info apiInfo
	err := c.get(ctx, "api", c.withToken(*c.apiURL), &info)
	if err != nil {
		return "", err
	}

	for _, ref := range info.Refs {
		if ref.IsMasterRef {
			return ref.Ref, nil
		}
	}
	return "", ErrNoMasterRef
}

// QueryPosts runs the first page of a search over every document of the client's type.
func (c *Client) QueryPosts(ctx context.Context, opts QueryOptions) (*Response, error) {
	ref, err := c.MasterRef(ctx)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("ref", ref)
	params.Set("q", fmt.Sprintf(`[[at(document.type,"%s")]]`, c.documentType))
	if len(opts.Fetch) > 0 {
		fields := make([]string, 0, len(opts.Fetch))
		for _, f := range opts.Fetch {
			fields = append(fields, c.documentType+"."+f)
		}
		params.Set("fetch", strings.Join(fields, ","))
	}
	if opts.PageSize > 0 {
		params.Set("pageSize", strconv.Itoa(opts.PageSize))
	}
	if opts.Page > 0 {
		params.Set("page", strconv.Itoa(opts.Page))
	}

	var resp Response
	err = c.get(ctx, "search", c.searchURL(params), &resp)
	if err != nil {
		return nil, err
	}
	c.cleanCursors(&resp)
	return &resp, nil
}

// FetchPage follows a cursor returned by a previous search.
func (c *Client) FetchPage(ctx context.Context, cursor string) (*Response, error) {
	u, err := c.cursorURL(cursor)
	if err != nil {
		return nil, err
	}

	var resp Response
	err = c.get(ctx, "next_page", c.withToken(*u), &resp)
	if err != nil {
		return nil, err
	}
	c.cleanCursors(&resp)
	return &resp, nil
}

// GetByUID returns the full document with the given uid or ErrNotFound.
func (c *Client) GetByUID(ctx context.Context, uid string) (*RawPostRecord, error) {
	if uid == "" || strings.ContainsAny(uid, "\"\\[]") {
		return nil, ErrNotFound
	}

	ref, err := c.MasterRef(ctx)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("ref", ref)
	params.Set("q", fmt.Sprintf(`[[at(my.%s.uid,"%s")]]`, c.documentType, uid))
	params.Set("pageSize", "1")

	var resp Response
	err = c.get(ctx, "get_by_uid", c.searchURL(params), &resp)
	if err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, ErrNotFound
	}
	return &resp.Results[0], nil
}

// AllUIDs walks every page of the type and returns the uids in server order.
func (c *Client) AllUIDs(ctx context.Context) ([]string, error) {
	resp, err := c.QueryPosts(ctx, QueryOptions{Fetch: []string{"uid"}, PageSize: uidPageSize})
	if err != nil {
		return nil, err
	}

	var uids []string
	seen := make(map[string]bool)
	for {
		for _, record := range resp.Results {
			if record.UID != "" {
				uids = append(uids, record.UID)
			}
		}

		cursor := resp.Cursor()
		if cursor == "" {
			return uids, nil
		}
		if seen[cursor] {
			return nil, ErrCursorLoop
		}
		seen[cursor] = true

		resp, err = c.FetchPage(ctx, cursor)
		if err != nil {
			return nil, err
		}
	}
}

func (c *Client) get(ctx context.Context, op string, u url.URL, out any) error {
	start := time.Now()
	err := c.do(ctx, u, out)

	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultError
		if errors.Is(err, ErrNotFound) {
			result = metrics.ResultNotFound
		}
	}
	c.recorder.ObserveCMSRequest(op, time.Since(start), result)

	return err
}

func (c *Client) do(ctx context.Context, u url.URL, out any) error {
	display := redact(u)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return redactErr(err, display)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{StatusCode: resp.StatusCode, URL: display}
	}

	limited := io.LimitReader(resp.Body, maxResponseBytes+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if len(data) > maxResponseBytes {
		return errors.New("response too large")
	}

	err = json.Unmarshal(data, out)
	if err != nil {
		return fmt.Errorf("decode response from %s: %w", display, err)
	}
	return nil
}

func (c *Client) searchURL(params url.Values) url.URL {
	u := *c.apiURL
	u.Path += "/documents/search"
	u.RawQuery = params.Encode()
	return c.withToken(u)
}

func (c *Client) withToken(u url.URL) url.URL {
	if c.accessToken == "" {
		return u
	}
	q := u.Query()
	q.Set(accessTokenParam, c.accessToken)
	u.RawQuery = q.Encode()
	return u
}

// cursorURL parses a cursor and makes sure it targets the configured API.
func (c *Client) cursorURL(cursor string) (*url.URL, error) {
	u, err := validateURL(cursor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrForeignCursor, err)
	}
	if u.Scheme != c.apiURL.Scheme || u.Host != c.apiURL.Host || !c.underAPIPath(u.Path) {
		return nil, ErrForeignCursor
	}
	return u, nil
}

// underAPIPath reports whether p is the API path itself or below it.
func (c *Client) underAPIPath(p string) bool {
	return p == c.apiURL.Path || strings.HasPrefix(p, c.apiURL.Path+"/")
}

// cleanCursors strips the access token from returned cursors so they can be
// handed to browsers.
func (c *Client) cleanCursors(resp *Response) {
	strip := func(s *string) *string {
		if s == nil {
			return nil
		}
		u, err := url.Parse(*s)
		if err != nil {
			return s
		}
		q := u.Query()
		q.Del(accessTokenParam)
		u.RawQuery = q.Encode()
		clean := u.String()
		return &clean
	}
	resp.NextPage = strip(resp.NextPage)
	resp.PrevPage = strip(resp.PrevPage)
}

func validateURL(raw string) (*url.URL, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("unsupported URL scheme: %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return nil, errors.New("missing host")
	}
	return parsed, nil
}

func redact(u url.URL) string {
	q := u.Query()
	if q.Has(accessTokenParam) {
		q.Set(accessTokenParam, "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// redactErr keeps transport errors (which embed the request URL) free of the token.
func redactErr(err error, display string) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &url.Error{Op: urlErr.Op, URL: display, Err: urlErr.Err}
	}
	return fmt.Errorf("fetch %s: %w", display, err)
}
