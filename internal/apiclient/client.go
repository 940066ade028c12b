package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"fooddonation/internal/domain"
	"fooddonation/internal/infra"
)

// TokenSource yields the stored bearer token. found=false means no user is
// signed in.
type TokenSource interface {
	Token(ctx context.Context) (token string, found bool, err error)
}

// Options configures the marketplace API client.
type Options struct {
	BaseURL        string
	HTTPClient     *http.Client
	Credentials    TokenSource
	Logger         *infra.Logger
	// RequestTimeout bounds each call; zero keeps the HTTP client's own
	// timeout. A supplied HTTPClient without a timeout is copied and given
	// this one.
	RequestTimeout time.Duration
	// NewBoundary overrides multipart boundary generation.
	NewBoundary func() string
}

// Client issues HTTP calls against the marketplace API, attaching the bearer
// token and classifying every failure into the domain error taxonomy.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	credentials TokenSource
	logger      *infra.Logger
	newBoundary func() string
}

// Response is a successful (2xx) reply whose body, when present, is valid JSON.
type Response struct {
	StatusCode int
	Body       json.RawMessage
}

// Decode unmarshals the body into out. A missing body or a shape mismatch is
// a *domain.DecodeError.
func (r *Response) Decode(out any) error {
	if r == nil || len(r.Body) == 0 {
		return &domain.DecodeError{Err: errors.New("empty response body")}
	}
	if err := json.Unmarshal(r.Body, out); err != nil {
		return &domain.DecodeError{Err: err}
	}
	return nil
}

type errorEnvelope struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// NewClient constructs a client with defaults and injected dependencies.
func NewClient(opts Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, errors.New("apiclient: base url is required")
	}
	parsed, err := url.Parse(base)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("apiclient: invalid base url %q", opts.BaseURL)
	}
	logger := opts.Logger
	if logger == nil {
		logger = infra.NopLogger()
	}
	httpClient := opts.HTTPClient
	switch {
	case httpClient == nil:
		httpClient = &http.Client{
			Timeout:   opts.RequestTimeout,
			Transport: infra.NewLoggingTransport(nil, *logger),
		}
	case opts.RequestTimeout > 0 && httpClient.Timeout == 0:
		withTimeout := *httpClient
		withTimeout.Timeout = opts.RequestTimeout
		httpClient = &withTimeout
	}
	newBoundary := opts.NewBoundary
	if newBoundary == nil {
		newBoundary = randomBoundary
	}
	return &Client{
		baseURL:     base,
		httpClient:  httpClient,
		credentials: opts.Credentials,
		logger:      logger,
		newBoundary: newBoundary,
	}, nil
}

// BaseURL returns the configured origin without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// URL resolves a server-relative path against the base URL.
func (c *Client) URL(path string) string {
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

// RequestJSON sends body (when non-nil) as a JSON document.
func (c *Client) RequestJSON(ctx context.Context, method, path string, body any, requiresAuth bool) (*Response, error) {
	token, err := c.authorize(ctx, requiresAuth)
	if err != nil {
		return nil, err
	}
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, &domain.DecodeError{Err: fmt.Errorf("apiclient: encode request: %w", err)}
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.URL(path), reader)
	if err != nil {
		return nil, &domain.NetworkError{Err: fmt.Errorf("apiclient: build request: %w", err)}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, token)
}

// RequestMultipart sends fields (in order) and an optional image part as
// multipart/form-data.
func (c *Client) RequestMultipart(ctx context.Context, path string, fields []Field, file *FilePart, requiresAuth bool) (*Response, error) {
	token, err := c.authorize(ctx, requiresAuth)
	if err != nil {
		return nil, err
	}
	body, contentType, err := EncodeMultipart(c.newBoundary(), fields, file)
	if err != nil {
		return nil, &domain.DecodeError{Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL(path), bytes.NewReader(body))
	if err != nil {
		return nil, &domain.NetworkError{Err: fmt.Errorf("apiclient: build request: %w", err)}
	}
	req.Header.Set("Content-Type", contentType)
	return c.do(req, token)
}

// authorize returns the token to attach, or ErrUnauthenticated before any
// network I/O when one is required but not stored or cannot be read.
func (c *Client) authorize(ctx context.Context, requiresAuth bool) (string, error) {
	if !requiresAuth {
		return "", nil
	}
	if c.credentials == nil {
		return "", domain.ErrUnauthenticated
	}
	token, ok, err := c.credentials.Token(ctx)
	if err != nil {
		// An unreadable token counts as no session.
		return "", fmt.Errorf("%w: %w", domain.ErrUnauthenticated, err)
	}
	if !ok {
		return "", domain.ErrUnauthenticated
	}
	return token, nil
}

func (c *Client) do(req *http.Request, token string) (*Response, error) {
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &domain.NetworkError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.NetworkError{Err: err}
	}
	c.logger.Debug().
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Int("status", resp.StatusCode).
		Int("bytes", len(raw)).
		Msg("apiclient: response")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, serverError(resp.StatusCode, raw)
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && !json.Valid(trimmed) {
		return nil, &domain.DecodeError{Err: fmt.Errorf("status %d: body is not JSON", resp.StatusCode)}
	}
	return &Response{StatusCode: resp.StatusCode, Body: json.RawMessage(trimmed)}, nil
}

func serverError(status int, raw []byte) *domain.ServerError {
	var env errorEnvelope
	if err := json.Unmarshal(raw, &env); err == nil {
		if msg := strings.TrimSpace(env.Error); msg != "" {
			return &domain.ServerError{StatusCode: status, Message: msg}
		}
		if msg := strings.TrimSpace(env.Message); msg != "" {
			return &domain.ServerError{StatusCode: status, Message: msg}
		}
	}
	return &domain.ServerError{StatusCode: status, Message: fmt.Sprintf("unexpected response (status %d)", status)}
}

// Asset is an opaque binary fetched from a server-relative path.
type Asset struct {
	Data        []byte
	ContentType string
}

// FetchAsset downloads an image (or any file) with a plain unauthenticated GET.
func (c *Client) FetchAsset(ctx context.Context, path string) (*Asset, error) {
	if strings.TrimSpace(path) == "" {
		return nil, domain.Invalid("path", "Image path is missing")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(path), nil)
	if err != nil {
		return nil, &domain.NetworkError{Err: fmt.Errorf("apiclient: build download request: %w", err)}
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &domain.NetworkError{Err: err}
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.NetworkError{Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, serverError(resp.StatusCode, data)
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return &Asset{Data: data, ContentType: contentType}, nil
}
