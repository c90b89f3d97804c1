// Package client talks to the expenses REST API and holds the client-side
// state shared by the terminal views.
package client

import (
	"bytes"
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

	"expenses/internal/core"
)

// Result is the outcome of one API call. Callers check OK before using
// Value.
type Result[T any] struct {
	Value T
	Err   error
}

func ok[T any](v T) Result[T] { return Result[T]{Value: v} }

func fail[T any](err error) Result[T] { return Result[T]{Err: err} }

// OK reports whether the call succeeded.
func (r Result[T]) OK() bool { return r.Err == nil }

// Unwrap returns the value and error in the usual Go order.
func (r Result[T]) Unwrap() (T, error) { return r.Value, r.Err }

// APIError is a non-2xx response. Message is the server's "message" field
// when present.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("api: %d %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Client calls /api/expenses on one server.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the default client (10s timeout).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New returns a client for the server at baseURL, e.g. http://localhost:3000.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse api url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("api url %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		endpoint:   u.String() + "/api/expenses",
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) List(ctx context.Context) Result[[]core.Expense] {
	var out []core.Expense
	if err := c.do(ctx, http.MethodGet, c.endpoint, nil, http.StatusOK, &out); err != nil {
		return fail[[]core.Expense](err)
	}
	if out == nil {
		out = []core.Expense{}
	}
	return ok(out)
}

func (c *Client) Create(ctx context.Context, in core.ExpenseInput) Result[core.Expense] {
	var out core.Expense
	if err := c.do(ctx, http.MethodPost, c.endpoint, in, http.StatusCreated, &out); err != nil {
		return fail[core.Expense](err)
	}
	return ok(out)
}

func (c *Client) Update(ctx context.Context, id int64, in core.ExpenseInput) Result[core.Expense] {
	var out core.Expense
	if err := c.do(ctx, http.MethodPut, c.itemURL(id), in, http.StatusOK, &out); err != nil {
		return fail[core.Expense](err)
	}
	return ok(out)
}

func (c *Client) Delete(ctx context.Context, id int64) Result[struct{}] {
	if err := c.do(ctx, http.MethodDelete, c.itemURL(id), nil, http.StatusNoContent, nil); err != nil {
		return fail[struct{}](err)
	}
	return ok(struct{}{})
}

func (c *Client) itemURL(id int64) string {
	return c.endpoint + "/" + strconv.FormatInt(id, 10)
}

func (c *Client) do(ctx context.Context, method, target string, body any, want int, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != want {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var msg struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(data, &msg) == nil {
			apiErr.Message = msg.Message
		}
		return apiErr
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
