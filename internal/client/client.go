// Package client talks to a running tsm server over its JSON API.
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
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/Tiliavir/timesheet/internal/model"
	"github.com/Tiliavir/timesheet/internal/validation"
	"github.com/Tiliavir/timesheet/internal/view"
)

// DefaultServer is used when no --server flag is given.
const DefaultServer = "http://localhost:8080"

// ErrUnauthorized is wrapped by API errors with status 401.
var ErrUnauthorized = errors.New("not signed in")

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Code    string
	Message string
	Fields  map[string]string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return fmt.Sprintf("%s (%d)", e.Message, e.Status)
}

// Unwrap exposes field errors as *validation.Error, 404 as
// model.ErrNotFound and 401 as ErrUnauthorized.
func (e *APIError) Unwrap() error {
	switch {
	case len(e.Fields) > 0:
		return &validation.Error{Fields: e.Fields}
	case e.Status == http.StatusNotFound:
		return model.ErrNotFound
	case e.Status == http.StatusUnauthorized:
		return ErrUnauthorized
	}
	return nil
}

// Client is an API client. It satisfies workflow.Backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New returns a client for the server at baseURL. A non-nil tok is sent as
// a bearer token on every request.
func New(ctx context.Context, baseURL string, tok *oauth2.Token) *Client {
	hc := http.DefaultClient
	if v, ok := ctx.Value(oauth2.HTTPClient).(*http.Client); ok && v != nil {
		hc = v
	}
	if tok != nil {
		hc = oauth2.NewClient(ctx, oauth2.StaticTokenSource(tok))
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: hc,
	}
}

type dataResponse[T any] struct {
	Data T `json:"data"`
}

// List fetches every timesheet in insertion order.
func (c *Client) List(ctx context.Context) ([]model.Entry, error) {
	var resp dataResponse[[]model.Entry]
	if err := c.do(ctx, http.MethodGet, "/timesheets", nil, &resp); err != nil {
		return nil, fmt.Errorf("listing timesheets: %w", err)
	}
	return resp.Data, nil
}

// Week fetches the day-grouped projection of the current week.
func (c *Client) Week(ctx context.Context) (view.Week, error) {
	var resp dataResponse[view.Week]
	if err := c.do(ctx, http.MethodGet, "/timesheets/week", nil, &resp); err != nil {
		return view.Week{}, fmt.Errorf("fetching week: %w", err)
	}
	return resp.Data, nil
}

// Create submits a new timesheet.
func (c *Client) Create(ctx context.Context, in validation.Input) (model.Entry, error) {
	var resp dataResponse[model.Entry]
	if err := c.do(ctx, http.MethodPost, "/timesheets", in, &resp); err != nil {
		return model.Entry{}, fmt.Errorf("creating timesheet: %w", err)
	}
	return resp.Data, nil
}

// Update replaces the provided fields of timesheet id.
func (c *Client) Update(ctx context.Context, id string, in validation.Input) (model.Entry, error) {
	var resp dataResponse[model.Entry]
	if err := c.do(ctx, http.MethodPut, "/timesheets/"+url.PathEscape(id), in, &resp); err != nil {
		return model.Entry{}, fmt.Errorf("updating timesheet %s: %w", id, err)
	}
	return resp.Data, nil
}

// Delete removes timesheet id.
func (c *Client) Delete(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/timesheets/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("deleting timesheet %s: %w", id, err)
	}
	return nil
}

// Health is the server's /health answer.
type Health struct {
	Status  string `json:"status"`
	Entries int    `json:"entries"`
}

// Health checks that the server is up. It needs no token.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var h Health
	if err := c.do(ctx, http.MethodGet, "/health", nil, &h); err != nil {
		return Health{}, fmt.Errorf("checking health: %w", err)
	}
	return h, nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expiresIn"`
	Email     string `json:"email"`
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (*oauth2.Token, error) {
	var resp loginResponse
	if err := c.do(ctx, http.MethodPost, "/login", loginRequest{Email: email, Password: password}, &resp); err != nil {
		return nil, fmt.Errorf("signing in: %w", err)
	}
	if resp.Token == "" {
		return nil, errors.New("signing in: server returned no token")
	}
	tok := &oauth2.Token{AccessToken: resp.Token, TokenType: "Bearer"}
	if resp.ExpiresIn > 0 {
		tok.Expiry = time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	}
	return tok, nil
}

type errorResponse struct {
	Error  string            `json:"error"`
	Code   string            `json:"code"`
	Fields map[string]string `json:"fields"`
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", c.baseURL, err)
	}
	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{Status: resp.StatusCode}
		var er errorResponse
		if json.Unmarshal(data, &er) == nil {
			apiErr.Code, apiErr.Message, apiErr.Fields = er.Code, er.Error, er.Fields
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
