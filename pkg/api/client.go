// Copyright (C) 2025 Joshua Goldstein

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/SergeyMarcum/crm-app/pkg/logger"
)

const maxBodySize = 8 << 20

var log = logger.NewLogger("api")

// Credentials authenticate a call. They travel as the domain, username and
// token query parameters.
type Credentials struct {
	Domain   string
	Username string
	Token    string
}

// Valid reports whether the credentials can be sent.
func (c Credentials) Valid() bool {
	return c.Domain != "" && c.Username != "" && c.Token != ""
}

func (c Credentials) apply(q url.Values) {
	q.Set("domain", c.Domain)
	q.Set("username", c.Username)
	q.Set("token", c.Token)
}

// Client is a REST client for the inspection backend. It never retries.
type Client struct {
	base *url.URL
	http *http.Client
}

// NewClient creates a client for baseURL. A non-positive timeout leaves
// requests bounded only by their context.
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("backend url %q: scheme must be http or https", baseURL)
	}
	hc := &http.Client{}
	if timeout > 0 {
		hc.Timeout = timeout
	}
	return &Client{base: u, http: hc}, nil
}

// BaseURL returns the backend root.
func (c *Client) BaseURL() string {
	return c.base.String()
}

func (c *Client) endpoint(path string, q url.Values) string {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	if len(q) > 0 {
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// do sends one request and returns the raw 2xx body.
func (c *Client) do(ctx context.Context, method, path string, q url.Values, in any) ([]byte, error) {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, q), body)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read %s %s: %w", method, path, err)
	}
	log.Debug("Backend call", "method", method, "path", path, "status", resp.StatusCode, "duration", time.Since(start).String())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newAPIError(resp.StatusCode, data)
	}
	return data, nil
}

func (c *Client) authed(ctx context.Context, creds Credentials, method, path string, q url.Values, in any) ([]byte, error) {
	if !creds.Valid() {
		return nil, ErrNoCredentials
	}
	if q == nil {
		q = url.Values{}
	}
	creds.apply(q)
	return c.do(ctx, method, path, q, in)
}

// decodeList decodes a JSON array. Anything that is not an array yields an
// empty, non-nil list.
func decodeList[T any](data []byte) ([]T, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return []T{}, nil
	}
	var out []T
	if err := json.Unmarshal(trimmed, &out); err != nil {
		return nil, fmt.Errorf("decode list: %w", err)
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

// decodeOne decodes an object. An empty body yields the zero value.
func decodeOne[T any](data []byte) (T, error) {
	var out T
	if len(bytes.TrimSpace(data)) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("decode: %w", err)
	}
	return out, nil
}

// Resource is the CRUD surface of one backend collection.
type Resource[T any] struct {
	client *Client
	path   string
}

// NewResource binds a collection path such as "/users".
func NewResource[T any](c *Client, path string) Resource[T] {
	return Resource[T]{client: c, path: path}
}

// Path returns the collection path.
func (r Resource[T]) Path() string { return r.path }

// List fetches the collection, narrowed by optional query parameters.
func (r Resource[T]) List(ctx context.Context, creds Credentials, q url.Values) ([]T, error) {
	data, err := r.client.authed(ctx, creds, http.MethodGet, r.path, q, nil)
	if err != nil {
		return nil, err
	}
	return decodeList[T](data)
}

func (r Resource[T]) Get(ctx context.Context, creds Credentials, id int) (T, error) {
	var zero T
	data, err := r.client.authed(ctx, creds, http.MethodGet, r.item(id), nil, nil)
	if err != nil {
		return zero, err
	}
	return decodeOne[T](data)
}

func (r Resource[T]) Create(ctx context.Context, creds Credentials, in any) (T, error) {
	var zero T
	data, err := r.client.authed(ctx, creds, http.MethodPost, r.path, nil, in)
	if err != nil {
		return zero, err
	}
	return decodeOne[T](data)
}

func (r Resource[T]) Update(ctx context.Context, creds Credentials, id int, in any) (T, error) {
	var zero T
	data, err := r.client.authed(ctx, creds, http.MethodPut, r.item(id), nil, in)
	if err != nil {
		return zero, err
	}
	return decodeOne[T](data)
}

func (r Resource[T]) Delete(ctx context.Context, creds Credentials, id int) error {
	_, err := r.client.authed(ctx, creds, http.MethodDelete, r.item(id), nil, nil)
	return err
}

func (r Resource[T]) item(id int) string {
	return r.path + "/" + strconv.Itoa(id)
}
