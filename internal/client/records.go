package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/fresque-dev/fresque/internal/logging"
	"github.com/fresque-dev/fresque/pkg/schema"
)

// ListQuery parameterizes GetList: a filter document, sort field with
// direction, and a zero-based page window.
type ListQuery struct {
	Filter   map[string]any
	Sort     string
	Order    string
	Page     int
	PerPage  int
}

// Meta carries per-call hints. IDField switches GetMany to filter on an
// alternate identifier instead of "id".
type Meta struct {
	IDField string
}

// RecordClient talks to the platform's record store over REST.
type RecordClient struct {
	baseURL string
	http    *http.Client
	token   TokenSource
	logger  *slog.Logger
}

// NewRecordClient builds a client for baseURL. httpClient defaults to
// http.DefaultClient and token may be nil for anonymous access.
func NewRecordClient(baseURL string, httpClient *http.Client, token TokenSource, logger *slog.Logger) *RecordClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RecordClient{baseURL: baseURL, http: httpClient, token: token, logger: logger}
}

// GetOne fetches a single record by id.
func (c *RecordClient) GetOne(ctx context.Context, resource string, id any) (map[string]any, error) {
	var record map[string]any
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("%s/%v", resource, id), nil, nil, &record)
	return record, err
}

// GetList fetches a page of records. The second return is the total count
// reported by the server.
func (c *RecordClient) GetList(ctx context.Context, resource string, q ListQuery) ([]map[string]any, int, error) {
	params := url.Values{}
	if q.Filter != nil {
		raw, err := json.Marshal(q.Filter)
		if err != nil {
			return nil, 0, schema.NewError(schema.ErrCodeFetch, "encode filter").WithCause(err)
		}
		params.Set("filter", string(raw))
	}
	if q.Sort != "" {
		params.Set("sort", q.Sort)
		if q.Order != "" {
			params.Set("order", q.Order)
		}
	}
	if q.PerPage > 0 {
		params.Set("page", strconv.Itoa(q.Page))
		params.Set("perPage", strconv.Itoa(q.PerPage))
	}

	var records []map[string]any
	total := -1
	captureTotal := func(resp *http.Response) {
		if v := resp.Header.Get("X-Total-Count"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				total = n
			}
		}
	}
	if err := c.do(ctx, http.MethodGet, resource, params, nil, &records, captureTotal); err != nil {
		return nil, 0, err
	}
	if total < 0 {
		total = len(records)
	}
	return records, total, nil
}

// GetMany fetches the records matching ids. meta.IDField selects the filter
// key, defaulting to "id".
func (c *RecordClient) GetMany(ctx context.Context, resource string, ids []any, meta Meta) ([]map[string]any, error) {
	idField := meta.IDField
	if idField == "" {
		idField = "id"
	}
	records, _, err := c.GetList(ctx, resource, ListQuery{Filter: map[string]any{idField: ids}})
	return records, err
}

// Create posts a new record and returns the stored version.
func (c *RecordClient) Create(ctx context.Context, resource string, record map[string]any) (map[string]any, error) {
	var created map[string]any
	err := c.do(ctx, http.MethodPost, resource, nil, record, &created)
	return created, err
}

// Update replaces a record and returns the stored version.
func (c *RecordClient) Update(ctx context.Context, resource string, id any, record map[string]any) (map[string]any, error) {
	var updated map[string]any
	err := c.do(ctx, http.MethodPut, fmt.Sprintf("%s/%v", resource, id), nil, record, &updated)
	return updated, err
}

// Delete removes a record.
func (c *RecordClient) Delete(ctx context.Context, resource string, id any) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("%s/%v", resource, id), nil, nil, nil)
}

// do runs one request with auth, JSON codec, and status mapping.
func (c *RecordClient) do(ctx context.Context, method, path string, params url.Values, body, out any, inspect ...func(*http.Response)) error {
	endpoint := c.baseURL + "/" + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return schema.NewError(schema.ErrCodeFetch, "encode request body").WithCause(err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return schema.NewError(schema.ErrCodeFetch, "build request").WithCause(err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != nil {
		token, err := c.token.Token(ctx)
		if err != nil {
			return schema.NewError(schema.ErrCodeFetch, "resolve credential").WithCause(err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return schema.NewErrorf(schema.ErrCodeFetch, "%s %s: %s", method, endpoint, err.Error()).WithCause(err)
	}
	defer resp.Body.Close()

	for _, fn := range inspect {
		fn(resp)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return schema.NewErrorf(schema.ErrCodeNotFound, "%s %s: not found", method, endpoint)
	case resp.StatusCode >= 400:
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return schema.NewErrorf(schema.ErrCodeFetch, "%s %s: status %d", method, endpoint, resp.StatusCode).
			WithDetails(map[string]any{"body": string(raw)})
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return schema.NewError(schema.ErrCodeFetch, "decode response").WithCause(err)
	}

	logging.LogWith(ctx, c.logger).Debug("record request",
		slog.String("method", method), slog.String("path", path))
	return nil
}
