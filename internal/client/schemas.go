package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/fresque-dev/fresque/internal/logging"
	"github.com/fresque-dev/fresque/pkg/schema"
)

// SchemaValidator checks a fetched collection-schema document before it
// enters the cache.
type SchemaValidator interface {
	ValidateCollectionSchema(raw []byte) error
}

type schemaKey struct {
	model string
	mode  schema.Mode
}

// SchemaClient fetches collection schemas and caches them per (model, mode).
// Completions are stored under the key re-derived from the request
// arguments, so a response that arrives after its entry was invalidated for
// a different key can never overwrite the wrong slot.
type SchemaClient struct {
	baseURL   string
	http      *http.Client
	token     TokenSource
	validator SchemaValidator
	logger    *slog.Logger

	mu    sync.RWMutex
	cache map[schemaKey]*schema.CollectionSchema
}

// NewSchemaClient builds a schema fetch client. validator is optional.
func NewSchemaClient(baseURL string, httpClient *http.Client, token TokenSource, validator SchemaValidator, logger *slog.Logger) *SchemaClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SchemaClient{
		baseURL:   baseURL,
		http:      httpClient,
		token:     token,
		validator: validator,
		logger:    logger,
		cache:     make(map[schemaKey]*schema.CollectionSchema),
	}
}

// CollectionSchema returns the schema of a (model, mode) pair, fetching on
// first use.
func (c *SchemaClient) CollectionSchema(ctx context.Context, model string, mode schema.Mode) (*schema.CollectionSchema, error) {
	if mode == "" {
		mode = schema.ModeDefault
	}
	key := schemaKey{model: model, mode: mode}

	c.mu.RLock()
	if cs, ok := c.cache[key]; ok {
		c.mu.RUnlock()
		return cs, nil
	}
	c.mu.RUnlock()

	cs, err := c.fetch(ctx, model, mode)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.cache[key] = cs
	c.mu.Unlock()
	return cs, nil
}

// Invalidate drops one cached entry.
func (c *SchemaClient) Invalidate(model string, mode schema.Mode) {
	c.mu.Lock()
	delete(c.cache, schemaKey{model: model, mode: mode})
	c.mu.Unlock()
}

// InvalidateAll empties the cache. The scheduler calls this on its refresh
// tick so long-running consoles pick up schema deployments.
func (c *SchemaClient) InvalidateAll() {
	c.mu.Lock()
	c.cache = make(map[schemaKey]*schema.CollectionSchema)
	c.mu.Unlock()
}

// CachedModels lists the models currently cached, for diagnostics.
func (c *SchemaClient) CachedModels() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}

func (c *SchemaClient) fetch(ctx context.Context, model string, mode schema.Mode) (*schema.CollectionSchema, error) {
	ctx = logging.WithResource(ctx, model)
	endpoint := fmt.Sprintf("%s/schemas/%s?mode=%s", c.baseURL, model, mode)

	raw, err := c.get(ctx, endpoint, fmt.Sprintf("no schema for model %q", model))
	if err != nil {
		return nil, err
	}

	if c.validator != nil {
		if err := c.validator.ValidateCollectionSchema(raw); err != nil {
			return nil, err
		}
	}

	var cs schema.CollectionSchema
	if err := json.Unmarshal(raw, &cs); err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeFetch, "decode schema for %q", model).WithCause(err)
	}
	if err := cs.Validate(); err != nil {
		return nil, err
	}

	logging.LogWith(ctx, c.logger).Debug("schema fetched",
		slog.String("model", model), slog.String("mode", string(mode)))
	return &cs, nil
}

// DagGraph fetches the task graph of one graph id from the record store
// surface.
func (c *SchemaClient) DagGraph(ctx context.Context, graphID string) (*schema.GraphData, error) {
	ctx = logging.WithGraphID(ctx, graphID)
	endpoint := fmt.Sprintf("%s/graphs/%s", c.baseURL, graphID)

	raw, err := c.get(ctx, endpoint, fmt.Sprintf("no graph %q", graphID))
	if err != nil {
		return nil, err
	}

	var graph schema.GraphData
	if err := json.Unmarshal(raw, &graph); err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeFetch, "decode graph %q", graphID).WithCause(err)
	}
	return &graph, nil
}

func (c *SchemaClient) get(ctx context.Context, endpoint, notFoundMsg string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, schema.NewError(schema.ErrCodeFetch, "build request").WithCause(err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != nil {
		token, err := c.token.Token(ctx)
		if err != nil {
			return nil, schema.NewError(schema.ErrCodeFetch, "resolve credential").WithCause(err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeFetch, "GET %s: %s", endpoint, err.Error()).WithCause(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, schema.NewError(schema.ErrCodeNotFound, notFoundMsg)
	case resp.StatusCode >= 400:
		return nil, schema.NewErrorf(schema.ErrCodeFetch, "GET %s: status %d", endpoint, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, schema.NewError(schema.ErrCodeFetch, "read response").WithCause(err)
	}
	return raw, nil
}
