package diagram

import (
	"bytes"
	"context"

	"github.com/goccy/go-graphviz"

	"github.com/fresque-dev/fresque/pkg/schema"
)

// Checker validates and rasterizes DOT source through graphviz. It backs the
// graphviz_dot edit preview, which must never feed malformed DOT to a host.
type Checker struct{}

// NewChecker returns a stateless DOT checker.
func NewChecker() *Checker {
	return &Checker{}
}

// CheckDOT parses src and reports a syntax problem as a render error. Valid
// DOT returns nil.
func (c *Checker) CheckDOT(src string) error {
	graph, err := graphviz.ParseBytes([]byte(src))
	if err != nil {
		return schema.NewErrorf(schema.ErrCodeRender, "invalid DOT: %s", err.Error()).WithCause(err)
	}
	_ = graph.Close()
	return nil
}

// RenderPNG rasterizes DOT source to PNG bytes.
func RenderPNG(ctx context.Context, src string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, schema.NewError(schema.ErrCodeRender, "create graphviz").WithCause(err)
	}
	defer gv.Close()

	graph, err := graphviz.ParseBytes([]byte(src))
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeRender, "invalid DOT: %s", err.Error()).WithCause(err)
	}
	defer graph.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, graphviz.PNG, &buf); err != nil {
		return nil, schema.NewError(schema.ErrCodeRender, "render PNG").WithCause(err)
	}
	return buf.Bytes(), nil
}
