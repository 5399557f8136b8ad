package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fresque-dev/fresque/internal/conditions"
	"github.com/fresque-dev/fresque/internal/render"
	"github.com/fresque-dev/fresque/pkg/schema"
)

// fileSchemas serves collection schemas from a local directory, one
// <Model>.json per model. Used by offline rendering to resolve nested
// model and reference fields.
type fileSchemas struct {
	dir string
}

func (f *fileSchemas) CollectionSchema(_ context.Context, model string, _ schema.Mode) (*schema.CollectionSchema, error) {
	if f.dir == "" {
		return nil, schema.NewErrorf(schema.ErrCodeNotFound, "no schema directory configured, cannot resolve model %q", model)
	}
	raw, err := os.ReadFile(filepath.Join(f.dir, model+".json"))
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeNotFound, "schema for model %q: %s", model, err.Error())
	}
	var cs schema.CollectionSchema
	if err := json.Unmarshal(raw, &cs); err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeConfiguration, "schema for model %q: %s", model, err.Error()).WithCause(err)
	}
	if err := cs.Validate(); err != nil {
		return nil, err
	}
	return &cs, nil
}

func runRender(args []string) {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	schemaPath := fs.String("schema", "", "collection schema JSON file (required)")
	recordPath := fs.String("record", "", "record JSON file (required)")
	schemaDir := fs.String("schema-dir", "", "directory of <Model>.json schemas for nested models")
	format := fs.String("format", "text", "output format: text or json")
	mode := fs.String("mode", "show", "schema mode: show or list")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if *schemaPath == "" || *recordPath == "" {
		fatalf("render requires -schema and -record")
	}

	raw, err := os.ReadFile(*schemaPath)
	if err != nil {
		fatalf("read schema: %v", err)
	}
	var cs schema.CollectionSchema
	if err := json.Unmarshal(raw, &cs); err != nil {
		fatalf("parse schema: %v", err)
	}
	if err := cs.Validate(); err != nil {
		fatalf("invalid schema: %v", err)
	}

	recordRaw, err := os.ReadFile(*recordPath)
	if err != nil {
		fatalf("read record: %v", err)
	}
	var record map[string]any
	if err := json.Unmarshal(recordRaw, &record); err != nil {
		fatalf("parse record: %v", err)
	}

	cfg := loadConfig()
	logger := newLogger(cfg.LogLevel)
	ev, err := conditions.NewEvaluator(logger)
	if err != nil {
		fatalf("build evaluator: %v", err)
	}
	r := render.NewRenderer(ev, &fileSchemas{dir: *schemaDir}, logger)

	nodes, err := r.RenderDisplay(context.Background(), cs.Fields, record, schema.Mode(*mode))
	if err != nil {
		fatalf("render: %v", err)
	}

	switch *format {
	case "json":
		out, err := json.MarshalIndent(render.EncodeDisplay(nodes), "", "  ")
		if err != nil {
			fatalf("encode output: %v", err)
		}
		fmt.Println(string(out))
	case "text":
		fmt.Print(render.FormatDisplay(nodes))
	default:
		fatalf("unknown format %q (want text or json)", *format)
	}
}
