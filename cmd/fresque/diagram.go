package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/fresque-dev/fresque/internal/diagram"
	"github.com/fresque-dev/fresque/internal/validation"
	"github.com/fresque-dev/fresque/pkg/schema"
)

func runDiagram(args []string) {
	fs := flag.NewFlagSet("diagram", flag.ExitOnError)
	graphPath := fs.String("graph", "", "task graph JSON file (required)")
	statusPath := fs.String("status", "", "task status map JSON file (optional overlay)")
	format := fs.String("format", "dot", "output format: dot, mermaid, or png")
	theme := fs.String("theme", "", "color theme: dark or light (default from config)")
	outPath := fs.String("out", "", "output file (default stdout, required for png)")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if *graphPath == "" {
		fatalf("diagram requires -graph")
	}

	raw, err := os.ReadFile(*graphPath)
	if err != nil {
		fatalf("read graph: %v", err)
	}
	var graph schema.GraphData
	if err := json.Unmarshal(raw, &graph); err != nil {
		fatalf("parse graph: %v", err)
	}
	if result := validation.ValidateGraph(&graph); !result.Valid() {
		fatalf("invalid graph: %v", result.ToError())
	}

	var statuses schema.StatusMap
	if *statusPath != "" {
		statusRaw, err := os.ReadFile(*statusPath)
		if err != nil {
			fatalf("read status: %v", err)
		}
		if err := json.Unmarshal(statusRaw, &statuses); err != nil {
			fatalf("parse status: %v", err)
		}
	}

	cfg := loadConfig()
	if *theme == "" {
		*theme = cfg.Theme
	}

	switch *format {
	case "mermaid":
		emit(*outPath, []byte(diagram.BuildMermaid(graph, statuses)))
	case "dot":
		dot := diagram.BuildDOT(graph, statuses, diagram.Options{Theme: diagram.Theme(*theme)})
		emit(*outPath, []byte(dot))
	case "png":
		if *outPath == "" {
			fatalf("png output requires -out")
		}
		dot := diagram.BuildDOT(graph, statuses, diagram.Options{Theme: diagram.Theme(*theme)})
		png, err := diagram.RenderPNG(context.Background(), dot)
		if err != nil {
			fatalf("render png: %v", err)
		}
		emit(*outPath, png)
	default:
		fatalf("unknown format %q (want dot, mermaid, or png)", *format)
	}
}

func emit(path string, data []byte) {
	if path == "" {
		fmt.Print(string(data))
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		fatalf("write %s: %v", path, err)
	}
	fmt.Printf("Wrote %s\n", path)
}
