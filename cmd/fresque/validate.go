package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/fresque-dev/fresque/internal/validation"
	"github.com/fresque-dev/fresque/pkg/schema"
)

func runValidate(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	graphPath := fs.String("graph", "", "task graph JSON file to check")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	docs := fs.Args()
	if len(docs) == 0 && *graphPath == "" {
		fatalf("validate requires schema document files and/or -graph")
	}

	validator, err := validation.NewSchemaValidator()
	if err != nil {
		fatalf("build validator: %v", err)
	}

	failed := false
	for _, path := range docs {
		raw, err := os.ReadFile(path)
		if err != nil {
			fatalf("read %s: %v", path, err)
		}
		if reportResult(path, validator.Validate(raw)) {
			failed = true
		}
	}

	if *graphPath != "" {
		raw, err := os.ReadFile(*graphPath)
		if err != nil {
			fatalf("read %s: %v", *graphPath, err)
		}
		var graph schema.GraphData
		if err := json.Unmarshal(raw, &graph); err != nil {
			fatalf("parse %s: %v", *graphPath, err)
		}
		if reportResult(*graphPath, validation.ValidateGraph(&graph)) {
			failed = true
		}
	}

	if failed {
		os.Exit(1)
	}
}

// reportResult prints one file's issues and reports whether it had errors.
func reportResult(path string, result *schema.ValidationResult) bool {
	for _, issue := range result.Errors {
		fmt.Printf("%s: error at %s: %s\n", path, issue.Path, issue.Message)
	}
	for _, issue := range result.Warnings {
		fmt.Printf("%s: warning at %s: %s\n", path, issue.Path, issue.Message)
	}
	if result.Valid() {
		fmt.Printf("%s: ok\n", path)
		return false
	}
	return true
}
