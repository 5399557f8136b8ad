package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/fresque-dev/fresque/internal/logging"
)

// version is set at build time via ldflags:
//
//	go build -ldflags "-X main.version=v1.0.0" ./cmd/fresque/
var version = "dev"

const usage = `fresque - schema-driven console core for DAG-execution platforms

Usage:
  fresque <command> [flags]

Commands:
  mcp        serve the console tools to agents over MCP stdio
  watch      follow a job's live status over the event channel
  render     render a record against a collection schema
  diagram    draw a task graph as DOT, Mermaid, or PNG
  validate   check collection schema documents and task graphs
  install    write an initial settings.json
  version    print the version
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	switch os.Args[1] {
	case "mcp":
		runMCP(os.Args[2:])
	case "watch":
		runWatch(os.Args[2:])
	case "render":
		runRender(os.Args[2:])
	case "diagram":
		runDiagram(os.Args[2:])
	case "validate":
		runValidate(os.Args[2:])
	case "install":
		runInstall(os.Args[2:])
	case "version", "--version", "-v":
		fmt.Println(version)
	case "help", "--help", "-h":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}
}

// newLogger builds the process logger. Output goes to stderr; stdout is
// reserved for command output and the MCP stdio transport.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	inner := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	return slog.New(logging.NewCorrelationHandler(inner))
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
