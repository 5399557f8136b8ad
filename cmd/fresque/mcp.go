package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/fresque-dev/fresque/internal/channel"
	"github.com/fresque-dev/fresque/internal/client"
	"github.com/fresque-dev/fresque/internal/conditions"
	"github.com/fresque-dev/fresque/internal/render"
	"github.com/fresque-dev/fresque/internal/scheduler"
	"github.com/fresque-dev/fresque/internal/store"
	"github.com/fresque-dev/fresque/internal/validation"
	"github.com/fresque-dev/fresque/pkg/mcp"
)

func runMCP(args []string) {
	fs := flag.NewFlagSet("mcp", flag.ExitOnError)
	apiURL := fs.String("api-url", "", "platform API base URL (default from config)")
	dbPath := fs.String("db-path", "", "database path (default from config)")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cfg := loadConfig()
	if *apiURL != "" {
		cfg.APIBaseURL = *apiURL
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	logger := newLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.NewLibSQLStore(cfg.DBPath)
	if err != nil {
		fatalf("open store: %v", err)
	}
	defer st.Close()
	if err := st.Migrate(ctx); err != nil {
		fatalf("migrate store: %v", err)
	}

	validator, err := validation.NewSchemaValidator()
	if err != nil {
		fatalf("build validator: %v", err)
	}
	schemas := client.NewSchemaClient(cfg.APIBaseURL, nil, client.StaticToken(cfg.APIToken), validator, logger)

	ev, err := conditions.NewEvaluator(logger)
	if err != nil {
		fatalf("build evaluator: %v", err)
	}

	sched := scheduler.NewScheduler(logger)
	if err := scheduler.RegisterMaintenance(sched, schemas, st, scheduler.DefaultMaintenanceConfig(), logger); err != nil {
		fatalf("register maintenance jobs: %v", err)
	}
	if err := sched.Start(ctx); err != nil {
		fatalf("start scheduler: %v", err)
	}
	defer sched.Stop()

	srv := mcp.NewConsoleServer(mcp.ConsoleServerDeps{
		Schemas:   schemas,
		Renderer:  render.NewRenderer(ev, schemas, logger),
		Snapshots: st,
		Validator: validator,
		Logger:    logger,
	})

	// Best-effort live feed: agents that register an agent_id get status
	// events pushed; the tools work without it.
	if cfg.ChannelURL != "" {
		hub := channel.NewHub()
		cl := channel.NewClient(cfg.ChannelURL, hub, nil, logger)
		if err := cl.Dial(ctx); err != nil {
			logger.Warn("event channel unavailable", "url", cfg.ChannelURL, "error", err)
		} else {
			defer cl.Close()
			if err := srv.StartChannelFeed(ctx, hub); err != nil {
				logger.Warn("channel feed failed to start", "error", err)
			}
		}
	}

	logger.Info("serving MCP on stdio", "api_url", cfg.APIBaseURL, "db_path", cfg.DBPath)
	if err := srv.Serve(ctx); err != nil && ctx.Err() == nil {
		fatalf("mcp server: %v", err)
	}
}
