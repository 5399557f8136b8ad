package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
)

func runInstall(args []string) {
	fs := flag.NewFlagSet("install", flag.ExitOnError)
	apiURL := fs.String("api-url", "http://localhost:4600", "platform API base URL")
	apiToken := fs.String("api-token", "", "bearer token for the platform API")
	channelURL := fs.String("channel-url", "", "event channel endpoint (derived from api-url if empty)")
	dbPath := fs.String("db-path", "", "database path (default: ~/.fresque/fresque.db)")
	logLevel := fs.String("log-level", "info", "log level: debug, info, warn, error")
	theme := fs.String("theme", "dark", "diagram theme: dark or light")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	dir := fresqueDir()
	if err := os.MkdirAll(dir, 0o700); err != nil {
		fatalf("cannot create %s: %v", dir, err)
	}

	cfg := Config{
		APIBaseURL: *apiURL,
		APIToken:   *apiToken,
		ChannelURL: *channelURL,
		LogLevel:   *logLevel,
		Theme:      *theme,
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	} else {
		cfg.DBPath = defaultConfig().DBPath
	}
	if cfg.ChannelURL == "" {
		cfg.ChannelURL = deriveChannelURL(cfg.APIBaseURL)
	}

	data, _ := json.MarshalIndent(cfg, "", "  ")
	path := settingsPath()
	if err := os.WriteFile(path, data, 0o600); err != nil {
		fatalf("cannot write %s: %v", path, err)
	}
	fmt.Printf("Config written to %s\n", path)
}
