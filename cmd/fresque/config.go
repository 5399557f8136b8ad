package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

// Config holds all fresque configuration.
// Priority: env vars > settings.json > defaults.
type Config struct {
	APIBaseURL string `json:"api_base_url"`
	APIToken   string `json:"api_token"`
	ChannelURL string `json:"channel_url"`
	DBPath     string `json:"db_path"`
	LogLevel   string `json:"log_level"`
	Theme      string `json:"theme"`
}

func defaultConfig() Config {
	return Config{
		APIBaseURL: "http://localhost:4600",
		DBPath:     filepath.Join(fresqueDir(), "fresque.db"),
		LogLevel:   "info",
		Theme:      "dark",
	}
}

func fresqueDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".fresque"
	}
	return filepath.Join(home, ".fresque")
}

func settingsPath() string {
	return filepath.Join(fresqueDir(), "settings.json")
}

func loadConfig() Config {
	cfg := defaultConfig()

	// Layer 2: settings.json (ignore if missing).
	if data, err := os.ReadFile(settingsPath()); err == nil {
		_ = json.Unmarshal(data, &cfg)
	}

	// Layer 3: env vars override.
	if v := os.Getenv("FRESQUE_API_URL"); v != "" {
		cfg.APIBaseURL = v
	}
	if v := os.Getenv("FRESQUE_API_TOKEN"); v != "" {
		cfg.APIToken = v
	}
	if v := os.Getenv("FRESQUE_CHANNEL_URL"); v != "" {
		cfg.ChannelURL = v
	}
	if v := os.Getenv("FRESQUE_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("FRESQUE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("FRESQUE_THEME"); v != "" {
		cfg.Theme = v
	}

	// Derive channel_url from api_base_url if empty.
	if cfg.ChannelURL == "" {
		cfg.ChannelURL = deriveChannelURL(cfg.APIBaseURL)
	}

	return cfg
}

// deriveChannelURL turns an HTTP API base into the websocket channel
// endpoint served next to it.
func deriveChannelURL(apiBase string) string {
	ws := apiBase
	switch {
	case strings.HasPrefix(ws, "https://"):
		ws = "wss://" + strings.TrimPrefix(ws, "https://")
	case strings.HasPrefix(ws, "http://"):
		ws = "ws://" + strings.TrimPrefix(ws, "http://")
	}
	return strings.TrimRight(ws, "/") + "/channel"
}
