package main

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Config holds all mailflowd configuration.
// Priority: env vars > settings.json > defaults.
type Config struct {
	DBPath    string `json:"db_path"`
	LogLevel  string `json:"log_level"`
	AIBaseURL string `json:"ai_base_url"`
	AIAPIKey  string `json:"ai_api_key"`
	AIModel   string `json:"ai_model"`
}

func defaultConfig() Config {
	return Config{
		DBPath:   filepath.Join(mailflowDir(), "mailflow.db"),
		LogLevel: "info",
	}
}

func mailflowDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".mailflow"
	}
	return filepath.Join(home, ".mailflow")
}

func settingsPath() string {
	return filepath.Join(mailflowDir(), "settings.json")
}

func loadConfig() Config {
	cfg := defaultConfig()

	// Layer 2: settings.json (ignore if missing).
	if data, err := os.ReadFile(settingsPath()); err == nil {
		_ = json.Unmarshal(data, &cfg)
	}

	// Layer 3: env vars override.
	if v := os.Getenv("MAILFLOW_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("MAILFLOW_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("MAILFLOW_AI_BASE_URL"); v != "" {
		cfg.AIBaseURL = v
	}
	if v := os.Getenv("MAILFLOW_AI_API_KEY"); v != "" {
		cfg.AIAPIKey = v
	}
	if v := os.Getenv("MAILFLOW_AI_MODEL"); v != "" {
		cfg.AIModel = v
	}

	return cfg
}
