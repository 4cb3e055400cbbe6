package main

import (
	"flag"
	"os"
)

// CLIConfig holds the command-line configuration
type CLIConfig struct {
	ConfigPath    string
	WorkspacePath string
	AppendPath    string
	LogLevel      string
	LogFormat     string
	ShowVersion   bool
	Validate      bool
}

func parseFlags() *CLIConfig {
	cfg := &CLIConfig{}

	flag.StringVar(&cfg.ConfigPath, "config",
		getEnv("INVIWO_CONFIG", ""),
		"Path to configuration file (env: INVIWO_CONFIG)")

	flag.StringVar(&cfg.WorkspacePath, "workspace",
		getEnv("INVIWO_WORKSPACE", ""),
		"Workspace file to load on start and save on shutdown (env: INVIWO_WORKSPACE)")

	flag.StringVar(&cfg.AppendPath, "append",
		getEnv("INVIWO_APPEND", ""),
		"Additional workspace file pasted into the network after load (env: INVIWO_APPEND)")

	flag.StringVar(&cfg.LogLevel, "log-level",
		getEnv("INVIWO_LOG_LEVEL", "info"),
		"Log level: debug, info, warn, error (env: INVIWO_LOG_LEVEL)")

	flag.StringVar(&cfg.LogFormat, "log-format",
		getEnv("INVIWO_LOG_FORMAT", "text"),
		"Log format: json, text (env: INVIWO_LOG_FORMAT)")

	flag.BoolVar(&cfg.ShowVersion, "version", false, "Show version information")
	flag.BoolVar(&cfg.Validate, "validate", false, "Validate configuration and exit")

	flag.Parse()
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
