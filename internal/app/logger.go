package app

import "strings"

import "github.com/trustreach/verifyd/pkg/logger"

// ConfigureLogging initialises the global logger from server settings,
// defaulting to info-level production output.
func ConfigureLogging(cfg ServerConfig) error {
	level := strings.TrimSpace(cfg.LogLevel)
	if level == "" {
		level = "info"
	}

	mode := "production"
	if cfg.IsDevelopment() {
		mode = "development"
	}

	return logger.Init(level, mode)
}
