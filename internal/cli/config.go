package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/tabi/internal/logging"
	"github.com/aretw0/tabi/pkg/config"
)

// DefaultConfigFile is picked up from the working directory when --config is not given.
const DefaultConfigFile = "tabi.yaml"

// LoadConfig resolves the config file and loads it.
// An empty path falls back to DefaultConfigFile when that file exists.
func LoadConfig(path string) (config.Config, error) {
	if path == "" {
		if _, err := os.Stat(DefaultConfigFile); err == nil {
			path = DefaultConfigFile
		} else if !errors.Is(err, os.ErrNotExist) {
			return config.Config{}, fmt.Errorf("failed to stat %s: %w", DefaultConfigFile, err)
		}
	}
	return config.Load(path)
}

// NewLogger builds the process logger. A non-empty levelOverride wins over cfg.Log.Level.
func NewLogger(w io.Writer, cfg config.Config, levelOverride string) (*slog.Logger, error) {
	name := cfg.Log.Level
	if levelOverride != "" {
		name = levelOverride
	}
	level, err := logging.ParseLevel(name)
	if err != nil {
		return nil, err
	}
	return logging.NewWithFormat(w, level, cfg.Log.Format), nil
}

// WarnMissing logs the credentials that are not configured.
func WarnMissing(logger *slog.Logger, cfg config.Config) {
	for _, name := range cfg.Missing() {
		logger.Warn("credential not set", "env", name)
	}
}
