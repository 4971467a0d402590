package config

import (
	"fmt"

	"github.com/dmitrijs2005/gophdiary/internal/common"
	"github.com/dmitrijs2005/gophdiary/internal/cryptox"
	"github.com/dmitrijs2005/gophdiary/internal/logging"
)

// Config holds runtime settings for the diary CLI.
type Config struct {
	DatabasePath  string
	KDF           cryptox.KDF
	KDFIterations int
	LogLevel      string
	LogBackend    logging.Backend
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DatabasePath = "diary.db"
	c.KDF = cryptox.KDFPBKDF2
	c.KDFIterations = cryptox.DefaultIterations
	c.LogLevel = "info"
	c.LogBackend = logging.BackendSlog
}

// LoadConfig constructs a Config from defaults, then the optional config
// file, then flags found in args (os.Args[1:] in production).
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseFile(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first unusable setting.
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("%w: database path is empty", common.ErrInvalidSettings)
	}
	if _, err := cryptox.NewDeriver(c.KDF, c.KDFIterations); err != nil {
		return fmt.Errorf("%w: %w", common.ErrInvalidSettings, err)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %w", common.ErrInvalidSettings, err)
	}
	switch c.LogBackend {
	case logging.BackendSlog, logging.BackendZap:
	default:
		return fmt.Errorf("%w: unknown log backend %q", common.ErrInvalidSettings, c.LogBackend)
	}
	return nil
}
