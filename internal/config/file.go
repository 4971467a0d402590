package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dmitrijs2005/gophdiary/internal/cryptox"
	"github.com/dmitrijs2005/gophdiary/internal/flagx"
	"github.com/dmitrijs2005/gophdiary/internal/logging"
)

// fileConfig is the on-disk shape. Pointer fields tell "absent" apart from
// zero so a partial file only overrides what it names.
type fileConfig struct {
	DatabasePath  *string `json:"database_path" yaml:"database_path"`
	KDF           *string `json:"kdf" yaml:"kdf"`
	KDFIterations *int    `json:"kdf_iterations" yaml:"kdf_iterations"`
	LogLevel      *string `json:"log_level" yaml:"log_level"`
	LogBackend    *string `json:"log_backend" yaml:"log_backend"`
}

func parseFile(cfg *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var fc fileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	default:
		err = json.Unmarshal(data, &fc)
	}
	if err != nil {
		return fmt.Errorf("decode config %s: %w", path, err)
	}

	fc.apply(cfg)
	return nil
}

func (fc *fileConfig) apply(cfg *Config) {
	if fc.DatabasePath != nil {
		cfg.DatabasePath = *fc.DatabasePath
	}
	if fc.KDF != nil {
		cfg.KDF = cryptox.KDF(*fc.KDF)
	}
	if fc.KDFIterations != nil {
		cfg.KDFIterations = *fc.KDFIterations
	}
	if fc.LogLevel != nil {
		cfg.LogLevel = *fc.LogLevel
	}
	if fc.LogBackend != nil {
		cfg.LogBackend = logging.Backend(*fc.LogBackend)
	}
}
