// Package config loads runtime configuration for the diary CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional config file selected via -c or -config. Files ending in
//     .yaml or .yml are decoded as YAML, anything else as JSON.
//  3. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-d string   path to the SQLite database file
//	-k int      PBKDF2 iteration count
//	-l string   log level (debug, info, warn, error)
//
// # File schema
//
//	{
//	  "database_path": "diary.db",
//	  "kdf": "pbkdf2",
//	  "kdf_iterations": 100000,
//	  "log_level": "info",
//	  "log_backend": "slog"
//	}
//
// The same keys are used in YAML.
//
// This package does not read environment variables.
package config
