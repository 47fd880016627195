package config

import (
	"os"

	"go.uber.org/fx"
)

// DefaultFile is the configuration file looked up in the working directory.
const DefaultFile = "sqltool.yaml"

var Module = fx.Module("config", fx.Provide(
	// Attempts to load the configuration from sqltool.yaml (or the file
	// named by SQLTOOL_CONFIG) if it exists. Returns nil if the file doesn't
	// exist, allowing commands that don't require config (like tools, help,
	// version) to function properly.
	func() (*Config, error) {
		path := os.Getenv("SQLTOOL_CONFIG")
		if path == "" {
			path = DefaultFile
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, nil
		}

		return LoadConfigFile(path)
	},
))
