package config

import (
	"os"
	"path/filepath"
)

// GetRuntimePath is usable before any config is parsed, e.g. to locate .env.
func GetRuntimePath() string {
	return resolveRuntimePath(os.Getenv("TUSK_RUNTIME_PATH"))
}

// Relative paths are resolved against the home directory.
func resolveRuntimePath(path string) string {
	if path == "" {
		path = ".tuskmem"
	}
	if !filepath.IsAbs(path) {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path)
	}
	return path
}
