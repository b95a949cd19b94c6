package config

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"git.home.luguber.info/inful/assetbuilder/internal/logfields"
)

// envFiles are loaded in order, so .env.local wins over .env. Values already present in the process
// environment are never overridden.
var envFiles = []string{".env.local", ".env"}

func loadEnvFiles(dir string) {
	for _, name := range envFiles {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			slog.Warn("Failed to load environment file", logfields.Path(p), logfields.Error(err))
			continue
		}
		slog.Debug("Loaded environment file", logfields.Path(p))
	}
}
