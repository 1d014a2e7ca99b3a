package config

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"

	"github.com/joho/godotenv"
)

// envFiles are tried in order; variables already present in the process
// environment are never overwritten.
var envFiles = []string{".env", ".env.local"}

// loadEnvFiles loads .env style files from dir and returns the ones read.
func loadEnvFiles(dir string) []string {
	var loaded []string
	for _, name := range envFiles {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			continue
		}
		loaded = append(loaded, path)
	}
	return loaded
}

var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnv replaces ${VAR} references with the variable's value, empty when
// unset. Bare $VAR and $1 are left as written.
func expandEnv(s string) string {
	return envRef.ReplaceAllStringFunc(s, func(ref string) string {
		return os.Getenv(ref[2 : len(ref)-1])
	})
}
