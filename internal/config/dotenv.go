package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads .env.<APP_ENV>, .env.local and .env from dir, in that priority.
// Already-set variables are never overwritten, so the process environment wins.
// Returns the files that were found.
func LoadDotEnv(dir string) []string {
	names := []string{".env.local", ".env"}
	if env := os.Getenv("APP_ENV"); env != "" {
		names = append([]string{".env." + env}, names...)
	}

	var found []string
	for _, name := range names {
		p := filepath.Join(dir, name)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			found = append(found, p)
		}
	}
	if len(found) == 0 {
		return nil
	}
	// godotenv.Load keeps the first value seen for a key
	if err := godotenv.Load(found...); err != nil {
		return nil
	}
	return found
}
