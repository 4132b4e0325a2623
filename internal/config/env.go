package config

import (
	"os"

	"github.com/joho/godotenv"
)

// envFiles are tried in order; values already present in the environment win.
var envFiles = []string{".env", ".env.local"}

// loadEnvFiles loads every existing env file and returns the ones it read.
func loadEnvFiles() []string {
	var loaded []string
	for _, path := range envFiles {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			continue
		}
		loaded = append(loaded, path)
	}
	return loaded
}
