package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// Environment variables read by the CLI.
const (
	EnvConfig           = "SPLATBENCH_CONFIG"
	EnvLogLevel         = "SPLATBENCH_LOG_LEVEL"
	EnvLogFormat        = "SPLATBENCH_LOG_FORMAT"
	EnvArchiveAccessKey = "SPLATBENCH_ARCHIVE_ACCESS_KEY"
	EnvArchiveSecretKey = "SPLATBENCH_ARCHIVE_SECRET_KEY"
)

// Env resolves variables from the process environment, then from a .env
// file. The process environment is never modified, so the trainer only
// inherits what was actually exported.
type Env struct {
	file map[string]string
}

// LoadEnv reads path if it exists. A missing file is not an error.
func LoadEnv(path string) (Env, error) {
	if path == "" {
		return Env{}, nil
	}
	vars, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Env{}, nil
		}
		return Env{}, fmt.Errorf("failed to read env file %s: %w", path, err)
	}
	return Env{file: vars}, nil
}

// Lookup returns the value of key and whether it was set anywhere.
func (e Env) Lookup(key string) (string, bool) {
	if v, ok := os.LookupEnv(key); ok {
		return v, true
	}
	v, ok := e.file[key]
	return v, ok
}
