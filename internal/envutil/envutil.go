// Package envutil supplies environment-backed defaults for flags.
package envutil

import (
	"os"
	"strconv"
	"strings"
)

// Environment variable names.
const (
	APIKeyVar      = "GEMINI_API_KEY"
	ModelVar       = "STOCKMETA_MODEL"
	ConcurrencyVar = "STOCKMETA_CONCURRENCY"
	DBVar          = "STOCKMETA_DB"
	AddrVar        = "STOCKMETA_ADDR"
	LogModeVar     = "STOCKMETA_LOG_MODE"
	TablesVar      = "STOCKMETA_TABLES"
)

// apiKeyVars are checked in order.
var apiKeyVars = []string{APIKeyVar, "GOOGLE_API_KEY", "API_KEY"}

// String returns the first non-empty variable among keys, or def.
func String(def string, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return def
}

// Int returns key parsed as an integer, or def when unset or invalid.
func Int(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// APIKey returns the model API key from the environment.
func APIKey() string {
	return String("", apiKeyVars...)
}
