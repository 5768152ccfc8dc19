// Package util holds small configuration helpers shared by main and the
// service modules.
package util

import (
	"log/slog"
	"os"
	"strings"
)

// ParseBoolEnv reads a boolean flag from the environment. Recognized
// spellings are true/1/yes/on and false/0/no/off, case-insensitive;
// anything else (including an unset variable) yields defaultValue.
func ParseBoolEnv(key string, defaultValue bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}
	switch strings.ToLower(strings.TrimSpace(val)) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		slog.Warn("ParseBoolEnv: unrecognized boolean value", "key", key, "value", val, "default", defaultValue)
		return defaultValue
	}
}
