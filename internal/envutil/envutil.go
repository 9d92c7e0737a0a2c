// Package envutil reads optional process settings that sit outside the
// viper config, such as CLI flag defaults and test gates.
package envutil

import (
	"strings"
	"time"
)

// Getenv has the shape of os.Getenv.
type Getenv func(string) string

func (g Getenv) lookup(key string) string {
	if g == nil {
		return ""
	}
	return strings.TrimSpace(g(key))
}

func String(getenv Getenv, key string, def string) string {
	if v := getenv.lookup(key); v != "" {
		return v
	}
	return def
}

// Bool returns def for empty or unrecognised values.
func Bool(getenv Getenv, key string, def bool) bool {
	switch strings.ToLower(getenv.lookup(key)) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

// Duration accepts time.ParseDuration syntax or a bare number of seconds.
func Duration(getenv Getenv, key string, def time.Duration) time.Duration {
	v := getenv.lookup(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if d, err := time.ParseDuration(v + "s"); err == nil && d > 0 {
		return d
	}
	return def
}
