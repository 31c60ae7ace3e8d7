// Package env provides typed accessors for environment variables with defaults.
package env

import (
	"os"
	"strconv"
)

// String returns the value of the environment variable or the default when unset.
func String(name string, defaultValue string) string {
	if v, ok := os.LookupEnv(name); ok {
		return v
	}
	return defaultValue
}

// Bool parses the environment variable as a boolean. Unset or unparsable
// values fall back to the default.
func Bool(name string, defaultValue bool) bool {
	v, ok := os.LookupEnv(name)
	if !ok {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// Int parses the environment variable as a base-10 integer. Unset or
// unparsable values fall back to the default.
func Int(name string, defaultValue int) int {
	v, ok := os.LookupEnv(name)
	if !ok {
		return defaultValue
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// Float64 parses the environment variable as a float. Unset or unparsable
// values fall back to the default.
func Float64(name string, defaultValue float64) float64 {
	v, ok := os.LookupEnv(name)
	if !ok {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}
