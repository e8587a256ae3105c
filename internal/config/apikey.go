package config

import (
	"fmt"
	"os"
)

// ResolveCredential returns the value of the analyzer's credential variable.
// It only reports on the variable; the analyzer is the sole consumer.
func ResolveCredential(envVar string) (string, error) {
	if envVar == "" {
		return "", fmt.Errorf("no environment variable name specified")
	}
	val := os.Getenv(envVar)
	if val == "" {
		return "", fmt.Errorf("environment variable %s is not set", envVar)
	}
	return val, nil
}

// MaskSecret keeps the first four characters of a secret for display.
func MaskSecret(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:4] + "****"
}
