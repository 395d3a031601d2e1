// Package config validates environment configuration at startup.
package config

import (
	"fmt"
	"os"
	"strings"
)

// ValidateEnv checks that every named environment variable is set and
// non-empty. Reporting all missing variables at once beats failing on
// the first one during deployment.
func ValidateEnv(required []string) error {
	var missing []string
	for _, name := range required {
		if os.Getenv(name) == "" {
			missing = append(missing, name)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

// GetEnvOrDefault returns the variable's value, or fallback when unset
func GetEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
