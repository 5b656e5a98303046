package config

import (
	"os"
	"strconv"
	"strings"
)

// FeatureFlags toggles optional parts of the submission flow.
type FeatureFlags struct {
	IdentityLookup    bool // ask the list backend for the current user when the host sends no name
	ConfirmationEmail bool // send a confirmation email after a successful submission
	TeamAlerts        bool // post new feedback to the team Slack channel
}

// GetFeatureFlags loads feature flags from environment variables
func GetFeatureFlags() FeatureFlags {
	return FeatureFlags{
		IdentityLookup:    getBoolEnv("ENABLE_IDENTITY_LOOKUP", true),
		ConfirmationEmail: getBoolEnv("ENABLE_CONFIRMATION_EMAIL", true),
		TeamAlerts:        getBoolEnv("ENABLE_TEAM_ALERTS", true),
	}
}

// getBoolEnv retrieves a boolean environment variable with a default value
func getBoolEnv(key string, defaultVal bool) bool {
	val, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal
	}

	val = strings.ToLower(strings.TrimSpace(val))

	switch val {
	case "true", "yes", "1", "on":
		return true
	case "false", "no", "0", "off", "":
		return false
	}

	if intVal, err := strconv.Atoi(val); err == nil {
		return intVal != 0
	}

	return defaultVal
}
