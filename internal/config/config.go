// Package config reads client configuration from the environment.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultAPIURL  = "http://localhost:8080"
	defaultIDPURL  = "http://localhost:8080/idp"
	defaultTimeout = 20 * time.Second
)

// Config holds everything the client binaries need to run.
type Config struct {
	// APIURL is the backend base URL, without the /api suffix.
	APIURL string
	// IDPURL is the identity-provider endpoint.
	IDPURL string
	// IDPClientID is the provider app client id.
	IDPClientID string
	// HTTPTimeout is the per-request transport timeout.
	HTTPTimeout time.Duration
	// GuardWait selects block-until-resolved route guarding (see guard.Config).
	GuardWait bool
}

// Load reads the environment, after merging an optional .env file.
// Explicit environment variables win over .env values.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		APIURL:      envOr("FLORA_API_URL", defaultAPIURL),
		IDPURL:      envOr("FLORA_IDP_URL", defaultIDPURL),
		IDPClientID: envOr("FLORA_IDP_CLIENT_ID", "local-dev-client"),
		HTTPTimeout: envDuration("FLORA_HTTP_TIMEOUT", defaultTimeout),
		GuardWait:   envBool("FLORA_GUARD_WAIT", false),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
