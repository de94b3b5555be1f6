package session

import (
	"log/slog"
	"strings"

	"github.com/aspectstore/storekit/pkg/config"
)

// Mode selects which authentication backend serves the session. It is a
// closed set, fixed at construction and never changed at runtime.
type Mode string

const (
	// ModeNone disables authentication entirely; the session is permanently
	// unauthenticated.
	ModeNone Mode = "none"
	// ModeLocal keeps a single demo account in local storage.
	ModeLocal Mode = "local"
	// ModeAPI runs a bearer-token session against a remote backend.
	ModeAPI Mode = "api"
	// ModeAuth0 delegates login and signup to a hosted provider via
	// browser redirects.
	ModeAuth0 Mode = "auth0"
)

// DefaultMode is what an unset or unrecognized AUTH_MODE falls back to.
const DefaultMode = ModeLocal

// Config holds the session manager's startup configuration, read once.
type Config struct {
	Mode          string `env:"AUTH_MODE" envDefault:"local"`  // One of none, local, api, auth0.
	APIBaseURL    string `env:"API_BASE_URL"`                  // Required in api mode.
	Auth0Domain   string `env:"AUTH0_DOMAIN"`                  // Required in auth0 mode.
	Auth0ClientID string `env:"AUTH0_CLIENT_ID"`               // Required in auth0 mode.
	Auth0Callback string `env:"AUTH0_CALLBACK_URL"`            // Where the provider redirects back to.
}

// LoadConfig reads the session configuration from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// parseMode resolves the configured mode string. Unknown values never fail
// startup; they fall back to DefaultMode with a logged warning.
func parseMode(raw string, logger *slog.Logger) Mode {
	switch Mode(strings.ToLower(strings.TrimSpace(raw))) {
	case ModeNone:
		return ModeNone
	case ModeLocal:
		return ModeLocal
	case ModeAPI:
		return ModeAPI
	case ModeAuth0:
		return ModeAuth0
	default:
		logger.Warn("unrecognized auth mode, falling back",
			slog.String("mode", raw), slog.String("fallback", string(DefaultMode)))
		return DefaultMode
	}
}
