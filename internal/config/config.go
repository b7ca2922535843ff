// Package config loads exporter settings from the environment, with a
// best-effort .env file for development setups.
package config

import (
	"errors"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables read by Load.
const (
	EnvHomeserver  = "MATRIX_HOMESERVER"
	EnvUser        = "MATRIX_USER"
	EnvPassword    = "MATRIX_PASSWORD"
	EnvAccessToken = "MATRIX_ACCESS_TOKEN"
	EnvUserID      = "MATRIX_USER_ID"
	EnvRoom        = "MATRIX_ROOM_ID"
	EnvOutputDir   = "OUTPUT_DIR"
)

// DefaultHomeserver is used when MATRIX_HOMESERVER is unset.
const DefaultHomeserver = "https://matrix.campaignlab.uk"

// Config holds everything the network commands need. Room may be a
// room id (!xxx:server) or an alias (#field-notes:server); aliases are
// resolved at connect time.
type Config struct {
	Homeserver  string
	User        string
	UserID      string
	Password    string
	AccessToken string
	Room        string
	OutputDir   string
}

// Load reads configuration from the environment. A .env file in the
// working directory is loaded first when present; real environment
// variables win over .env entries.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Homeserver:  getenv(EnvHomeserver, DefaultHomeserver),
		User:        getenv(EnvUser, ""),
		UserID:      getenv(EnvUserID, ""),
		Password:    getenv(EnvPassword, ""),
		AccessToken: getenv(EnvAccessToken, ""),
		Room:        getenv(EnvRoom, ""),
		OutputDir:   getenv(EnvOutputDir, "."),
	}
}

// ValidateForNetwork checks that the config can open a homeserver
// session. File-only commands (clean, validate, review) skip this.
func (c Config) ValidateForNetwork() error {
	if c.Room == "" {
		return errors.New("MATRIX_ROOM_ID is required (room id or alias like #field-notes:example.org)")
	}
	if c.AccessToken == "" {
		if c.User == "" {
			return errors.New("MATRIX_USER is required when no MATRIX_ACCESS_TOKEN is set")
		}
		if c.Password == "" {
			return errors.New("MATRIX_PASSWORD or MATRIX_ACCESS_TOKEN is required")
		}
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
