package config

import (
	"fmt"

	"github.com/rs/zerolog/log"
)

// Endpoints holds the network-facing settings: the HTTP listener and the Postgres connection.
type Endpoints struct {
	WebPort string

	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
}

// loadEndpointConfig loads endpoint configuration from environment variables.
// DB_USER and DB_NAME are only required when the ledger is persisted.
func loadEndpointConfig(requireDB bool) (Endpoints, error) {
	log.Info().Msg("Loading endpoint configuration from environment variables...")

	ep := Endpoints{
		WebPort:    getEnvOrDefault("WEB_PORT", "8080"),
		DBHost:     getEnvOrDefault("DB_HOST", "localhost"),
		DBPassword: getEnvOrDefault("DB_PASSWORD", ""),
		DBSSLMode:  getEnvOrDefault("DB_SSLMODE", "disable"),
	}

	var err error
	if ep.DBPort, err = getEnvAsInt("DB_PORT", 5432); err != nil {
		return Endpoints{}, err
	}

	if requireDB {
		if ep.DBUser, err = getEnv("DB_USER"); err != nil {
			return Endpoints{}, err
		}
		if ep.DBName, err = getEnv("DB_NAME"); err != nil {
			return Endpoints{}, err
		}
	} else {
		ep.DBUser = getEnvOrDefault("DB_USER", "")
		ep.DBName = getEnvOrDefault("DB_NAME", "")
	}

	log.Debug().
		Str("WebPort", ep.WebPort).
		Str("DBHost", ep.DBHost).
		Int("DBPort", ep.DBPort).
		Str("DBName", ep.DBName).
		Msg("Endpoint configuration loaded successfully.")

	return ep, nil
}

// DBAddress is the host:port pair of the configured database, for logging.
func (e Endpoints) DBAddress() string {
	return fmt.Sprintf("%s:%d", e.DBHost, e.DBPort)
}
