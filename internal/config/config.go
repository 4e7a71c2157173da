// Package config loads server configuration from an optional YAML file and
// SFA_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "SFA"

// Config keys.
const (
	KeyDBDriver               = "db.driver"
	KeyDBDSN                  = "db.dsn"
	KeyServerPort             = "server.port"
	KeyJWTSecret              = "auth.jwt_secret"
	KeyJWTExpiresIn           = "auth.jwt_expires_in"
	KeyLogDev                 = "log.dev"
	KeySubmitTimeout          = "submit.timeout"
	KeySerializeByVisit       = "submit.serialize_by_visit"
	KeyCatalogSubqueryTimeout = "catalog.subquery_timeout"
)

// Config is the resolved server configuration.
type Config struct {
	DBDriver               string
	DBDSN                  string
	Port                   int
	JWTSecret              string
	JWTExpiresIn           time.Duration
	DevMode                bool
	SubmitTimeout          time.Duration
	SerializeByVisit       bool
	CatalogSubqueryTimeout time.Duration
}

// New returns a viper instance with defaults and environment binding applied.
// SFA_DB_DSN overrides db.dsn, SFA_AUTH_JWT_SECRET overrides auth.jwt_secret, and so on.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyDBDriver, "sqlite3")
	v.SetDefault(KeyDBDSN, "")
	v.SetDefault(KeyServerPort, 3333)
	v.SetDefault(KeyJWTSecret, "")
	v.SetDefault(KeyJWTExpiresIn, "1h")
	v.SetDefault(KeyLogDev, false)
	v.SetDefault(KeySubmitTimeout, "30s")
	v.SetDefault(KeySerializeByVisit, true)
	v.SetDefault(KeyCatalogSubqueryTimeout, "5s")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads configuration. If path is empty, sfa.yaml is looked up in the
// working directory and ~/.sfa; a missing file is not an error.
func Load(path string) (*viper.Viper, error) {
	v := New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("sfa")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".sfa"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	return v, nil
}

// Resolve converts a viper instance into a Config.
func Resolve(v *viper.Viper) (Config, error) {
	cfg := Config{
		DBDriver:               v.GetString(KeyDBDriver),
		DBDSN:                  v.GetString(KeyDBDSN),
		Port:                   v.GetInt(KeyServerPort),
		JWTSecret:              v.GetString(KeyJWTSecret),
		JWTExpiresIn:           v.GetDuration(KeyJWTExpiresIn),
		DevMode:                v.GetBool(KeyLogDev),
		SubmitTimeout:          v.GetDuration(KeySubmitTimeout),
		SerializeByVisit:       v.GetBool(KeySerializeByVisit),
		CatalogSubqueryTimeout: v.GetDuration(KeyCatalogSubqueryTimeout),
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("invalid %s: %d", KeyServerPort, cfg.Port)
	}
	if cfg.SubmitTimeout < 0 {
		return Config{}, fmt.Errorf("invalid %s: %s", KeySubmitTimeout, cfg.SubmitTimeout)
	}

	return cfg, nil
}
