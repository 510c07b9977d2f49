package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Amund211/censusoverlay/internal/constants"
	"github.com/caarlos0/env/v11"
)

var ErrMissingRequiredValue = errors.New("missing required value")
var ErrInvalidValue = errors.New("invalid value")

type environment string

const (
	production  environment = "production"
	staging     environment = "staging"
	development environment = "development"
)

const minMultiKillWindow = 100 * time.Millisecond

type rawConfig struct {
	Environment         string        `env:"OVERLAY_ENVIRONMENT"`
	CensusServiceID     string        `env:"CENSUS_SERVICE_ID"`
	CharacterID         string        `env:"OVERLAY_CHARACTER_ID"`
	MultiKillWindow     time.Duration `env:"OVERLAY_MULTI_KILL_WINDOW"     envDefault:"4s"`
	DuplicateKillWindow time.Duration `env:"OVERLAY_DUPLICATE_KILL_WINDOW" envDefault:"500ms"`
	WeaponLookupEnabled bool          `env:"OVERLAY_WEAPON_LOOKUP_ENABLED" envDefault:"true"`
	KDModeRevive        bool          `env:"OVERLAY_KD_MODE_REVIVE"        envDefault:"false"`
	DataDir             string        `env:"OVERLAY_DATA_DIR"`
	AssetsDir           string        `env:"OVERLAY_ASSETS_DIR"`
	ConfigPath          string        `env:"OVERLAY_CONFIG_PATH"`
	DatabaseURL         string        `env:"OVERLAY_DATABASE_URL"`
	SentryDSN           string        `env:"SENTRY_DSN"`
	Port                string        `env:"PORT"                          envDefault:"8410"`
	AllowedOrigins      []string      `env:"OVERLAY_ALLOWED_ORIGINS"       envSeparator:","`
	LookupTimeout       time.Duration `env:"OVERLAY_LOOKUP_TIMEOUT"        envDefault:"900ms"`
	BatchLookupTimeout  time.Duration `env:"OVERLAY_BATCH_LOOKUP_TIMEOUT"  envDefault:"5s"`
	ReconnectDelay      time.Duration `env:"OVERLAY_RECONNECT_DELAY"       envDefault:"5s"`
	LookupWorkers       int           `env:"OVERLAY_LOOKUP_WORKERS"        envDefault:"4"`
	OTelEnabled         bool          `env:"OTEL_ENABLED"                  envDefault:"false"`
}

type Config struct {
	censusServiceID     string
	characterID         string
	multiKillWindow     time.Duration
	duplicateKillWindow time.Duration
	weaponLookupEnabled bool
	kdModeRevive        bool
	dataDir             string
	assetsDir           string
	configPath          string
	databaseURL         string
	sentryDSN           string
	port                string
	allowedOrigins      []string
	lookupTimeout       time.Duration
	batchLookupTimeout  time.Duration
	reconnectDelay      time.Duration
	lookupWorkers       int
	otelEnabled         bool
	env                 environment
}

func (c *Config) CensusServiceID() string {
	return c.censusServiceID
}

// CharacterID is the seed character to track. May be empty.
func (c *Config) CharacterID() string {
	return c.characterID
}

func (c *Config) MultiKillWindow() time.Duration {
	return c.multiKillWindow
}

func (c *Config) DuplicateKillWindow() time.Duration {
	return c.duplicateKillWindow
}

func (c *Config) WeaponLookupEnabled() bool {
	return c.weaponLookupEnabled
}

func (c *Config) KDModeRevive() bool {
	return c.kdModeRevive
}

func (c *Config) DataDir() string {
	return c.dataDir
}

func (c *Config) AssetsDir() string {
	return c.assetsDir
}

func (c *Config) ConfigPath() string {
	return c.configPath
}

// DatabaseURL is a postgres connection string. Empty means a local sqlite file in the data dir
func (c *Config) DatabaseURL() string {
	return c.databaseURL
}

func (c *Config) SentryDSN() string {
	return c.sentryDSN
}

func (c *Config) Port() string {
	return c.port
}

func (c *Config) AllowedOrigins() []string {
	return c.allowedOrigins
}

func (c *Config) LookupTimeout() time.Duration {
	return c.lookupTimeout
}

func (c *Config) BatchLookupTimeout() time.Duration {
	return c.batchLookupTimeout
}

func (c *Config) ReconnectDelay() time.Duration {
	return c.reconnectDelay
}

func (c *Config) LookupWorkers() int {
	return c.lookupWorkers
}

func (c *Config) OTelEnabled() bool {
	return c.otelEnabled
}

func (c *Config) Environment() string {
	return string(c.env)
}

func (c *Config) IsProduction() bool {
	return c.env == production
}

func (c *Config) IsStaging() bool {
	return c.env == staging
}

func (c *Config) IsDevelopment() bool {
	return c.env == development
}

// Return a string representation suitable for logging etc
func (c *Config) NonSensitiveString() string {
	return fmt.Sprintf(
		"Config{env: %s, characterID: %s, dataDir: %s, port: %s, weaponLookup: %t, kdModeRevive: %t, ...}",
		string(c.env), c.characterID, c.dataDir, c.port, c.weaponLookupEnabled, c.kdModeRevive,
	)
}

func defaultDataDir() string {
	base, err := os.UserConfigDir()
	if err != nil || base == "" {
		base = "."
	}
	return filepath.Join(base, constants.DATA_DIR_NAME)
}

func ConfigFromEnv() (Config, error) {
	missingKey := func(key string) (Config, error) {
		return Config{}, fmt.Errorf("%w: %s", ErrMissingRequiredValue, key)
	}
	invalidValue := func(key string, value any) (Config, error) {
		return Config{}, fmt.Errorf("%w: %s (%v)", ErrInvalidValue, key, value)
	}

	var raw rawConfig
	if err := env.Parse(&raw); err != nil {
		return Config{}, fmt.Errorf("%w: parse env: %w", ErrInvalidValue, err)
	}

	var environ environment
	if _, ok := os.LookupEnv("OVERLAY_ENVIRONMENT"); !ok {
		return missingKey("OVERLAY_ENVIRONMENT")
	}
	switch raw.Environment {
	case "production":
		environ = production
	case "staging":
		environ = staging
	case "development":
		environ = development
	default:
		return invalidValue("OVERLAY_ENVIRONMENT", raw.Environment)
	}

	if environ == production || environ == staging {
		if raw.CensusServiceID == "" {
			return missingKey("CENSUS_SERVICE_ID")
		}
	}

	if raw.MultiKillWindow < minMultiKillWindow {
		raw.MultiKillWindow = minMultiKillWindow
	}
	if raw.DuplicateKillWindow < 0 {
		return invalidValue("OVERLAY_DUPLICATE_KILL_WINDOW", raw.DuplicateKillWindow)
	}
	if raw.LookupTimeout <= 0 {
		return invalidValue("OVERLAY_LOOKUP_TIMEOUT", raw.LookupTimeout)
	}
	if raw.BatchLookupTimeout <= 0 {
		return invalidValue("OVERLAY_BATCH_LOOKUP_TIMEOUT", raw.BatchLookupTimeout)
	}
	if raw.ReconnectDelay <= 0 {
		return invalidValue("OVERLAY_RECONNECT_DELAY", raw.ReconnectDelay)
	}
	if raw.LookupWorkers < 1 {
		return invalidValue("OVERLAY_LOOKUP_WORKERS", raw.LookupWorkers)
	}

	dataDir := raw.DataDir
	if dataDir == "" {
		dataDir = defaultDataDir()
	}

	return Config{
		censusServiceID:     raw.CensusServiceID,
		characterID:         raw.CharacterID,
		multiKillWindow:     raw.MultiKillWindow,
		duplicateKillWindow: raw.DuplicateKillWindow,
		weaponLookupEnabled: raw.WeaponLookupEnabled,
		kdModeRevive:        raw.KDModeRevive,
		dataDir:             dataDir,
		assetsDir:           raw.AssetsDir,
		configPath:          raw.ConfigPath,
		databaseURL:         raw.DatabaseURL,
		sentryDSN:           raw.SentryDSN,
		port:                raw.Port,
		allowedOrigins:      raw.AllowedOrigins,
		lookupTimeout:       raw.LookupTimeout,
		batchLookupTimeout:  raw.BatchLookupTimeout,
		reconnectDelay:      raw.ReconnectDelay,
		lookupWorkers:       raw.LookupWorkers,
		otelEnabled:         raw.OTelEnabled,
		env:                 environ,
	}, nil
}
