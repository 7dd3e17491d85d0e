package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var (
	ErrNoEntities    = errors.New("config: no monitored entities defined")
	ErrEntityNoID    = errors.New("config: monitored entity without an id")
	ErrEntityNoPages = errors.New("config: monitored entity without page URLs")
	ErrBadRetention  = errors.New("config: retention must be at least 1")
)

// Config is the full application configuration.
type Config struct {
	Env      string        `mapstructure:"env"` // local, development, production
	Storage  Storage       `mapstructure:"storage"`
	Scraping Scraping      `mapstructure:"scraping"`
	Entities []Entity      `mapstructure:"entities"`
	Interval time.Duration `mapstructure:"scan_interval"`
	Tg       Telegram      `mapstructure:"telegram"`
}

// Storage holds durable-media locations and retention bounds.
type Storage struct {
	DatabasePath string `mapstructure:"database_path"`
	ReportsDir   string `mapstructure:"reports_dir"`
	MaxPerEntity int    `mapstructure:"max_snapshots_per_entity"`
}

// Scraping holds network behavior shared by all scrapers.
type Scraping struct {
	Timeout    time.Duration `mapstructure:"request_timeout"`
	Delay      time.Duration `mapstructure:"delay_between_requests"`
	MaxRetries int           `mapstructure:"max_retries"`
	UserAgent  string        `mapstructure:"user_agent"`
}

// Entity describes one monitored competitor.
type Entity struct {
	ID        string            `mapstructure:"id"`
	Name      string            `mapstructure:"name"`
	Pages     map[string]string `mapstructure:"pages"` // logical page name -> URL
	Selectors Selectors         `mapstructure:"selectors"`
}

// Selectors are the per-site CSS selectors used to extract structured facts.
type Selectors struct {
	Services   string `mapstructure:"services"`
	PriceRows  string `mapstructure:"price_rows"`
	Locations  string `mapstructure:"locations"`
	Promotions string `mapstructure:"promotions"`
	About      string `mapstructure:"about"`
}

// Telegram configures the optional report delivery bot.
type Telegram struct {
	Token   string        `mapstructure:"token"`
	Timeout time.Duration `mapstructure:"poll_timeout"`
}

// Load reads the configuration file at path, applies CW_* environment
// overrides and defaults, and validates the result.
func Load(path string) (*Config, error) {
	vpr := viper.New()
	vpr.SetConfigFile(path)

	vpr.SetEnvPrefix("CW")
	vpr.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	vpr.AutomaticEnv()

	vpr.SetDefault("env", "production")
	vpr.SetDefault("storage.database_path", "data/tracker.db")
	vpr.SetDefault("storage.reports_dir", "data/reports")
	vpr.SetDefault("storage.max_snapshots_per_entity", 90)
	vpr.SetDefault("scraping.request_timeout", "30s")
	vpr.SetDefault("scraping.delay_between_requests", "2s")
	vpr.SetDefault("scraping.max_retries", 3)
	vpr.SetDefault("scraping.user_agent", "CompetitorWatch/1.0")
	vpr.SetDefault("scan_interval", "12h")
	vpr.SetDefault("telegram.poll_timeout", "15s")

	if err := vpr.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	var cfg Config
	if err := vpr.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// MustLoad is Load that panics on failure. Used at startup, before any
// scanning begins.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

// EntityIDs returns the ids of all configured entities in config order.
func (c *Config) EntityIDs() []string {
	ids := make([]string, 0, len(c.Entities))
	for _, ent := range c.Entities {
		ids = append(ids, ent.ID)
	}
	return ids
}

// Entity returns the configuration for one entity id.
func (c *Config) Entity(id string) (Entity, bool) {
	for _, ent := range c.Entities {
		if ent.ID == id {
			return ent, true
		}
	}
	return Entity{}, false
}

func (c *Config) validate() error {
	if len(c.Entities) == 0 {
		return ErrNoEntities
	}
	for _, ent := range c.Entities {
		if ent.ID == "" {
			return ErrEntityNoID
		}
		if len(ent.Pages) == 0 {
			return fmt.Errorf("%w: %s", ErrEntityNoPages, ent.ID)
		}
	}
	if c.Storage.MaxPerEntity < 1 {
		return ErrBadRetention
	}
	return nil
}
