package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Config holds application configuration values
type Config struct {
	// Logging
	LogLevel string
	JSONLog  bool
	LogFile  string

	// Database
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	LeadsTable string

	// Map search
	BaseURL     string
	SearchQuery string

	// Pipeline
	MaxLeadsPerCity int
	CityBatchSize   int
	PhaseAttempts   int

	// Browser
	Headless     bool
	WindowWidth  int
	WindowHeight int
	OffscreenX   int
	OffscreenY   int
	ChromePath   string

	// Timeouts
	PageLoadTimeout time.Duration
	ScriptTimeout   time.Duration
	SearchWait      time.Duration
	DetailWait      time.Duration

	// Delays
	SearchDelay     time.Duration
	DetailPageDelay time.Duration
	ScrollDelay     time.Duration
	PageLoadDelay   time.Duration

	// Phase 2 throttle
	SiteRateLimitRPS   float64
	SiteRateLimitBurst int

	// HTTP API
	APIPort int
}

// Load builds a Config by combining defaults, a .env file (local dev),
// environment variables, and CLI flags. Caller should pass the root
// *cobra.Command so flags can be read.
func Load(cmd *cobra.Command) (*Config, error) {
	// Local development convenience; deployed environments set real env vars.
	_ = godotenv.Load()

	cfg := &Config{
		LogLevel:           DefaultLogLevel,
		JSONLog:            DefaultJSONLog,
		LogFile:            DefaultLogFile,
		DBHost:             DefaultDBHost,
		DBPort:             DefaultDBPort,
		DBName:             DefaultDBName,
		LeadsTable:         DefaultLeadsTable,
		BaseURL:            DefaultBaseURL,
		SearchQuery:        DefaultSearchQuery,
		MaxLeadsPerCity:    DefaultMaxLeadsPerCity,
		CityBatchSize:      DefaultCityBatchSize,
		PhaseAttempts:      DefaultPhaseAttempts,
		Headless:           DefaultHeadless,
		WindowWidth:        DefaultWindowWidth,
		WindowHeight:       DefaultWindowHeight,
		OffscreenX:         DefaultOffscreenX,
		OffscreenY:         DefaultOffscreenY,
		PageLoadTimeout:    DefaultPageLoadTimeout,
		ScriptTimeout:      DefaultScriptTimeout,
		SearchWait:         DefaultSearchWait,
		DetailWait:         DefaultDetailWait,
		SearchDelay:        DefaultSearchDelay,
		DetailPageDelay:    DefaultDetailPageDelay,
		ScrollDelay:        DefaultScrollDelay,
		PageLoadDelay:      DefaultPageLoadDelay,
		SiteRateLimitRPS:   DefaultSiteRateLimitRPS,
		SiteRateLimitBurst: DefaultSiteRateLimitBurst,
		APIPort:            DefaultAPIPort,
	}

	// Environment variables
	if v := os.Getenv("DB_HOST"); v != "" {
		cfg.DBHost = v
	}
	if v := os.Getenv("DB_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.DBPort = p
		}
	}
	if v := os.Getenv("DB_USER"); v != "" {
		cfg.DBUser = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		cfg.DBPassword = v
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		cfg.DBName = v
	}
	if v := os.Getenv("LEADS_TABLE"); v != "" {
		cfg.LeadsTable = v
	}
	if v := os.Getenv("HEADLESS"); v != "" {
		cfg.Headless = v == "true" || v == "True" || v == "1"
	}
	if v := os.Getenv("CHROME_PATH"); v != "" {
		cfg.ChromePath = v
	}
	if v := os.Getenv("MAPLEADS_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}

	// CLI flags override everything else
	if cmd != nil {
		// Persistent flags are merged into Flags() only once cobra executes
		// the command, so check both sets.
		lookup := func(name string) *pflag.Flag {
			if f := cmd.Flags().Lookup(name); f != nil {
				return f
			}
			return cmd.PersistentFlags().Lookup(name)
		}
		if f := lookup("query"); f != nil {
			if s := f.Value.String(); s != "" {
				cfg.SearchQuery = s
			}
		}
		if f := lookup("headless"); f != nil && f.Changed {
			cfg.Headless = f.Value.String() == "true"
		}
		if f := lookup("max-leads"); f != nil && f.Changed {
			if n, err := strconv.Atoi(f.Value.String()); err == nil {
				cfg.MaxLeadsPerCity = n
			}
		}
		if f := lookup("batch-size"); f != nil && f.Changed {
			if n, err := strconv.Atoi(f.Value.String()); err == nil {
				cfg.CityBatchSize = n
			}
		}
		if f := lookup("port"); f != nil && f.Changed {
			if n, err := strconv.Atoi(f.Value.String()); err == nil {
				cfg.APIPort = n
			}
		}
		if f := lookup("json"); f != nil {
			if f.Value.String() == "true" {
				cfg.JSONLog = true
			}
		}
		if f := lookup("verbose"); f != nil {
			if f.Value.String() == "true" {
				cfg.LogLevel = "debug"
			}
		}
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// DSN returns the Postgres connection string for the configured database.
func (c *Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}
