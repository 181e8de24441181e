package config

import "time"

// Default constants for application configuration
const (
	DefaultLogLevel = "info"
	DefaultJSONLog  = false
	DefaultLogFile  = "mapleads.log"

	// Map search
	DefaultBaseURL     = "https://www.google.com/maps/@40.6971415,-73.979506,8z"
	DefaultSearchQuery = "car detailers"

	// Database (env vars override these, see Load)
	DefaultDBHost     = "localhost"
	DefaultDBPort     = 18897
	DefaultDBName     = "defaultdb"
	DefaultLeadsTable = "car_detailers"

	// Pipeline shape
	DefaultMaxLeadsPerCity = 200
	DefaultCityBatchSize   = 2
	DefaultPhaseAttempts   = 3

	// Browser window. The window is positioned far off-screen instead of
	// minimized: minimizing stops IntersectionObserver callbacks and freezes
	// lazy-load, while an off-screen window keeps a real painted viewport.
	DefaultHeadless     = true
	DefaultWindowWidth  = 1920
	DefaultWindowHeight = 1080
	DefaultOffscreenX   = -3000
	DefaultOffscreenY   = 0

	// Timeouts
	DefaultPageLoadTimeout = 60 * time.Second
	DefaultScriptTimeout   = 60 * time.Second
	DefaultSearchWait      = 20 * time.Second
	DefaultDetailWait      = 10 * time.Second

	// Delays between browser interactions
	DefaultSearchDelay     = 2 * time.Second
	DefaultDetailPageDelay = 2 * time.Second
	DefaultScrollDelay     = 1500 * time.Millisecond
	DefaultPageLoadDelay   = 4 * time.Second

	// Phase 2 per-host throttle for external business websites
	DefaultSiteRateLimitRPS   = 0.5
	DefaultSiteRateLimitBurst = 1

	// HTTP API
	DefaultAPIPort = 8000
)
