package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration
type Config struct {
	// CrossFit Games leaderboard API
	CFLeaderboardURL string        `envconfig:"CF_LEADERBOARD_URL" default:"https://c3po.crossfit.com/api/leaderboards/v2/competitions/open/YYYY/leaderboards"`
	CFAPITimeout     time.Duration `envconfig:"CF_API_TIMEOUT" default:"30s"`
	CFAPIPageSize    int           `envconfig:"CF_API_PAGE_SIZE" default:"100"`
	CFAPIThrottle    time.Duration `envconfig:"CF_API_THROTTLE" default:"0s"`

	// Competition
	Year          int    `envconfig:"YEAR" default:"2024"`
	AffiliateID   int    `envconfig:"AFFILIATE_ID" default:"31316"`
	AffiliateName string `envconfig:"AFFILIATE_NAME" default:"CrossFit MonkeyFlag"`

	// Event names keyed by ordinal, e.g. "1:24.1,2:24.2,3:24.3"
	EventNames map[string]string `envconfig:"EVENT_NAMES" default:"1:24.1,2:24.2,3:24.3"`

	// Scoring point values
	ParticipationScore int `envconfig:"PARTICIPATION_SCORE" default:"1"`
	Top3Score          int `envconfig:"TOP3_SCORE" default:"3"`
	JudgeScore         int `envconfig:"JUDGE_SCORE" default:"2"`
	AttendanceScore    int `envconfig:"ATTENDANCE_SCORE" default:"2"`
	SideChallengeScore int `envconfig:"SIDE_CHALLENGE_SCORE" default:"10"`
	SpiritScore        int `envconfig:"SPIRIT_SCORE" default:"10"`

	// Age category cutoffs
	OpenAgeCutoff    int `envconfig:"OPEN_AGE_CUTOFF" default:"35"`
	MastersAgeCutoff int `envconfig:"MASTERS_AGE_CUTOFF" default:"55"`

	// Overlay CSV sources
	TeamAssignmentsFile string `envconfig:"TEAM_ASSIGNMENTS_FILE" default:"static/team_assignments.csv"`
	AttendanceFile      string `envconfig:"ATTENDANCE_FILE" default:"static/attendance.csv"`
	SideChallengeFile   string `envconfig:"SIDE_CHALLENGE_FILE" default:"static/side_challenge.csv"`
	SpiritFile          string `envconfig:"SPIRIT_FILE" default:"static/spirit.csv"`

	// Database
	DatabaseHost     string `envconfig:"DATABASE_HOST" default:"localhost"`
	DatabasePort     int    `envconfig:"DATABASE_PORT" default:"5432"`
	DatabaseName     string `envconfig:"DATABASE_NAME" default:"cf_open"`
	DatabaseUser     string `envconfig:"DATABASE_USER" default:"cf_open_user"`
	DatabasePassword string `envconfig:"DATABASE_PASSWORD" required:"true"`
	DatabaseSSLMode  string `envconfig:"DATABASE_SSL_MODE" default:"disable"`

	// Redis
	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	// Caching TTL (in seconds)
	CacheTTLLeaderboard int `envconfig:"CACHE_TTL_LEADERBOARD" default:"300"` // 5 minutes

	// Application
	AppEnv   string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Scheduler
	EnableScheduler    bool   `envconfig:"ENABLE_SCHEDULER" default:"true"`
	InitialSyncEnabled bool   `envconfig:"INITIAL_SYNC_ENABLED" default:"true"`
	NightlyRefreshCron string `envconfig:"NIGHTLY_REFRESH_CRON" default:"0 2 * * *"`

	// Monitoring
	EnableMetrics bool `envconfig:"ENABLE_METRICS" default:"true"`
	MetricsPort   int  `envconfig:"METRICS_PORT" default:"9090"`
}

// Load loads configuration from environment variables
// It first attempts to load from .env file if in development mode
func Load() (*Config, error) {
	// Try to load .env file (ignore error if doesn't exist)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.DatabasePassword == "" {
		return fmt.Errorf("DATABASE_PASSWORD is required")
	}

	if c.AffiliateID <= 0 {
		return fmt.Errorf("AFFILIATE_ID must be positive")
	}

	if c.Year < 2011 {
		return fmt.Errorf("YEAR %d predates the first Open season", c.Year)
	}

	if c.OpenAgeCutoff >= c.MastersAgeCutoff {
		return fmt.Errorf("OPEN_AGE_CUTOFF must be below MASTERS_AGE_CUTOFF")
	}

	return nil
}

// EventName returns the display name for an event ordinal,
// falling back to "Event N" for unmapped ordinals
func (c *Config) EventName(ordinal int) string {
	if name, ok := c.EventNames[strconv.Itoa(ordinal)]; ok {
		return name
	}
	return fmt.Sprintf("Event %d", ordinal)
}

// RedisAddr returns the Redis address
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// MustLoad loads configuration or panics on error
// Use this in main() where we want to fail fast
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	return cfg
}
