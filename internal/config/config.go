package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"ticket-insights/internal/insights"
	"ticket-insights/internal/jira"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Jira       jira.Config
	Workers    int
	MaxResults int
	Location   *time.Location
	Thresholds insights.Thresholds
}

// Load loads the configuration from .env files and environment variables.
// The log directory is resolved by the logging package.
func Load() (*AppConfig, error) {
	// 1. Try to load from the executable's directory (highest priority for MCP servers)
	if exePath, err := os.Executable(); err == nil {
		envPath := filepath.Join(filepath.Dir(exePath), ".env")
		if err := godotenv.Load(envPath); err == nil {
			log.Debug().Str("path", envPath).Msg("Loaded configuration from binary directory")
		}
	}

	// 2. Fallback to current working directory (useful for development/go run)
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found in working directory, relying on environment variables or binary-relative .env")
	}

	return fromEnv()
}

func fromEnv() (*AppConfig, error) {
	loc, err := time.LoadLocation(getEnv("INSIGHTS_TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("INSIGHTS_TIMEZONE: %w", err)
	}

	thresholdsFile := getEnv("INSIGHTS_THRESHOLDS_FILE", "")
	thresholds := insights.DefaultThresholds()
	if thresholdsFile != "" {
		thresholds, err = LoadThresholds(thresholdsFile)
		if err != nil {
			return nil, err
		}
	}

	cfg := &AppConfig{
		Jira: jira.Config{
			BaseURL:      getEnv("JIRA_URL", ""),
			Token:        getEnv("JIRA_TOKEN", ""),
			User:         getEnv("JIRA_USER", ""),
			APIToken:     getEnv("JIRA_API_TOKEN", ""),
			RequestDelay: time.Duration(getEnvInt("JIRA_REQUEST_DELAY_MS", 250)) * time.Millisecond,
			PageSize:     getEnvInt("JIRA_PAGE_SIZE", 50),
		},
		Workers:    getEnvInt("INSIGHTS_WORKERS", 0),
		MaxResults: getEnvInt("JIRA_MAX_RESULTS", 100),
		Location:   loc,
		Thresholds: thresholds,
	}

	return cfg, nil
}

// listKeys are replaced wholesale when a thresholds file sets them.
var listKeys = map[string]func(*insights.Thresholds){
	"workflow.buckets":             func(th *insights.Thresholds) { th.Workflow.Buckets = nil },
	"workflow.active_buckets":      func(th *insights.Thresholds) { th.Workflow.ActiveBuckets = nil },
	"workflow.wait_buckets":        func(th *insights.Thresholds) { th.Workflow.WaitBuckets = nil },
	"quality.requirement_keywords": func(th *insights.Thresholds) { th.Quality.RequirementKeywords = nil },
	"quality.bug_keywords":         func(th *insights.Thresholds) { th.Quality.BugKeywords = nil },
	"risk.debt_summary_keywords":   func(th *insights.Thresholds) { th.Risk.DebtSummaryKeywords = nil },
}

// LoadThresholds decodes a YAML, JSON or TOML file onto DefaultThresholds.
// Keys absent from the file keep their default. INSIGHTS_-prefixed variables
// (e.g. INSIGHTS_RISK_OVERALL_HIGH) override values the file sets.
func LoadThresholds(path string) (insights.Thresholds, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("INSIGHTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return insights.Thresholds{}, fmt.Errorf("read thresholds %s: %w", path, err)
	}

	th := insights.DefaultThresholds()
	clearOverriddenLists(v, &th)
	if err := v.Unmarshal(&th); err != nil {
		return insights.Thresholds{}, fmt.Errorf("decode thresholds %s: %w", path, err)
	}
	if err := th.Validate(); err != nil {
		return insights.Thresholds{}, fmt.Errorf("thresholds %s: %w", path, err)
	}

	log.Debug().Str("path", path).Msg("Loaded analyzer thresholds")
	return th, nil
}

func clearOverriddenLists(v *viper.Viper, th *insights.Thresholds) {
	for key, reset := range listKeys {
		if v.IsSet(key) {
			reset(th)
		}
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Ignoring non-numeric setting")
	}
	return fallback
}
