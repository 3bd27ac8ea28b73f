package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Redis     RedisConfig
	SQLite    SQLiteConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	Sources   SourcesConfig
	Verify    VerifyConfig
	Detector  DetectorConfig
	Scoring   ScoringConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  int
	WriteTimeout int
	BodyLimit    int
}

// RedisConfig is optional; when Addr is empty the rate limiter keeps its
// windows in process memory.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type SQLiteConfig struct {
	Path string
}

// CacheConfig controls the cached API client. TTLSeconds carries one entry
// per source category so registry lookups can outlive volatile search
// results.
type CacheConfig struct {
	MaxEntries int
	TTLSeconds map[string]int
}

func (c CacheConfig) TTLFor(category string) time.Duration {
	if secs, ok := c.TTLSeconds[strings.ToLower(category)]; ok && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return time.Hour
}

type RateLimitConfig struct {
	Limit         int
	WindowSeconds int
	GlobalLimit   int
}

type SourcesConfig struct {
	SerpAPIKey          string
	GitHubToken         string
	NumverifyKey        string
	CollegeScorecardKey string
	SECContactEmail     string
	OpenAlexEmail       string
	TimeoutSec          int
}

// VerifyConfig bounds a whole verification run. RunTimeoutSec must leave
// room for at least one sources.timeoutSec round trip.
type VerifyConfig struct {
	RunTimeoutSec int
}

type DetectorConfig struct {
	APIKey      string
	Model       string
	Temperature float32
	MaxTokens   int
	TimeoutSec  int
}

type ScoringConfig struct {
	Weights      map[string]float64
	NeutralScore float64
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/trusthire")

	viper.SetEnvPrefix("TRUSTHIRE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.readTimeout", 30)
	viper.SetDefault("server.writeTimeout", 60)
	viper.SetDefault("server.bodyLimit", 5242880)

	viper.SetDefault("redis.addr", "")
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("sqlite.path", "./data/trusthire.db")

	viper.SetDefault("cache.maxEntries", 500)
	viper.SetDefault("cache.ttlSeconds", map[string]int{
		"registry":  3600,
		"education": 3600,
		"filings":   86400,
		"archive":   7200,
		"developer": 1800,
		"search":    1800,
		"contact":   3600,
	})

	viper.SetDefault("ratelimit.limit", 5)
	viper.SetDefault("ratelimit.windowSeconds", 60)
	viper.SetDefault("ratelimit.globalLimit", 50)

	viper.SetDefault("sources.timeoutSec", 10)

	viper.SetDefault("verify.runTimeoutSec", 45)

	viper.SetDefault("detector.model", "gpt-4")
	viper.SetDefault("detector.temperature", 0.1)
	viper.SetDefault("detector.maxTokens", 1024)
	viper.SetDefault("detector.timeoutSec", 30)

	viper.SetDefault("scoring.neutralScore", 50)
	viper.SetDefault("scoring.weights", map[string]float64{
		"ai_content":            0.35,
		"contact":               0.25,
		"background":            0.20,
		"digital_footprint":     0.10,
		"document_authenticity": 0.10,
	})

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.outputPath", "stdout")
}
