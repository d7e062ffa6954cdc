package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Device identity reported by the native shell.
	Platform   string `mapstructure:"PLATFORM"`
	AppVersion string `mapstructure:"APP_VERSION"`

	// Token store configuration. STORE_BACKEND selects firestore, mongo or
	// memory (the in-process fallback used when no store is reachable).
	StoreBackend    string `mapstructure:"STORE_BACKEND"`
	TokenCollection string `mapstructure:"TOKEN_COLLECTION"`
	DatabaseURL     string `mapstructure:"DATABASE_URL"`
	DatabaseName    string `mapstructure:"DATABASE_NAME"`

	// Firebase configuration.
	FirebaseCredentialsFile string `mapstructure:"FIREBASE_CREDENTIALS_FILE"`
	FirebaseProjectID       string `mapstructure:"FIREBASE_PROJECT_ID"`

	// Storefront configuration.
	StorefrontBaseURL  string `mapstructure:"STOREFRONT_BASE_URL"`
	StorefrontLoginURL string `mapstructure:"STOREFRONT_LOGIN_URL"`

	// Timing knobs for the notification core.
	ReadinessMaxAttempts int `mapstructure:"READINESS_MAX_ATTEMPTS"`
	ReadinessDelayMs     int `mapstructure:"READINESS_DELAY_MS"`
	InitTimeoutMs        int `mapstructure:"INIT_TIMEOUT_MS"`
	RetryDelayMs         int `mapstructure:"RETRY_DELAY_MS"`
	InjectionSettleMs    int `mapstructure:"INJECTION_SETTLE_MS"`

	// Token hygiene: records not refreshed within TOKEN_STALE_DAYS are
	// deactivated by a background sweep every SWEEP_INTERVAL_HOURS.
	TokenStaleDays     int `mapstructure:"TOKEN_STALE_DAYS"`
	SweepIntervalHours int `mapstructure:"SWEEP_INTERVAL_HOURS"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("PLATFORM", "android")
	viper.SetDefault("APP_VERSION", "0.0.1")
	viper.SetDefault("STORE_BACKEND", "firestore")
	viper.SetDefault("TOKEN_COLLECTION", "fcm_tokens")
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_NAME", "bunie")
	viper.SetDefault("FIREBASE_CREDENTIALS_FILE", "")
	viper.SetDefault("FIREBASE_PROJECT_ID", "")
	viper.SetDefault("STOREFRONT_BASE_URL", "https://bunnieandminnie.com")
	viper.SetDefault("STOREFRONT_LOGIN_URL", "")
	viper.SetDefault("READINESS_MAX_ATTEMPTS", 20)
	viper.SetDefault("READINESS_DELAY_MS", 500)
	viper.SetDefault("INIT_TIMEOUT_MS", 3000)
	viper.SetDefault("RETRY_DELAY_MS", 2000)
	viper.SetDefault("INJECTION_SETTLE_MS", 300)
	viper.SetDefault("TOKEN_STALE_DAYS", 60)
	viper.SetDefault("SWEEP_INTERVAL_HOURS", 24)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

// ReadinessDelay returns the poll interval for the firebase readiness gate.
func ReadinessDelay() time.Duration {
	return time.Duration(AppConfig.ReadinessDelayMs) * time.Millisecond
}

// InitTimeout returns the outer ceiling raced against the readiness gate.
func InitTimeout() time.Duration {
	return time.Duration(AppConfig.InitTimeoutMs) * time.Millisecond
}

// RetryDelay returns the fixed backoff used by single-retry provider calls.
func RetryDelay() time.Duration {
	return time.Duration(AppConfig.RetryDelayMs) * time.Millisecond
}

// InjectionSettle returns the delay between a page load finishing and the
// token injection script running.
func InjectionSettle() time.Duration {
	return time.Duration(AppConfig.InjectionSettleMs) * time.Millisecond
}

// TokenStaleAge returns the staleness window for the token sweep.
func TokenStaleAge() time.Duration {
	return time.Duration(AppConfig.TokenStaleDays) * 24 * time.Hour
}

// SweepInterval returns how often the token sweep runs.
func SweepInterval() time.Duration {
	return time.Duration(AppConfig.SweepIntervalHours) * time.Hour
}
