package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Load reads the .env file specified by PAYRECON_ENV (or .env by default),
// then loads the corresponding .secret file if it exists.
// All config is flat env vars read via os.Getenv after loading.
func Load() error {
	envFile := os.Getenv("PAYRECON_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	// Load main env file (ignore error if file doesn't exist)
	_ = godotenv.Load(envFile)

	// Load secret sidecar if it exists
	_ = godotenv.Load(envFile + ".secret")

	return nil
}

func ServerPort() int {
	port, err := strconv.Atoi(os.Getenv("SERVER_PORT"))
	if err != nil {
		return 8080
	}
	return port
}

func ServerAddr() string {
	return fmt.Sprintf(":%d", ServerPort())
}

// StoreDriver returns the record store backend.
// Defaults to "postgres" if not set.
// Valid values: postgres, sqlite
func StoreDriver() string {
	d := os.Getenv("STORE_DRIVER")
	if d == "" {
		return "postgres"
	}
	return d
}

func DatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

func SQLitePath() string {
	p := os.Getenv("SQLITE_PATH")
	if p == "" {
		return "payrecon.db"
	}
	return p
}

// DedupCapacity returns how many (resource, state) pairs the deduplicator keeps.
// Defaults to 100 if not set.
func DedupCapacity() int {
	n, err := strconv.Atoi(os.Getenv("DEDUP_CAPACITY"))
	if err != nil || n <= 0 {
		return 100
	}
	return n
}

// DedupTTL returns how long a seen pair suppresses redeliveries.
// Defaults to 5m if not set.
func DedupTTL() time.Duration {
	return durationOr("DEDUP_TTL", 5*time.Minute)
}

func DedupSweepInterval() time.Duration {
	return durationOr("DEDUP_SWEEP_INTERVAL", time.Minute)
}

func EfiClientID() string {
	return os.Getenv("EFI_CLIENT_ID")
}

func EfiClientSecret() string {
	return os.Getenv("EFI_CLIENT_SECRET")
}

// WebhookSecret signs deliveries from providers other than Efí. Empty
// disables the generic webhook.
func WebhookSecret() string {
	return os.Getenv("WEBHOOK_SECRET")
}

// AdminAPIKey protects the /v1 record endpoints. Empty disables them.
func AdminAPIKey() string {
	return os.Getenv("ADMIN_API_KEY")
}

// StatusMapFile optionally points at a YAML provider status mapping.
func StatusMapFile() string {
	return os.Getenv("STATUS_MAP_FILE")
}

// RateLimitRPS returns requests per second limit.
// Defaults to 100 if not set.
func RateLimitRPS() float64 {
	rps, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT_RPS"), 64)
	if err != nil || rps <= 0 {
		return 100
	}
	return rps
}

// RateLimitBurst returns the burst size for rate limiting.
// Defaults to 20 if not set.
func RateLimitBurst() int {
	burst, err := strconv.Atoi(os.Getenv("RATE_LIMIT_BURST"))
	if err != nil || burst <= 0 {
		return 20
	}
	return burst
}

// LogLevel returns the log level (debug, info, warn, error).
// Defaults to "info" if not set.
func LogLevel() string {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		return "info"
	}
	return level
}

func durationOr(key string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return def
	}
	return d
}
