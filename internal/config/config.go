package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Load reads the .env file specified by PROOFSTREAM_ENV (or .env by default),
// then loads the corresponding .secret file if it exists.
// All config is flat env vars read via os.Getenv after loading.
func Load() error {
	envFile := os.Getenv("PROOFSTREAM_ENV")
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

func DatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

func OpenAIAPIKey() string {
	return os.Getenv("OPENAI_API_KEY")
}

func GoogleAIAPIKey() string {
	if k := os.Getenv("GOOGLEAI_API_KEY"); k != "" {
		return k
	}
	return os.Getenv("GEMINI_API_KEY")
}

func AnthropicAPIKey() string {
	return os.Getenv("ANTHROPIC_API_KEY")
}

func CerebrasAPIKey() string {
	return os.Getenv("CEREBRAS_API_KEY")
}

// LLMProvider returns the configured default LLM provider.
// Defaults to "googleai" if not set.
// Valid values: googleai, openai, anthropic, cerebras, mock
func LLMProvider() string {
	p := os.Getenv("LLM_PROVIDER")
	if p == "" {
		return "googleai"
	}
	return p
}

// LLMModel returns the default model for the configured provider, or "" to
// use the provider's built-in default.
func LLMModel() string {
	return os.Getenv("LLM_MODEL")
}

// ProvidersFile returns the optional YAML file overriding provider metadata.
func ProvidersFile() string {
	return os.Getenv("PROVIDERS_FILE")
}

func MigrationsPath() string {
	p := os.Getenv("MIGRATIONS_PATH")
	if p == "" {
		return "migrations"
	}
	return p
}

func ServerAddr() string {
	return fmt.Sprintf(":%d", ServerPort())
}

// UnlockKey returns the shared key guarding /v1. Empty disables the gate.
func UnlockKey() string {
	return os.Getenv("UNLOCK_KEY")
}

// KeepAliveInterval returns how often idle streams get a comment frame.
// Defaults to 15s if not set.
func KeepAliveInterval() time.Duration {
	d, err := time.ParseDuration(os.Getenv("SSE_KEEPALIVE"))
	if err != nil || d <= 0 {
		return 15 * time.Second
	}
	return d
}

// MemoryStoreSize returns how many proof histories the in-memory store keeps.
// Defaults to 1024 if not set.
func MemoryStoreSize() int {
	n, err := strconv.Atoi(os.Getenv("MEMORY_STORE_SIZE"))
	if err != nil || n <= 0 {
		return 1024
	}
	return n
}

// RateLimitRPS returns requests per second limit.
// Defaults to 20 if not set.
func RateLimitRPS() float64 {
	rps, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT_RPS"), 64)
	if err != nil || rps <= 0 {
		return 20
	}
	return rps
}

// RateLimitBurst returns the burst size for rate limiting.
// Defaults to 10 if not set.
func RateLimitBurst() int {
	burst, err := strconv.Atoi(os.Getenv("RATE_LIMIT_BURST"))
	if err != nil || burst <= 0 {
		return 10
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
