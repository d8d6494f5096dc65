package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config collects everything read from the environment at startup.
type Config struct {
	OpenAIKey string
	SerpKey   string
	NATSURL   string
	DataDir   string
	APIPort   int
}

// Load reads .env (if present) and the environment. Missing optional
// values fall back to defaults; a missing OpenAI key is a warning so
// local runs with a mock capability still work.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	cfg := Config{
		OpenAIKey: os.Getenv("OPENAI_API_KEY"),
		SerpKey:   os.Getenv("SERP_API_KEY"),
		NATSURL:   getEnv("NATS_URL", "nats://localhost:4222"),
		DataDir:   getEnv("DATA_DIR", "./data"),
		APIPort:   getEnvInt("API_PORT", 8080),
	}

	if cfg.OpenAIKey == "" {
		log.Println("Warning: OPENAI_API_KEY environment variable not set")
	}
	if cfg.SerpKey == "" {
		log.Println("Warning: SERP_API_KEY not set, web research will be disabled")
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
