// Package config loads process-level configuration from the environment.
package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Load reads the .env file if present and warns about unset variables the
// node can run without but degrades.
func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	optional := []string{
		"OPENAI_API_KEY", // required only for custom LLM agents
		"NATS_URL",
	}
	for _, env := range optional {
		if os.Getenv(env) == "" {
			log.Printf("Warning: %s environment variable not set\n", env)
		}
	}
}

// Getenv returns the value of key or fallback when unset.
func Getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
