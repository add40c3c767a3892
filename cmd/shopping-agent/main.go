package main

import (
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// A .env file is optional; when present its values feed the
	// SHOPPING_AGENT_* environment overrides read by the config layer.
	_ = godotenv.Load()

	if err := rootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
