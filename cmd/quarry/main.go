package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/quarry-labs/quarry-cli/internal/adapters/driving/cli"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	// A .env in the working directory supplies QUARRY_* overrides; absence
	// is not an error.
	_ = godotenv.Load()

	if err := cli.Execute(version); err != nil {
		os.Exit(1)
	}
}
