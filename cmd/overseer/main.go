package main

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"overseer/internal/cli"
	"overseer/internal/logger"
	"overseer/internal/reasoner"
)

func main() {
	// A missing .env is fine; the environment may carry everything.
	_ = godotenv.Load()

	if err := logger.Init("overseer.log"); err != nil {
		log.Fatalf("Fatal Error: Could not initialize logger: %v", err)
	}

	if err := reasoner.Init(reasoner.Config{
		Backend:    os.Getenv("OVERSEER_BACKEND"),
		Model:      os.Getenv("OVERSEER_MODEL"),
		OllamaHost: os.Getenv("OLLAMA_HOST"),
	}); err != nil {
		log.Fatalf("Fatal Error: Could not initialize reasoner backend: %v", err)
	}

	concurrency, _ := strconv.Atoi(os.Getenv("OVERSEER_CONCURRENCY"))
	maxTurns, _ := strconv.Atoi(os.Getenv("OVERSEER_MAX_TURNS"))

	cli.SetOptions(cli.Options{
		Model:       os.Getenv("OVERSEER_MODEL"),
		Concurrency: concurrency,
		MaxTurns:    maxTurns,
		ShowMetrics: os.Getenv("OVERSEER_SHOW_METRICS") != "false",
	})
	cli.Execute()
}
