package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"blockmate/internal/config"
	"blockmate/internal/console"
	"blockmate/internal/llm"
	"blockmate/internal/logger"
	"blockmate/internal/parser"
	"blockmate/internal/pipeline"
	"blockmate/internal/world"
)

func main() {
	// Optional .env for the LLM credential; a real environment works too.
	_ = godotenv.Load()

	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("Fatal Error: Could not load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Fatal Error: Invalid configuration: %v", err)
	}

	if err := logger.Init(cfg.LogFile); err != nil {
		log.Fatalf("Fatal Error: Could not initialize logger: %v", err)
	}

	provider, err := llm.New(llm.Config{
		Backend:     cfg.LLM.Backend,
		Model:       cfg.LLM.Model,
		APIKey:      os.Getenv("GEMINI_API_KEY"),
		OllamaHost:  cfg.LLM.OllamaHost,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
	})
	if err != nil {
		log.Fatalf("Fatal Error: Could not initialize LLM client: %v", err)
	}

	agent := world.NewClient(world.Options{
		Host:            cfg.World.Host,
		Port:            cfg.World.Port,
		Username:        cfg.World.Username,
		ProtocolVersion: cfg.World.ProtocolVersion,
	})
	connectCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := agent.Connect(connectCtx); err != nil {
		cancel()
		log.Fatalf("Fatal Error: Could not connect to the bot bridge: %v", err)
	}
	cancel()
	defer agent.Disconnect()

	planner := parser.NewPlanner(provider, time.Duration(cfg.LLM.TimeoutMs)*time.Millisecond)
	exec := pipeline.NewExecutor(agent, planner, pipeline.Config{})

	if err := console.Run(exec); err != nil {
		log.Fatalf("Fatal Error: %v", err)
	}
}
