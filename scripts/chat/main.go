package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/joho/godotenv"

	appLogger "github.com/FACorreiaa/go-travel-assistant/app/logger"
	"github.com/FACorreiaa/go-travel-assistant/config"
	"github.com/FACorreiaa/go-travel-assistant/internal/container"
	"github.com/FACorreiaa/go-travel-assistant/internal/types"
)

var (
	provider = flag.String("provider", "", "llm provider override: gemini, openai or simulated")
	model    = flag.String("model", "", "model name override, e.g. gemini-2.0-flash")
	location = flag.String("location", "", "your current city")
)

// Terminal chat against the assistant, for trying prompts without the HTTP API.
// Type /clear to reset the conversation and /quit to leave.
func main() {
	flag.Parse()
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	cfg, err := config.InitConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *provider != "" {
		cfg.LLM.Provider = *provider
	}
	if *model != "" {
		cfg.LLM.Model = *model
	}
	cfg.Repositories.Postgres.Enabled = false

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	logger := appLogger.New(os.Stderr, "production")
	c, err := container.NewContainer(ctx, &cfg, logger)
	if err != nil {
		log.Fatalf("Failed to build container: %v", err)
	}
	defer c.Close()

	session, err := c.ChatService.CreateSession(ctx, types.CreateSessionRequest{Location: *location})
	if err != nil {
		log.Fatalf("Failed to create session: %v", err)
	}
	fmt.Printf("Travel assistant (%s). Ask about flights, hotels, attractions, restaurants, transport or seasons.\n", c.Model.Name())

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return
		case "/clear":
			if _, err := c.ChatService.ClearSession(ctx, session.ID); err != nil {
				fmt.Println("Failed to clear:", err)
			} else {
				fmt.Println("Conversation cleared.")
			}
			continue
		}

		resp, err := c.ChatService.SendMessage(ctx, session.ID, line)
		if err != nil {
			fmt.Println("Error:", err)
			continue
		}
		fmt.Printf("\n%s\n\n", resp.Response)
	}
}
