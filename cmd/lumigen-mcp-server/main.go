package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"lumigen/internal/config"
	"lumigen/internal/course"
	"lumigen/internal/responder"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}
	cfg := config.New()

	tools := &lumigenTools{
		simulator: responder.NewSimulator(),
		courses:   course.NewClient(cfg.BackendBaseURL, cfg.HTTPTimeout),
	}

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "lumigen-mcp",
		Version: "1.0.0",
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "lumigen_ask",
		Description: "Asks the Lumigen study assistant a question and returns its reply",
	}, tools.Ask)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "lumigen_courses",
		Description: "Lists the courses a Lumigen user is enrolled in, with progress",
	}, tools.Courses)

	log.Printf("starting Lumigen MCP server on stdin/stdout (backend %s)", cfg.BackendBaseURL)
	if err := server.Run(context.Background(), mcp.NewStdioTransport()); err != nil {
		log.Fatalf("MCP server failed: %v", err)
	}
}
