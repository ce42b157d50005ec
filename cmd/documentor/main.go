package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	"github.com/ChamsBouzaiene/documentor/internal/chat"
	"github.com/ChamsBouzaiene/documentor/internal/config"
	"github.com/ChamsBouzaiene/documentor/internal/gateway"
)

var (
	userColor      = color.New(color.FgCyan)
	assistantColor = color.New(color.FgGreen)
	pendingColor   = color.New(color.FgYellow)
	faintColor     = color.New(color.Faint)
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := run(os.Args[1:]); err != nil {
		log.Fatalf("command failed: %v", err)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("documentor", flag.ExitOnError)
	serverFlag := fs.String("server", "", "Q&A server base URL (default: http://localhost:8000)")
	fileFlag := fs.String("file", "", "Document to upload on startup")

	if err := fs.Parse(args); err != nil {
		return err
	}

	serverURL := resolveServerURL(*serverFlag)
	log.Printf("📡 Using server %s", serverURL)

	ctx := context.Background()

	ctrl := chat.NewController(gateway.NewClient(serverURL))
	ctrl.OnChange = func() { render(ctrl) }

	fmt.Println("Upload a document with /upload <path>, then ask questions about it.")
	fmt.Println("Type /quit to exit.")

	if *fileFlag != "" {
		ctrl.SelectDocument(*fileFlag)
		ctrl.Upload(ctx)
	}

	s := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("you> ")
		if !s.Scan() {
			break
		}
		line := strings.TrimSpace(s.Text())

		switch {
		case line == "":
			continue
		case line == "/quit", line == "/exit":
			fmt.Println("Bye!")
			return nil
		case strings.HasPrefix(line, "/upload"):
			path := strings.TrimSpace(strings.TrimPrefix(line, "/upload"))
			if path == "" {
				fmt.Println("Usage: /upload <path>")
				continue
			}
			ctrl.SelectDocument(path)
			ctrl.Upload(ctx)
		case strings.HasPrefix(line, "/"):
			fmt.Printf("Unknown command: %s\n", line)
		default:
			ctrl.Ask(ctx, line)
		}
	}
	return s.Err()
}

// resolveServerURL picks the server address from the flag, the environment,
// the saved config, or the default, in that order.
func resolveServerURL(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv("DOCUMENTOR_SERVER_URL"); env != "" {
		return env
	}
	if manager, err := config.NewManager(); err == nil {
		if cfg, err := manager.Load(); err == nil && cfg.ServerURL != "" {
			return cfg.ServerURL
		}
	}
	return "http://localhost:8000"
}

// render reprints the whole transcript after every state change.
func render(ctrl *chat.Controller) {
	fmt.Println()
	faintColor.Println(strings.Repeat("─", 60))
	for _, row := range ctrl.Rows() {
		switch {
		case row.Ephemeral:
			pendingColor.Println(row.Text)
		case row.Author == chat.AuthorUser:
			userColor.Printf("you> %s\n", row.Text)
		default:
			assistantColor.Printf("documentor> %s\n", row.Text)
		}
	}
	faintColor.Println(strings.Repeat("─", 60))
}
