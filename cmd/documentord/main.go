package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/ChamsBouzaiene/documentor/internal/config"
	"github.com/ChamsBouzaiene/documentor/internal/docstore"
	"github.com/ChamsBouzaiene/documentor/internal/providers"
	"github.com/ChamsBouzaiene/documentor/internal/server"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := run(os.Args[1:]); err != nil {
		log.Fatalf("command failed: %v", err)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("documentord", flag.ExitOnError)
	addrFlag := fs.String("addr", ":8000", "Address to listen on")
	dataFlag := fs.String("data", "", "Data directory (default: ~/.documentor)")
	watchFlag := fs.String("watch", "", "Optional directory to watch for documents to ingest")

	if err := fs.Parse(args); err != nil {
		return err
	}

	// Saved config fills in whatever the environment leaves unset.
	if manager, err := config.NewManager(); err == nil {
		if cfg, err := manager.Load(); err == nil {
			cfg.ApplyToEnv()
		}
	}

	dataDir := *dataFlag
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		dataDir = filepath.Join(home, ".documentor")
	}

	ctx := context.Background()

	store, err := docstore.Open(ctx, docstore.Config{
		DataDir:  dataDir,
		Embedder: docstore.NewEmbedderFromEnv(),
	})
	if err != nil {
		return err
	}
	defer store.Close()

	answerer, model, err := providers.NewAnswererFromEnv()
	if err != nil {
		return err
	}
	log.Printf("🤖 Answering with %s", model)

	if *watchFlag != "" {
		watcher, err := docstore.NewSpoolWatcher(store, *watchFlag)
		if err != nil {
			return err
		}
		if err := watcher.Start(); err != nil {
			return err
		}
		defer watcher.Stop()
	}

	srv := server.New(server.Config{
		Addr:     *addrFlag,
		Store:    store,
		Answerer: answerer,
	})

	// Shut down cleanly on SIGINT/SIGTERM so sqlite and bleve close properly.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("🛑 Shutting down...")
		if err := srv.Shutdown(); err != nil {
			log.Printf("⚠️  Shutdown error: %v", err)
		}
	}()

	return srv.Run()
}
