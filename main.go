package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"camwatch/collector"
	"camwatch/config"
	"camwatch/extractor"
	"camwatch/httputil"
	"camwatch/logging"
	"camwatch/models"
	"camwatch/scheduler"
	"camwatch/storage"
)

var (
	syncNow = flag.Bool("sync", false, "Run one collection and exit")
	history = flag.Int("history", 0, "Print the last N runs and exit")
	command = flag.String("cmd", "", "Queue a command for the running daemon (sync_now, pause, resume)")
)

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	logFile, err := logging.Setup("daemon.log")
	if err != nil {
		log.Printf("Warning: could not set up file logging: %v", err)
	} else {
		defer logFile.Close()
	}

	log.Println("Starting camwatch...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	// SQLite holds the command queue and local run mirror
	opsStore, err := storage.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open SQLite: %v", err)
	}
	defer opsStore.Close()
	log.Printf("SQLite database: %s", cfg.DBPath)

	if *history > 0 {
		printHistory(opsStore, *history)
		return
	}

	if *command != "" {
		enqueueCommand(opsStore, *command)
		return
	}

	pgStore, err := storage.NewPostgresStore(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to Postgres: %v", err)
	}
	defer pgStore.Close()
	log.Printf("Connected to Postgres: %s", maskConnectionString(cfg.Database.URL))

	clients := httputil.NewClients(&cfg.Portal)
	handler := extractor.NewHandler(&cfg.Portal, clients)
	log.Printf("Portal: %s (handler: %s)", cfg.Portal.BaseURL, handler.ID())

	pipeline := collector.NewPipeline(cfg, handler, pgStore, opsStore)

	if cfg.Artifacts.Upload {
		uploader, err := storage.NewArtifactUploader(ctx, storage.S3Config{
			Bucket:          cfg.Artifacts.Bucket,
			Region:          cfg.Artifacts.Region,
			Endpoint:        cfg.Artifacts.Endpoint,
			AccessKeyID:     cfg.Artifacts.KeyID,
			SecretAccessKey: cfg.Artifacts.Secret,
		})
		if err != nil {
			log.Printf("Warning: artifact upload disabled: %v", err)
		} else {
			pipeline.SetUploader(uploader)
			log.Printf("Artifact upload enabled: %s", cfg.Artifacts.Bucket)
		}
	}

	if *syncNow {
		log.Println("Running collection...")
		if err := pipeline.Run(ctx); err != nil {
			log.Printf("Collection failed: %v", err)
			os.Exit(1)
		}
		log.Println("Collection complete!")
		return
	}

	// Daemon mode
	sched := scheduler.New(cfg, pipeline, opsStore)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := sched.Start(ctx); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	log.Println("Daemon running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutting down...")
	sched.Stop()
	log.Println("Goodbye!")
}

func enqueueCommand(store *storage.SQLiteStore, cmd string) {
	switch models.CommandType(cmd) {
	case models.CmdSyncNow, models.CmdPause, models.CmdResume:
	default:
		log.Fatalf("Unknown command %q (want sync_now, pause or resume)", cmd)
	}
	if err := store.EnqueueCommand(models.CommandType(cmd)); err != nil {
		log.Fatalf("Failed to queue command: %v", err)
	}
	log.Printf("Queued command: %s", cmd)
}

func printHistory(store *storage.SQLiteStore, limit int) {
	runs, err := store.GetRecentRuns(limit)
	if err != nil {
		log.Fatalf("Failed to read run history: %v", err)
	}
	for _, run := range runs {
		fmt.Printf("%s  %-9s  %s\n", run.RunDate.Format("2006-01-02"), run.Status, run.Summary)
	}
}

// maskConnectionString masks password in connection string for logging
func maskConnectionString(connStr string) string {
	// Simple mask - find :// and mask until @
	start := 0
	for i := 0; i < len(connStr)-3; i++ {
		if connStr[i:i+3] == "://" {
			start = i + 3
			break
		}
	}
	if start == 0 {
		return connStr
	}

	colonIdx := -1
	atIdx := -1
	for i := start; i < len(connStr); i++ {
		if connStr[i] == ':' && colonIdx == -1 {
			colonIdx = i
		}
		if connStr[i] == '@' {
			atIdx = i
			break
		}
	}

	if colonIdx > 0 && atIdx > colonIdx {
		return connStr[:colonIdx+1] + "****" + connStr[atIdx:]
	}
	return connStr
}
