package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lazypower/keepsake/internal/config"
	"github.com/lazypower/keepsake/internal/engine"
	"github.com/lazypower/keepsake/internal/llm"
	"github.com/lazypower/keepsake/internal/server"
	"github.com/lazypower/keepsake/internal/store"
	"github.com/lazypower/keepsake/internal/undo"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	// A local .env is optional; real env vars win either way
	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Resolve database path
	dbPath := cfg.Database.Path
	if dbPath == "" {
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			return fmt.Errorf("resolve db path: %w", err)
		}
	}

	db, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	llmClient, err := llm.NewClient(cfg.LLM)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: LLM not configured (%v), extraction and chat disabled\n", err)
	} else {
		fmt.Fprintf(os.Stderr, "  llm: %s\n", cfg.LLM.Provider)
	}

	undoCache := undo.New(time.Duration(cfg.Undo.TTLSeconds) * time.Second)
	undoCache.StartSweeper(5 * time.Second)
	defer undoCache.Stop()

	eng := engine.New(db, llmClient, undoCache)
	eng.TopK = cfg.Retrieval.TopK

	srv := server.New(db, eng, VersionString())
	addr := cfg.ListenAddr()

	httpServer := &http.Server{
		Addr:    addr,
		Handler: srv,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		fmt.Fprintf(os.Stderr, "keepsake serving on %s\n", addr)
		fmt.Fprintf(os.Stderr, "  db: %s\n", dbPath)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "server error: %v\n", err)
			os.Exit(1)
		}
	}()

	<-done
	fmt.Fprintln(os.Stderr, "\nshutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return httpServer.Shutdown(ctx)
}
