package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/demostudio/demostudio-agent/internal/api"
	"github.com/demostudio/demostudio-agent/internal/assets"
	"github.com/demostudio/demostudio-agent/internal/autosave"
	"github.com/demostudio/demostudio-agent/internal/config"
	"github.com/demostudio/demostudio-agent/internal/db"
	"github.com/demostudio/demostudio-agent/internal/logging"
	"github.com/demostudio/demostudio-agent/internal/media"
	"github.com/demostudio/demostudio-agent/internal/playback"
	"github.com/demostudio/demostudio-agent/internal/probe"
	"github.com/demostudio/demostudio-agent/internal/session"
	"github.com/demostudio/demostudio-agent/internal/store"
	"github.com/demostudio/demostudio-agent/internal/timeline"
	"github.com/demostudio/demostudio-agent/internal/ui"
)

var Version = "0.1.0"

func main() {
	if err := run(); err != nil {
		log.Fatalf("fatal error: %v", err)
	}
}

func run() error {
	startTime := time.Now()

	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := os.MkdirAll(cfg.DataDir(), 0755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}
	if err := os.MkdirAll(cfg.ExportDir(), 0755); err != nil {
		return fmt.Errorf("failed to create export dir: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel())
	logger.Info("starting demostudio agent", "version", Version, "data_dir", cfg.DataDir())

	database, err := db.New(cfg.DBPath(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	repo := store.NewRepository(database.Conn())

	authToken, err := ensureAuthToken(repo)
	if err != nil {
		return fmt.Errorf("failed to ensure auth token: %w", err)
	}

	fmt.Println()
	fmt.Println("╔═══════════════════════════════════════════════════════════╗")
	fmt.Println("║                  DEMOSTUDIO AGENT v0.1.0                  ║")
	fmt.Println("╠═══════════════════════════════════════════════════════════╣")
	fmt.Printf("║  API URL:    http://127.0.0.1:%-27d ║\n", cfg.Port())
	fmt.Printf("║  Auth Token: %-45s ║\n", authToken)
	fmt.Println("╚═══════════════════════════════════════════════════════════╝")
	fmt.Println()

	doc, err := openDocument(repo, logger)
	if err != nil {
		return fmt.Errorf("failed to open project: %w", err)
	}
	logger.Info("project opened", "project_id", doc.Project.ID, "name", doc.Project.Name)

	var prober probe.Prober
	if _, err := exec.LookPath(cfg.FFprobePath()); err == nil {
		prober = probe.NewFFprobe(cfg.FFprobePath(), logger)
	} else {
		logger.Warn("ffprobe not found, asset metadata will be unavailable", "path", cfg.FFprobePath())
		prober = probe.NewStubProber(logger)
	}
	importer := assets.NewImporter(prober, logger)

	bridge := autosave.New(func(ctx context.Context, doc *timeline.Document) error {
		return repo.SaveDocument(ctx, doc)
	}, logger)

	synchronizer := playback.NewSynchronizer(playback.NullHandleFactory, logger)
	sess := session.New(doc, bridge, synchronizer, logger)
	defer sess.Close()

	apiServer := api.NewServer(api.ServerConfig{
		Port:        cfg.Port(),
		Session:     sess,
		Repository:  repo,
		Importer:    importer,
		MediaServer: media.NewServer(logger),
		ExportDir:   cfg.ExportDir(),
		Logger:      logger,
		StartTime:   startTime,
	})

	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	quitCh := make(chan struct{})

	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received shutdown signal", "signal", sig)
			close(quitCh)
		case <-quitCh:
		}
	}()

	if cfg.Headless() {
		logger.Info("running in headless mode (no system tray)")
	} else {
		tray := ui.NewTray(ui.TrayConfig{
			Session: sess,
			Logger:  logger,
			OnSave: func() error {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return repo.SaveDocument(ctx, sess.Snapshot())
			},
			OnQuit: func() {
				close(quitCh)
			},
		})
		go tray.Run()
	}

	<-quitCh

	logger.Info("initiating graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := bridge.Flush(shutdownCtx); err != nil {
		logger.Error("failed to flush pending save", "error", err)
	}
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}

// openDocument loads the most recently updated project, creating a default
// one on first run.
func openDocument(repo store.Repository, logger *slog.Logger) (*timeline.Document, error) {
	ctx := context.Background()

	projects, err := repo.ListProjects(ctx)
	if err != nil {
		return nil, err
	}

	if len(projects) > 0 {
		doc, err := repo.LoadDocument(ctx, projects[0].ID)
		if err == nil {
			return doc, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
	}

	doc := timeline.NewDocument("Untitled Demo", 1920, 1080, 30)
	if err := repo.SaveDocument(ctx, doc); err != nil {
		return nil, err
	}
	logger.Info("created new project", "project_id", doc.Project.ID)
	return doc, nil
}

func ensureAuthToken(repo store.Repository) (string, error) {
	ctx := context.Background()

	existing, err := repo.GetConfig(ctx, "auth_token")
	if err == nil && existing != "" {
		return existing, nil
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	token := hex.EncodeToString(tokenBytes)

	if err := repo.SetConfig(ctx, "auth_token", token); err != nil {
		return "", err
	}

	return token, nil
}
