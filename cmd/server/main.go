// Package main is the entry point for the CodeHub server.
package main

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/CageChen/codehub/internal/assistant"
	"github.com/CageChen/codehub/internal/config"
	"github.com/CageChen/codehub/internal/handler"
	"github.com/CageChen/codehub/internal/logging"
	"github.com/CageChen/codehub/internal/store"
	"github.com/CageChen/codehub/internal/watcher"
	"github.com/CageChen/codehub/internal/workspace"
)

//go:embed web/*
var webFS embed.FS

// refreshDelay coalesces bursts of disk events into one tree rebuild.
const refreshDelay = 200 * time.Millisecond

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logging.Init(cfg.Log); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logging.Sync() }()
	logger := logging.L()

	logger.Info("CodeHub - browser workspace",
		zap.String("config", cfg.GetConfigFilePath()),
		zap.String("root", cfg.Root),
		zap.String("git_ref", cfg.GitRef),
	)

	st, disk := openStore(cfg)
	ws := workspace.New(st, workspace.WithLogger(logger.Named("workspace")))
	if err := ws.Refresh(context.Background()); err != nil {
		logger.Fatal("Failed to load workspace", zap.Error(err))
	}

	hub := handler.NewHub(ws, logger.Named("ws"))
	ws.OnChange(hub.OnWorkspaceChange)

	// Setup file watcher if enabled
	if cfg.Watch && disk != nil {
		w, err := watcher.New(disk, logger.Named("watcher"))
		if err != nil {
			logger.Warn("failed to create file watcher", zap.Error(err))
		} else {
			refresh := watcher.NewDebouncer(refreshDelay, func() {
				if err := ws.Refresh(context.Background()); err != nil {
					logger.Warn("refresh after disk change failed", zap.Error(err))
				}
			})
			defer refresh.Stop()
			w.OnChange(func(e watcher.Event) {
				hub.OnFileChange(e)
				refresh.Trigger()
			})
			if err := w.Start(); err != nil {
				logger.Warn("failed to start file watcher", zap.Error(err))
			}
			defer func() { _ = w.Stop() }()
			logger.Info("File watcher enabled")
		}
	}

	webContent, err := fs.Sub(webFS, "web")
	if err != nil {
		logger.Fatal("Failed to load web assets", zap.Error(err))
	}

	gin.SetMode(gin.ReleaseMode)
	r := handler.NewRouter(handler.Deps{
		Workspace: ws,
		Store:     st,
		Assistant: assistant.New(cfg.Assistant, assistant.WithLogger(logger.Named("assistant"))),
		Hub:       hub,
		Logger:    logger.Named("http"),
		Web:       webContent,
	})

	// Open browser if requested
	if cfg.Open {
		go openBrowser(fmt.Sprintf("http://localhost:%d", cfg.Port))
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logger.Info("Server starting", zap.String("url", fmt.Sprintf("http://localhost:%d", cfg.Port)))
	if err := r.Run(addr); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

// openStore picks the content store for the configuration. The disk store
// is returned separately so the watcher can follow it.
func openStore(cfg *config.Config) (store.ContentStore, *store.Disk) {
	switch {
	case cfg.InMemory():
		return store.NewMemory(), nil
	case cfg.ReadOnly():
		return store.NewGit(cfg.Root, cfg.GitRef), nil
	}
	disk := store.NewDisk(cfg.Root, cfg.Exclude)
	return disk, disk
}

func openBrowser(url string) {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "windows":
		cmd = "rundll32"
		args = []string{"url.dll,FileProtocolHandler", url}
	case "darwin":
		cmd = "open"
		args = []string{url}
	default: // linux, etc.
		cmd = "xdg-open"
		args = []string{url}
	}

	_ = exec.Command(cmd, args...).Start()
}
