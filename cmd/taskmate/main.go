package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ashik0401/task-mate-client/internal/api"
	"github.com/ashik0401/task-mate-client/internal/app"
	"github.com/ashik0401/task-mate-client/internal/cache"
	"github.com/ashik0401/task-mate-client/internal/engine"
	"github.com/ashik0401/task-mate-client/internal/feed"
	"github.com/ashik0401/task-mate-client/internal/logger"
	"github.com/ashik0401/task-mate-client/internal/model"
	"github.com/ashik0401/task-mate-client/internal/session"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "taskmate: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", model.DefaultConfigPath(), "path to config file")
	flag.Parse()

	cfg, err := model.LoadConfig(*configPath)
	if err != nil {
		return err
	}

	logClose, err := logger.Setup(cfg.Log.File, logger.ParseLevel(cfg.Log.Level))
	if err != nil {
		return err
	}
	if logClose != nil {
		defer logClose.Close()
	}

	client := api.NewClient(cfg.Server.BaseURL)
	provider := session.NewAPIProvider(client)

	monitor := session.NewMonitor(context.Background(), provider)
	monitor.Start(time.Duration(cfg.Session.PollIntervalSec) * time.Second)
	defer monitor.Stop()

	var taskCache engine.Cache
	if cfg.CachePath != "" {
		c, err := cache.Open(cfg.CachePath)
		if err != nil {
			slog.Warn("task cache unavailable", "error", err)
		} else {
			taskCache = c
			defer c.Close()
		}
	}

	eng := engine.New(engine.Config{
		Feed:            feed.NewSSEFeed(cfg.Server.BaseURL),
		ScopePolicy:     cfg.Feed.Scope,
		Monitor:         monitor,
		Loader:          client,
		Cache:           taskCache,
		NotificationTTL: time.Duration(cfg.Notifications.TTLMillis) * time.Millisecond,
	})
	eng.Start()
	defer eng.Close()

	program := tea.NewProgram(
		app.New(eng, client, provider, monitor),
		tea.WithAltScreen(),
	)
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running UI: %w", err)
	}
	return nil
}
