package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/todo/internal/ui"
	"github.com/fastygo/todo/pkg/logger"
	"github.com/fastygo/todo/pkg/todoclient"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := flag.NewFlagSet("todo-tui", flag.ContinueOnError)
	configPath := flags.String("config", ui.DefaultConfigPath(), "path to the TOML config file")
	apiURL := flags.String("api", "", "todo API base URL (overrides config)")
	if err := flags.Parse(args); err != nil {
		return err
	}

	cfg, err := ui.LoadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if *apiURL != "" {
		cfg.APIURL = *apiURL
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.LogLevel,
		Encoding: "json",
		Output:   cfg.LogFile,
	})
	if err != nil {
		return fmt.Errorf("logger error: %w", err)
	}
	defer zapLogger.Sync()

	client := todoclient.New(cfg.APIURL,
		todoclient.WithToken(cfg.Token),
		todoclient.WithHTTPClient(&fasthttp.Client{
			Name:         "todo-tui",
			ReadTimeout:  cfg.Timeout,
			WriteTimeout: cfg.Timeout,
		}),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	zapLogger.Info("starting", zap.String("api", cfg.APIURL))
	p := tea.NewProgram(ui.NewModel(ctx, client, zapLogger), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		zapLogger.Error("ui exited with error", zap.Error(err))
		return err
	}
	return nil
}
