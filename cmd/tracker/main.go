package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fixo-intel/competitor-watch/internal/bot"
	"github.com/fixo-intel/competitor-watch/internal/config"
	"github.com/fixo-intel/competitor-watch/internal/detector"
	"github.com/fixo-intel/competitor-watch/internal/report"
	"github.com/fixo-intel/competitor-watch/internal/repository"
	"github.com/fixo-intel/competitor-watch/internal/repository/sqlite"
	"github.com/fixo-intel/competitor-watch/internal/scraper"
	"github.com/fixo-intel/competitor-watch/internal/services/agent"
)

// Constants for different environment types.
const (
	envLocal = "local"
	envDev   = "development"
	envProd  = "production"
)

const usage = `Usage: tracker <command> [flags]

Commands:
  scan      run one scan over the monitored entities
  status    show the latest stored state per entity
  history   list the stored snapshot history of one entity
  schedule  run scans continuously on a fixed interval
`

// main is the entry point of the application.
func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	// Create a context that will be canceled when an interrupt signal is received.
	// This allows for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var err error
	switch os.Args[1] {
	case "scan":
		err = runScan(ctx, os.Args[2:])
	case "status":
		err = runStatus(ctx, os.Args[2:])
	case "history":
		err = runHistory(ctx, os.Args[2:])
	case "schedule":
		err = runSchedule(ctx, os.Args[2:])
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if err != nil {
		log.Fatalf("tracker %s: %v", os.Args[1], err)
	}
}

// app bundles everything a subcommand needs.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	repo   *sqlite.Repository
	agent  *agent.Agent
}

func setup(ctx context.Context, configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger := setupLogger(cfg.Env)

	if err := os.MkdirAll(filepath.Dir(cfg.Storage.DatabasePath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage dir: %w", err)
	}

	repo, err := sqlite.NewRepository(ctx, logger, cfg.Storage.DatabasePath, cfg.Storage.MaxPerEntity)
	if err != nil {
		return nil, fmt.Errorf("failed to init repository: %w", err)
	}

	registry := scraper.NewRegistry(logger, cfg)
	det := detector.NewDetector(logger)
	reporter := report.NewGenerator(logger, cfg.Storage.ReportsDir)

	return &app{
		cfg:    cfg,
		logger: logger,
		repo:   repo,
		agent:  agent.NewAgent(logger, registry, repo, det, reporter, cfg.EntityIDs()),
	}, nil
}

func (a *app) close() {
	if err := a.repo.Close(); err != nil {
		a.logger.Error("Failed to close repository", "error", err)
	}
}

func runScan(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("scan", flag.ExitOnError)
	configPath := flags.String("config", "config/config.yaml", "path to the configuration file")
	entities := flags.String("entities", "", "comma-separated entity ids (default: all configured)")
	format := flags.String("format", "terminal", "report format: terminal, markdown or json")
	flags.Parse(args)

	application, err := setup(ctx, *configPath)
	if err != nil {
		return err
	}
	defer application.close()

	var entityIDs []string
	if *entities != "" {
		entityIDs = strings.Split(*entities, ",")
	}

	_, rendered, err := application.agent.RunScan(ctx, entityIDs, report.Format(*format))
	if err != nil {
		return err
	}

	fmt.Println(rendered)

	return nil
}

func runStatus(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := flags.String("config", "config/config.yaml", "path to the configuration file")
	entity := flags.String("entity", "", "show a single entity (default: all)")
	flags.Parse(args)

	application, err := setup(ctx, *configPath)
	if err != nil {
		return err
	}
	defer application.close()

	var out any
	if *entity != "" {
		status, err := application.agent.EntityStatus(ctx, *entity)
		if err != nil {
			if errors.Is(err, repository.ErrSnapshotNotFound) {
				fmt.Printf("No data for entity %q. Run a scan first.\n", *entity)
				return nil
			}
			return err
		}
		out = status
	} else {
		statuses, err := application.agent.AllStatus(ctx)
		if err != nil {
			return err
		}
		out = statuses
	}

	encoded, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode status: %w", err)
	}
	fmt.Println(string(encoded))

	return nil
}

func runHistory(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("history", flag.ExitOnError)
	configPath := flags.String("config", "config/config.yaml", "path to the configuration file")
	entity := flags.String("entity", "", "entity id (required)")
	flags.Parse(args)

	if *entity == "" {
		return errors.New("-entity is required")
	}

	application, err := setup(ctx, *configPath)
	if err != nil {
		return err
	}
	defer application.close()

	snapshots, err := application.repo.AllSnapshots(ctx, *entity)
	if err != nil {
		return err
	}
	if len(snapshots) == 0 {
		fmt.Printf("No snapshots stored for entity %q.\n", *entity)
		return nil
	}

	for _, snapshot := range snapshots {
		fmt.Printf("%s  services=%d locations=%d prices=%d promotions=%d\n",
			snapshot.CapturedAt.Format(time.RFC3339),
			len(snapshot.Services), len(snapshot.Locations), len(snapshot.Pricing), len(snapshot.Promotions))
	}

	return nil
}

func runSchedule(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("schedule", flag.ExitOnError)
	configPath := flags.String("config", "config/config.yaml", "path to the configuration file")
	interval := flags.Duration("interval", 0, "scan interval (default: scan_interval from config)")
	format := flags.String("format", "terminal", "report format for broadcast")
	withBot := flags.Bool("bot", false, "deliver reports over Telegram to subscribed chats")
	flags.Parse(args)

	application, err := setup(ctx, *configPath)
	if err != nil {
		return err
	}
	defer application.close()

	logger := application.logger

	every := *interval
	if every == 0 {
		every = application.cfg.Interval
	}

	// Pick up entity changes without a restart between scheduled runs.
	config.Watch(*configPath,
		func(fresh *config.Config) {
			application.agent.SetEntities(fresh.EntityIDs())
			logger.Info("Configuration reloaded", "entities", fresh.EntityIDs())
		},
		func(err error) {
			logger.Error("Configuration reload rejected", "error", err)
		},
	)

	var notifier agent.Notifier
	if *withBot {
		if application.cfg.Tg.Token == "" {
			return errors.New("telegram token is not configured")
		}
		reportBot, err := bot.NewBot(logger, application.cfg.Tg.Token, application.cfg.Tg.Timeout, application.agent, application.repo)
		if err != nil {
			return fmt.Errorf("failed to init bot: %w", err)
		}

		go reportBot.Start()
		defer reportBot.Stop()
		notifier = reportBot
	}

	logger.InfoContext(ctx, "Application started. Press Ctrl+C to stop.")

	if err := application.agent.RunInterval(ctx, every, report.Format(*format), notifier); err != nil {
		return err
	}

	logger.InfoContext(ctx, "Application stopped gracefully.")

	return nil
}

// setupLogger initializes and returns a logger based on the environment provided.
func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelDebug,
				AddSource: true,
			}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelInfo,
				AddSource: false,
			}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelWarn,
				AddSource: false,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					if a.Key == slog.TimeKey {
						return slog.Attr{}
					}
					return a
				},
			}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelError,
				AddSource: false,
			}),
		)

		log.Error(
			"The env parameter was not specified or was invalid. Logging will be minimal, by default.",
			slog.String("available_envs", "local, development, production"))
	}

	return log
}
