package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/susu3304/kongklang/internal/api"
	"github.com/susu3304/kongklang/internal/bot"
	"github.com/susu3304/kongklang/internal/commands"
	"github.com/susu3304/kongklang/internal/config"
	"github.com/susu3304/kongklang/internal/db"
	"github.com/susu3304/kongklang/internal/db/sqlite"
	"github.com/susu3304/kongklang/internal/events"
	"github.com/susu3304/kongklang/internal/ledger"
	"github.com/susu3304/kongklang/internal/line"
	"github.com/susu3304/kongklang/internal/logging"
	"github.com/susu3304/kongklang/internal/metrics"
	"github.com/susu3304/kongklang/internal/names"
)

// schemaStore is a ledger.Store that can create its own tables.
type schemaStore interface {
	ledger.Store
	InitSchema(ctx context.Context) error
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.LogLevel)

	ctx := context.Background()

	// Connect to database
	store, err := openStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if err := store.InitSchema(ctx); err != nil {
		slog.Error("failed to initialise schema", "error", err)
		os.Exit(1)
	}

	m := metrics.New()
	bookOpts := []ledger.Option{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher := events.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer publisher.Close()
		bookOpts = append(bookOpts, ledger.WithPublisher(publisher))
		slog.Info("publishing ledger events", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}
	book := ledger.NewBook(store, cfg.Location, bookOpts...)

	pending := commands.NewPendingDeletions(cfg.DeleteConfirmWindow)
	pending.Start()
	defer pending.Stop()

	dispatchOpts := []commands.DispatcherOption{commands.WithMetrics(m)}
	if cfg.AdminEnabled() {
		dispatchOpts = append(dispatchOpts, commands.WithExportBase(cfg.PublicBaseURL))
	}
	nameOpts := []names.Option{
		names.WithTTL(cfg.NameCacheTTL, cfg.NameFailureTTL),
		names.WithObserver(m.ObserveNameLookup),
	}

	// LINE webhook
	var lineDispatcher api.Dispatcher
	var lineClient api.Replier
	if cfg.LineEnabled() {
		httpClient, err := line.NewHTTPClient(ctx, line.Credentials{
			Token:         cfg.LineChannelToken,
			ChannelID:     cfg.LineChannelID,
			ChannelSecret: cfg.LineChannelSecret,
		})
		if err != nil {
			slog.Error("failed to set up LINE credentials", "error", err)
			os.Exit(1)
		}
		httpClient.Timeout = cfg.EventTimeout
		client := line.NewClient(httpClient)
		lineClient = client
		lineDispatcher = commands.NewDispatcher(book, names.NewResolver(client, nameOpts...), pending,
			append(dispatchOpts, commands.WithMessageLimit(commands.LineMessageLimit))...)
	}

	// Discord bot (optional)
	if cfg.DiscordToken != "" {
		session, err := bot.NewSession(cfg.DiscordToken)
		if err != nil {
			slog.Error("failed to create discord bot", "error", err)
			os.Exit(1)
		}
		dispatcher := commands.NewDispatcher(book, names.NewResolver(bot.NewProfileLookup(session), nameOpts...), pending,
			append(dispatchOpts, commands.WithMessageLimit(commands.DiscordMessageLimit))...)
		discordBot := bot.New(session, dispatcher, cfg.EventTimeout)
		if err := discordBot.Start(); err != nil {
			slog.Error("failed to start discord bot", "error", err)
			os.Exit(1)
		}
		defer discordBot.Stop()
	}

	// Start API server
	apiServer := api.New(cfg, book, lineDispatcher, lineClient, m)
	go func() {
		if err := apiServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("API server error", "error", err)
		}
	}()

	// Wait for signal to stop
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.EventTimeout+5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		slog.Warn("API server shutdown incomplete", "error", err)
	}
}

func openStore(ctx context.Context, cfg *config.Config) (schemaStore, error) {
	if cfg.UsesPostgres() {
		return db.New(ctx, cfg.DatabaseURL)
	}
	slog.Info("using SQLite database", "path", cfg.DatabaseURL)
	return sqlite.New(cfg.DatabaseURL)
}
