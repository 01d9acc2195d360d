package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/clip-relay-go/api"
	"github.com/yourusername/clip-relay-go/internal/app"
	"github.com/yourusername/clip-relay-go/internal/domain"
	"github.com/yourusername/clip-relay-go/internal/infrastructure"
	"github.com/yourusername/clip-relay-go/pkg/logger"
)

var configPath = flag.String("config", "", "Path to config file (default: search standard locations)")

func main() {
	flag.Parse()

	config, err := app.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:      config.Logging.Level,
		Format:     config.Logging.Format,
		OutputPath: config.Logging.OutputPath,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting clip-relay server",
		zap.String("version", api.Version),
		zap.String("host", config.Server.Host),
		zap.Int("port", config.Server.Port),
		zap.Bool("instagram_bridge", config.Instagram.Enabled))

	if err := os.MkdirAll(config.Download.TempDir, 0755); err != nil {
		log.Fatal("Failed to create temp directory", zap.Error(err))
	}

	repo, err := infrastructure.NewSQLiteUserLinkRepository(config.Database.Path)
	if err != nil {
		log.Fatal("Failed to initialize repository", zap.Error(err))
	}
	defer repo.Close()

	messenger, err := infrastructure.NewTelegramMessenger(config.Telegram.Token, log)
	if err != nil {
		log.Fatal("Failed to connect to Telegram", zap.Error(err))
	}

	cookiePool := infrastructure.NewCookiePool(config.Download.UserAgent, log)
	extractors := map[domain.Platform]domain.Extractor{
		domain.PlatformYouTube: infrastructure.NewYouTubeExtractor(
			infrastructure.NewCookieClient(cookiePool), log),
		domain.PlatformFacebook:  infrastructure.NewYTDLPExtractor(domain.PlatformFacebook, &config.Resolver, log),
		domain.PlatformLinkedIn:  infrastructure.NewYTDLPExtractor(domain.PlatformLinkedIn, &config.Resolver, log),
		domain.PlatformTikTok:    infrastructure.NewYTDLPExtractor(domain.PlatformTikTok, &config.Resolver, log),
		domain.PlatformInstagram: infrastructure.NewYTDLPExtractor(domain.PlatformInstagram, &config.Resolver, log),
	}

	fetcher := infrastructure.NewHTTPFetcher(config.Download.UserAgent, config.Download.ProgressInterval, log)
	merger := infrastructure.NewFFmpegMerger(&config.Merge, log)
	choices := app.NewChoiceTable(config.Download.ChoiceTTL)
	negotiator := app.NewNegotiator(choices, messenger, log)
	notifier := infrastructure.NewAdminNotifier(messenger, config.Telegram.AdminChatID, log)

	orchestrator := app.NewOrchestrator(
		extractors, fetcher, merger, messenger, negotiator, choices,
		repo, notifier, &config.Download, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bot := infrastructure.NewTelegramBot(messenger, orchestrator, choices, log)
	go bot.Run(ctx)

	if config.Instagram.Enabled {
		inbox := infrastructure.NewInstagramClient(
			config.Instagram.Username, config.Instagram.Password,
			config.Download.UserAgent, log)
		bridge := infrastructure.NewInstagramBridge(
			inbox, repo, orchestrator, config.Telegram.BotUsername,
			config.Instagram.PollInterval, log)
		go func() {
			if err := bridge.Run(ctx); err != nil {
				log.Error("Instagram bridge exited", zap.Error(err))
			}
		}()
	}

	router := api.SetupRouter(orchestrator, repo, log)
	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	notifier.NotifyStarted(api.Version)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Received shutdown signal")

	notifier.NotifyStopped()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}
