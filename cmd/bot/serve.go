package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ignatzorin/scam-report-bot/internal/bot"
	"github.com/ignatzorin/scam-report-bot/internal/conversation"
	"github.com/ignatzorin/scam-report-bot/internal/db"
	"github.com/ignatzorin/scam-report-bot/internal/gateway"
	"github.com/ignatzorin/scam-report-bot/internal/goroutine"
	httpHandlers "github.com/ignatzorin/scam-report-bot/internal/http/handlers"
	httpRouter "github.com/ignatzorin/scam-report-bot/internal/http/router"
	"github.com/ignatzorin/scam-report-bot/internal/logger"
	"github.com/ignatzorin/scam-report-bot/internal/repository"
	"github.com/ignatzorin/scam-report-bot/internal/scheduler"
	"github.com/ignatzorin/scam-report-bot/internal/service"
	"github.com/ignatzorin/scam-report-bot/internal/telegram"
	"github.com/ignatzorin/scam-report-bot/internal/usecase/moderation"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run migrations, the bot, the health endpoint and the export scheduler",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.SentryDSN,
			Environment: cfg.Env,
		}); err != nil {
			logger.Log.WithError(err).Error("sentry init failed")
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}
	recovery := goroutine.NewRecoveryHandler(logger.Log)

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer safeClose(dbConn)

	if _, err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		return err
	}

	// Хранилище диалогов: Redis, если задан, иначе память процесса.
	var (
		states      conversation.Store = conversation.NewMemoryStore()
		redisClient *redis.Client
	)
	if cfg.RedisURL != "" {
		redisClient, err = conversation.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer safeClose(redisClient)
		states = conversation.NewRedisStore(redisClient)
	}

	tg, err := telegram.New(cfg.TelegramToken, cfg.PollTimeout, logger.Log)
	if err != nil {
		return err
	}
	logger.Log.WithField("bot", tg.Username()).Info("connected to telegram")

	// Репозитории.
	reportRepo := repository.NewReportRepository(dbConn)
	blacklistRepo := repository.NewBlacklistRepository(dbConn)

	// Сервисы.
	gating := service.NewGatingService(tg, blacklistRepo, cfg.MembershipChannel)
	exports := service.NewExportService(reportRepo, tg)
	resolver := gateway.NewChainResolver(logger.Log, tg, gateway.NewCommandResolver(cfg.ResolverCommand, cfg.ResolverTimeout))

	machine := conversation.NewMachine(states, gating, reportRepo, tg, resolver, cfg.ReviewGroup)
	decide := moderation.NewDecideReportUseCase(reportRepo, blacklistRepo, tg, moderation.Surfaces{
		Review: cfg.ReviewGroup,
		Public: cfg.MainChannel,
	})

	dispatcher := bot.NewDispatcher(bot.Deps{
		Messenger:    tg,
		Conversation: machine,
		Moderator:    decide,
		Lookup:       service.NewReportService(reportRepo, cfg.LookupLimit),
		Blacklist:    service.NewBlacklistService(blacklistRepo, tg),
		Exporter:     exports,
		Throttle:     bot.NewThrottle(cfg.RateLimitLimit, cfg.RateLimitPeriod),
		Recovery:     recovery,
		Review:       cfg.ReviewGroup,
		MaintainerID: cfg.AdminID,
	})

	sched, err := scheduler.New(cfg.ExportSchedule, exports, gateway.User(cfg.AdminID), recovery)
	if err != nil {
		return err
	}

	recovery.SafeGo("set commands", func() {
		if err := tg.SetCommands(ctx, bot.Commands()); err != nil {
			logger.Log.WithError(err).Warn("failed to register bot commands")
		}
	})

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           httpRouter.SetupRouter(!cfg.IsDevelopment(), httpHandlers.NewHealthHandler(dbConn, redisClient)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Log.Info("bot polling started")
		err := dispatcher.Run(gctx, tg.Updates(gctx))
		switch {
		case errors.Is(err, context.Canceled):
			return nil
		case err == nil && gctx.Err() == nil:
			return errors.New("telegram: update stream closed")
		}
		return err
	})

	g.Go(func() error {
		logger.Log.Infof("health endpoint listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if sched != nil {
		g.Go(func() error { return sched.Run(gctx) })
	}

	err = g.Wait()
	logger.Log.Info("bot stopped")
	return err
}

func safeClose(c io.Closer) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		logger.Log.WithError(err).Warn("close failed")
	}
}
