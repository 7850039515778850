package main

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"telepilot/internal/bot"
	"telepilot/internal/config"
	"telepilot/internal/health"
	"telepilot/internal/logger"
	"telepilot/internal/repository"
	"telepilot/internal/service"
)

const (
	quoteTimeout    = 10 * time.Second
	sweepInterval   = time.Minute
	digestTimeout   = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatal().Err(err).Msg("load .env")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	logger.Init(cfg.LogLevel, cfg.LogPretty)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("db")
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	client, err := bot.NewClient(cfg.TelegramToken, cfg.BroadcastRate)
	if err != nil {
		log.Fatal().Err(err).Msg("telegram")
	}

	directory := service.NewDirectoryService(userRepo, cfg.StoreTimeout)
	limiter := service.NewRateLimiter(cfg.RateLimitWindow, cfg.RateLimitMax)
	broadcaster := service.NewBroadcastService(directory, client, auditRepo, cfg.BroadcastWorkers, cfg.StoreTimeout)
	analytics := service.NewAnalyticsService(directory)
	quotes := service.NewQuoteService(cfg.QuoteAPIURL, &http.Client{Timeout: quoteTimeout})

	router := bot.NewRouter(limiter, directory, cfg.AdminID)
	handlers := bot.NewHandlers(broadcaster, analytics, quotes)
	handlers.Install(router)
	telegramBot := bot.New(client, router)

	scheduler := service.NewSchedulerService(time.UTC)
	if _, err := scheduler.ScheduleInterval(sweepInterval, func() {
		if n := limiter.Sweep(time.Now()); n > 0 {
			log.Debug().Int("removed", n).Int("tracked", limiter.Len()).Msg("rate limiter sweep")
		}
	}); err != nil {
		log.Fatal().Err(err).Msg("schedule limiter sweep")
	}
	if cfg.DigestTime != "" {
		adminChat, ok := cfg.AdminChatID()
		if !ok {
			log.Fatal().Msg("DIGEST_TIME needs ADMIN_ID")
		}
		id, err := scheduler.ScheduleDaily(cfg.DigestTime, func() {
			jobCtx, cancel := context.WithTimeout(context.Background(), digestTimeout)
			defer cancel()
			if err := client.Reply(jobCtx, adminChat, handlers.Digest(jobCtx)); err != nil {
				log.Error().Err(err).Msg("send daily digest")
			}
		})
		if err != nil {
			log.Fatal().Err(err).Msg("schedule daily digest")
		}
		scheduler.Start()
		log.Info().Time("next", scheduler.Next(id)).Msg("daily digest scheduled")
	} else {
		scheduler.Start()
	}
	defer scheduler.Stop()

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.HTTPPort),
		Handler:           health.NewHandler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("liveness endpoint listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("liveness endpoint stopped")
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown http server")
		}
	}()

	log.Info().Msg("Telepilot started")
	if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("bot stopped with error")
	}
	log.Info().Msg("shutdown complete")
}
