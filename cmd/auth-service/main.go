package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bizhub-platform/auth-service/internal/cache"
	"github.com/bizhub-platform/auth-service/internal/config"
	"github.com/bizhub-platform/auth-service/internal/events"
	"github.com/bizhub-platform/auth-service/internal/jwks"
	"github.com/bizhub-platform/auth-service/internal/service"
	"github.com/bizhub-platform/auth-service/internal/storage"
	"github.com/bizhub-platform/auth-service/internal/storage/postgres"
	"github.com/bizhub-platform/auth-service/internal/verifier"
)

// Константы для определения окружения.
const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	cfg := config.MustLoad(configPath)

	log := setupLogger(cfg.Env)
	slog.SetDefault(log)
	log.Info("starting application", "env", cfg.Env)

	// Корневой контекст по сигналам.
	rootCtx, rootCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer rootCancel()

	// Подключение к БД c таймаутом.
	dbCtx, dbCancel := context.WithTimeout(rootCtx, 10*time.Second)
	str, err := postgres.New(dbCtx, cfg.DB.DatabaseURL)
	dbCancel()
	if err != nil {
		log.Error("postgres_connect_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}
	log.Info("postgres_connected")

	// Сервис подписи.
	srvc, err := service.New(rootCtx, str, cfg.Auth)
	if err != nil {
		log.Error("service_init_failed", slog.String("err", err.Error()))
		str.Close()
		os.Exit(1)
	}
	log.Info("service_initialized")

	// Кэш погашенных refresh-токенов (опционален).
	if cfg.Redis.RedisURL != "" {
		ccache, err := cache.NewRedisCache(cfg.Redis.RedisURL, "")
		if err != nil {
			log.Error("redis_connect_failed", slog.String("err", err.Error()))
			str.Close()
			os.Exit(1)
		}
		defer ccache.Close()
		srvc.SetConsumedCache(ccache)
		log.Info("redis_connected")
	}

	// Шина событий активности (опциональна).
	if len(cfg.Events.Brokers) > 0 {
		pub := events.NewKafkaPublisher(events.KafkaConfig{
			Brokers:  cfg.Events.Brokers,
			Topic:    cfg.Events.Topic,
			DLQTopic: cfg.Events.DLQTopic,
		})
		defer func() { _ = pub.Close() }()
		srvc.SetPublisher(pub)
		log.Info("kafka_publisher_initialized", "topic", cfg.Events.Topic)
	}

	// Webhook для алертов о подозрительной активности (опционален).
	if cfg.Events.AlertWebhookURL != "" {
		srvc.SetAlerter(events.NewAlerter(cfg.Events.AlertWebhookURL))
	}

	// Верификатор токенов: при наличии JWKS-эндпоинта — с фоновым обновлением.
	var fetcher verifier.Fetcher
	if cfg.Auth.JWKSURL != "" {
		fetcher = jwks.NewClient(cfg.Auth.JWKSURL)
	}
	vrf := verifier.New(verifier.Config{
		Issuer:   cfg.Auth.Issuer,
		Audience: cfg.Auth.Audience,
		Leeway:   cfg.Auth.Leeway(),
	}, fetcher)

	if fetcher != nil {
		refreshCtx, refreshCancel := context.WithTimeout(rootCtx, 10*time.Second)
		n, err := vrf.RefreshJWKS(refreshCtx)
		refreshCancel()
		if err != nil {
			// Старт без ключей допустим: следующая итерация цикла может дотянуться.
			log.Warn("jwks_initial_refresh_failed", slog.String("err", err.Error()))
		} else {
			log.Info("jwks_loaded", "keys", n)
		}
		go vrf.RunRefreshLoop(rootCtx, cfg.Auth.JWKSRefreshInterval)
	}

	var ready int32 // 0 — not ready; 1 — ready
	httpAddr := cfg.Ops.Addr()

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if atomic.LoadInt32(&ready) == 1 {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
			return
		}
		http.Error(w, "not ready", http.StatusServiceUnavailable)
	})

	mux.Handle("/metrics", promhttp.Handler())

	httpSrv := &http.Server{
		Addr:              httpAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("http_listen_start", "addr", httpAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http_serve_failed", slog.String("err", err.Error()))
		}
	}()

	// Фоновая очистка просроченных refresh-токенов.
	startRefreshJanitor(rootCtx, str, log, 30*time.Minute, cfg.Timeouts.Service)

	atomic.StoreInt32(&ready, 1)
	log.Info("service_ready", "keys", vrf.KeyCount())

	// Ожидание сигнала завершения.
	<-rootCtx.Done()
	log.Info("shutdown_requested")

	atomic.StoreInt32(&ready, 0)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	_ = httpSrv.Shutdown(shutdownCtx)
	shutdownCancel()

	str.Close()

	log.Info("service_stopped")
}

// setupLogger настраивает slog по окружению.
func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	}

	return log
}

// startRefreshJanitor запускает фоновую задачу, которая периодически удаляет
// просроченные refresh-токены из хранилища.
func startRefreshJanitor(ctx context.Context, str storage.Storage, log *slog.Logger, period, opTimeout time.Duration) {
	if period <= 0 {
		return
	}

	go func() {
		t := time.NewTicker(period)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				opCtx, cancel := context.WithTimeout(ctx, opTimeout)
				err := str.DeleteExpiredRefreshTokens(opCtx, time.Now().UTC())
				cancel()
				if err != nil {
					log.Error("refresh_janitor_failed", slog.String("err", err.Error()))
				}
			}
		}
	}()
}
