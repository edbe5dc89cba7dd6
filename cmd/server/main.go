package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/beatmarket-backend/internal/config"
	"github.com/ignatzorin/beatmarket-backend/internal/db"
	"github.com/ignatzorin/beatmarket-backend/internal/domain/trust"
	"github.com/ignatzorin/beatmarket-backend/internal/goroutine"
	httpHandlers "github.com/ignatzorin/beatmarket-backend/internal/http/handlers"
	httpRouter "github.com/ignatzorin/beatmarket-backend/internal/http/router"
	"github.com/ignatzorin/beatmarket-backend/internal/infrastructure/persistence"
	"github.com/ignatzorin/beatmarket-backend/internal/logger"
	"github.com/ignatzorin/beatmarket-backend/internal/metrics"
	"github.com/ignatzorin/beatmarket-backend/internal/notify"
	"github.com/ignatzorin/beatmarket-backend/internal/service"
	"github.com/ignatzorin/beatmarket-backend/internal/storage"
	"github.com/ignatzorin/beatmarket-backend/internal/usecase/account"
	"github.com/ignatzorin/beatmarket-backend/internal/usecase/dispute"
	"github.com/ignatzorin/beatmarket-backend/internal/usecase/escrow"
	"github.com/ignatzorin/beatmarket-backend/internal/usecase/verification"
	"github.com/ignatzorin/beatmarket-backend/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("main: ошибка загрузки конфигурации")
	}

	logger.Init(cfg.LogLevel)
	if !cfg.IsProduction() {
		logger.SetTextFormatter()
	}
	log := logger.Get()

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL, db.PoolConfig{MaxOpenConns: cfg.DBMaxOpenConns})
	if err != nil {
		log.WithError(err).Fatal("main: ошибка подключения к базе")
	}
	defer safeClose(dbConn, log)

	applied, err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath, log)
	if err != nil {
		log.WithError(err).Fatal("main: ошибка миграций")
	}
	log.WithField("applied", applied).Info("main: миграции проверены")

	documents, err := storage.NewEvidenceStorage(cfg.EvidenceStoragePath, cfg.MaxUploadSizeMB)
	if err != nil {
		log.WithError(err).Fatal("main: не удалось подготовить хранилище документов")
	}

	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.RefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	m := metrics.Marketplace()
	engine := trust.NewEngine(time.Now)

	// Репозитории.
	accounts := persistence.NewAccountRepositoryAdapter(dbConn)
	audits := persistence.NewTrustAuditRepositoryAdapter(dbConn)
	requests := persistence.NewVerificationRequestRepositoryAdapter(dbConn)
	escrows := persistence.NewEscrowRepositoryAdapter(dbConn)
	disputes := persistence.NewDisputeRepositoryAdapter(dbConn)
	tx := persistence.NewTxManager(dbConn)

	// Уведомления: websocket всегда, webhook если настроен.
	hub := ws.NewHub(ctx, log)
	goroutine.SafeGo(hub.Run)

	sinks := []notify.Sink{notify.Named("websocket", ws.NewNotifierAdapter(hub))}
	if cfg.NotifyWebhookURL != "" {
		sinks = append(sinks, notify.NewWebhookSink(cfg.NotifyWebhookURL, cfg.NotifyWebhookSecret, cfg.NotifyWebhookTimeout))
	}
	notifier := notify.NewDispatcher(log, m, sinks...).Async()

	// Сценарии.
	accountDeps := account.Deps{
		Accounts: accounts,
		Requests: requests,
		Escrows:  escrows,
		Tx:       tx,
		Tokens:   tokenManager,
		Log:      log.WithField("component", "account"),
	}
	verificationDeps := verification.Deps{
		Accounts: accounts,
		Requests: requests,
		Audits:   audits,
		Tx:       tx,
		Engine:   engine,
		Notifier: notifier,
		Metrics:  m,
		Log:      log.WithField("component", "verification"),
	}
	escrowDeps := escrow.Deps{
		Accounts: accounts,
		Escrows:  escrows,
		Disputes: disputes,
		Notifier: notifier,
		Metrics:  m,
		Log:      log.WithField("component", "escrow"),
	}
	disputeDeps := dispute.Deps{
		Disputes: disputes,
		Escrows:  escrows,
		Accounts: accounts,
		Escrow:   escrow.NewTransitionEscrowUseCase(escrowDeps),
		Engine:   engine,
		Notifier: notifier,
		Metrics:  m,
		Log:      log.WithField("component", "dispute"),
	}

	if cfg.EscrowAutoReleaseInterval > 0 {
		releaser := escrow.NewAutoReleaser(escrowDeps)
		goroutine.SafeGoWithContext(ctx, func(ctx context.Context) {
			releaser.Run(ctx, cfg.EscrowAutoReleaseInterval)
		})
	}

	// HTTP.
	router := httpRouter.SetupRouter(httpRouter.Options{
		Config: cfg,
		Handlers: httpRouter.Handlers{
			Auth:         httpHandlers.NewAuthHandler(accountDeps),
			Verification: httpHandlers.NewVerificationHandler(verificationDeps, documents),
			Escrow:       httpHandlers.NewEscrowHandler(escrowDeps),
			Dispute:      httpHandlers.NewDisputeHandler(disputeDeps),
			Admin:        httpHandlers.NewAdminHandler(verificationDeps, documents),
			Health:       httpHandlers.NewHealthHandler(dbConn),
			WS:           httpHandlers.NewWSHandler(hub, tokenManager, cfg.AllowedOrigins, log),
		},
		Tokens:  tokenManager,
		Metrics: m,
		Log:     log,
	})

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Завершаем сервер при получении сигнала.
	goroutine.SafeGo(func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("main: ошибка остановки http сервера")
		}
	})

	log.WithField("port", cfg.HTTPPort).Info("main: HTTP сервер запущен")

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Fatal("main: сервер завершился с ошибкой")
	}

	// Даём фоновым уведомлениям дойти до получателей.
	waitCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := notifier.Wait(waitCtx); err != nil {
		log.WithError(err).Warn("main: не все уведомления доставлены до остановки")
	}
}

// safeClose закрывает соединение с базой.
func safeClose(conn *sqlx.DB, log logrus.FieldLogger) {
	if err := conn.Close(); err != nil {
		log.WithError(err).Error("main: ошибка закрытия базы")
	}
}
