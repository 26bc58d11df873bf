package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpAdapter "github.com/finvault/ledger/internal/adapter/http"
	"github.com/finvault/ledger/internal/adapter/http/handler"
	postgresRepo "github.com/finvault/ledger/internal/adapter/repository/postgres"
	redisRepo "github.com/finvault/ledger/internal/adapter/repository/redis"
	"github.com/finvault/ledger/internal/infrastructure/auditrelay"
	"github.com/finvault/ledger/internal/infrastructure/config"
	"github.com/finvault/ledger/internal/infrastructure/logging"
	"github.com/finvault/ledger/internal/infrastructure/metrics"
	"github.com/finvault/ledger/internal/infrastructure/postgres"
	"github.com/finvault/ledger/internal/infrastructure/redis"
	"github.com/finvault/ledger/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Setup logger
	logger := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	zerolog.DefaultContextLogger = &logger
	log.Logger = logger

	ctx := context.Background()

	// Run migrations
	if err := postgres.RunMigrations(logger, cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	// Connect to PostgreSQL
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	// Metrics
	m := metrics.New()

	// Initialize repositories
	txManager := postgresRepo.NewTxManager(pool)
	accountRepo := postgresRepo.NewAccountRepository(pool)
	transactionRepo := postgresRepo.NewTransactionRepository(pool)
	entryRepo := postgresRepo.NewEntryRepository(pool)
	auditRepo := postgresRepo.NewAuditRepository(pool)
	outboxRepo := postgresRepo.NewAuditOutboxRepository(pool)
	holdRepo := postgresRepo.NewHoldRepository(pool)
	retrier := postgresRepo.NewRetrier(logger)
	idGen := postgresRepo.NewULIDGenerator()
	cache := redisRepo.NewCache(redisClient)
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)

	// Initialize use cases
	auditUC := usecase.NewAuditUseCase(auditRepo, idGen, m)
	accountUC := usecase.NewAccountUseCase(accountRepo, auditUC, idGen)
	ledgerUC := usecase.NewLedgerUseCase(
		txManager, accountRepo, transactionRepo, entryRepo, outboxRepo, idGen,
		usecase.WithCache(cache),
		usecase.WithRetrier(retrier),
		usecase.WithMetrics(m),
		usecase.WithExternalAccountID(cfg.ExternalAccountID),
	)
	statementUC := usecase.NewStatementUseCase(accountRepo, transactionRepo, entryRepo)
	reconUC := usecase.NewReconciliationUseCase(accountRepo, entryRepo)
	holdUC := usecase.NewHoldUseCase(txManager, accountRepo, holdRepo, outboxRepo, idGen, m)

	// The clearing account must exist before any deposit or withdrawal.
	if err := ledgerUC.EnsureExternalAccount(ctx, cfg.ExternalAccountCurrency); err != nil {
		log.Fatal().Err(err).Msg("failed to ensure external clearing account")
	}

	// Audit relay drains committed emissions onto the chain.
	relay := auditrelay.New(auditrelay.Config{
		OutboxRepo:        outboxRepo,
		Audit:             auditUC,
		Logger:            logger,
		Metrics:           m,
		BatchSize:         cfg.RelayBatchSize,
		Interval:          cfg.RelayInterval,
		EscalateThreshold: cfg.RelayEscalateThreshold,
	})

	relayCtx, stopRelay := context.WithCancel(ctx)
	defer stopRelay()
	go func() {
		if err := relay.Start(relayCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("audit relay stopped")
		}
	}()

	// Initialize handlers
	accountHandler := handler.NewAccountHandler(accountUC)
	transactionHandler := handler.NewTransactionHandler(ledgerUC)
	statementHandler := handler.NewStatementHandler(statementUC)
	auditHandler := handler.NewAuditHandler(auditUC)
	holdHandler := handler.NewHoldHandler(holdUC)
	ledgerHandler := handler.NewLedgerHandler(reconUC)
	healthHandler := handler.NewHealthHandler(pool, redisClient)

	// Create router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		AccountHandler:     accountHandler,
		TransactionHandler: transactionHandler,
		StatementHandler:   statementHandler,
		AuditHandler:       auditHandler,
		HoldHandler:        holdHandler,
		LedgerHandler:      ledgerHandler,
		HealthHandler:      healthHandler,
		IdempotencyStore:   idempotencyStore,
		Metrics:            m,
		Logger:             logger,
	})

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	stopRelay()

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
