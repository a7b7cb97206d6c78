package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/ledgerline/ledgerline/internal/app"
	"github.com/ledgerline/ledgerline/internal/auth"
	"github.com/ledgerline/ledgerline/internal/clients"
	"github.com/ledgerline/ledgerline/internal/compat"
	"github.com/ledgerline/ledgerline/internal/invoices"
	"github.com/ledgerline/ledgerline/internal/observability"
	"github.com/ledgerline/ledgerline/internal/products"
	"github.com/ledgerline/ledgerline/internal/quotations"
	"github.com/ledgerline/ledgerline/internal/receipts"
	"github.com/ledgerline/ledgerline/internal/shared"
	"github.com/ledgerline/ledgerline/internal/statements"
	"github.com/ledgerline/ledgerline/internal/users"
	"github.com/ledgerline/ledgerline/jobs"
	"github.com/ledgerline/ledgerline/report"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := pgxpool.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "ledgerline_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	validate := validator.New(validator.WithRequiredStructEnabled())
	metrics := observability.NewMetrics()

	userRepo := users.NewRepository(dbpool)
	userService := users.NewService(userRepo)
	userHandler := users.NewHandler(logger, userService, validate)

	sessionRepo := auth.NewSessionRepository(dbpool)
	authService := auth.NewService(userRepo, sessionRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager, csrfManager, validate)

	clientRepo := clients.NewRepository(dbpool)
	clientService := clients.NewService(clientRepo)
	clientHandler := clients.NewHandler(logger, clientService, validate)

	productRepo := products.NewRepository(dbpool)
	productService := products.NewService(productRepo)
	productHandler := products.NewHandler(logger, productService, validate)

	invoiceRepo := invoices.NewRepository(dbpool)
	invoiceService := invoices.NewService(invoiceRepo, metrics)
	invoiceHandler := invoices.NewHandler(logger, invoiceService, clientRepo, validate)

	quotationRepo := quotations.NewRepository(dbpool)
	quotationService := quotations.NewService(logger, quotationRepo, clientRepo, productRepo, invoiceService)
	quotationHandler := quotations.NewHandler(logger, quotationService, validate)

	receiptRepo := receipts.NewRepository(dbpool)
	receiptService := receipts.NewService(logger, receiptRepo, metrics)
	receiptHandler := receipts.NewHandler(logger, receiptService, validate)

	statementRepo := statements.NewRepository(dbpool)
	statementService := statements.NewService(logger, statementRepo, clientRepo)
	statementHandler := statements.NewHandler(logger, statementService, validate)

	compatService := compat.NewService(clientService, productService, quotationService, invoiceService)
	compatHandler := compat.NewHandler(logger, compatService)

	reportClient := report.NewClient(cfg.GotenbergURL)
	renderer, err := report.NewRenderer()
	if err != nil {
		logger.Error("parse report templates", slog.Any("error", err))
		os.Exit(1)
	}
	reportHandler := report.NewHandler(logger, reportClient, renderer, quotationService, invoiceService, statementService, userRepo)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobsHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		SessionManager:    sessionManager,
		CSRFManager:       csrfManager,
		AuthService:       authService,
		AuthHandler:       authHandler,
		UsersHandler:      userHandler,
		ClientsHandler:    clientHandler,
		ProductsHandler:   productHandler,
		QuotationsHandler: quotationHandler,
		InvoicesHandler:   invoiceHandler,
		ReceiptsHandler:   receiptHandler,
		StatementsHandler: statementHandler,
		CompatHandler:     compatHandler,
		ReportHandler:     reportHandler,
		JobsHandler:       jobsHandler,
		Metrics:           metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
