package main

import (
	"context"
	"encoding/hex"
	"log"
	"net/http"

	"github.com/coinport/backoffice/config"
	"github.com/coinport/backoffice/internal/auth"
	handler "github.com/coinport/backoffice/internal/handler/http"
	"github.com/coinport/backoffice/internal/middleware"
	"github.com/coinport/backoffice/internal/notify"
	"github.com/coinport/backoffice/internal/repository"
	"github.com/coinport/backoffice/internal/repository/postgres"
	"github.com/coinport/backoffice/internal/service"
	"github.com/coinport/backoffice/internal/worker"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// newLogger creates logger with log level
func newLogger(level string) (*zap.Logger, error) {

	loggerLvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	loggerCfg := zap.NewProductionConfig()
	loggerCfg.Level = loggerLvl

	return loggerCfg.Build()
}

func main() {

	// create new config
	cfg, err := config.New()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	// initialize logger
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Error initializing logger: %v", err)
	}
	defer logger.Sync()

	// create context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// initialize database
	db, err := postgres.New(ctx, cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("Error initializing database", zap.Error(err))
	}
	defer db.Close()

	// migrate database
	if err := db.Migrate(); err != nil {
		logger.Fatal("Error migrating database", zap.Error(err))
	}

	tokenKey, err := hex.DecodeString(cfg.AuthTokenKeyHex)
	if err != nil {
		logger.Fatal("Error extracting token key", zap.Error(err))
	}
	token := auth.NewAuthToken(tokenKey)

	// dependency injection
	// notifications
	notifyRepo := repository.NewNotificationRepository(db)
	mailer := notify.NewLogMailer(logger)
	dispatcher := worker.NewNotificationDispatcher(notifyRepo, mailer, logger, cfg.NotifyInterval)

	// user
	userRepo := repository.NewUserRepository(db)
	walletRepo := repository.NewWalletRepository(db)
	userService := service.NewUserService(userRepo, walletRepo)
	authService := service.NewAuthService(userRepo, token)
	userHandler := handler.NewUserHandler(userService, authService)

	// wallet
	walletService := service.NewWalletService(walletRepo, logger)
	walletHandler := handler.NewWalletHandler(walletService)

	// withdrawal lifecycle
	withdrawalRepo := repository.NewWithdrawalRepository(db)
	withdrawalService := service.NewWithdrawalService(withdrawalRepo, notifyRepo, logger, cfg.RefundOnRevert)
	withdrawalHandler := handler.NewWithdrawalHandler(withdrawalService)

	// deposit and invoice requests
	requestRepo := repository.NewRequestRepository(db)
	requestService := service.NewRequestService(requestRepo, notifyRepo, logger)
	requestHandler := handler.NewRequestHandler(requestService)

	// resource library
	resourceRepo := repository.NewResourceRepository(db)
	resourceService := service.NewResourceService(resourceRepo)
	resourceHandler := handler.NewResourceHandler(resourceService)

	go dispatcher.Run(ctx)

	router := chi.NewRouter()

	router.Use(middleware.Logging(logger))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Post("/api/user/register", userHandler.RegisterUser())
	router.Post("/api/user/login", userHandler.LoginUser())

	// routes that require authentication
	router.Group(func(group chi.Router) {
		group.Use(middleware.Auth(token))
		group.Delete("/api/user", userHandler.DeleteAccount())
		group.Get("/api/user/balance", walletHandler.GetUserBalance())
		group.Post("/api/user/withdrawals", withdrawalHandler.SubmitWithdrawal())
		group.Post("/api/user/deposits", requestHandler.SubmitDeposit())
		group.Post("/api/user/invoices", requestHandler.SubmitInvoice())
		group.Get("/api/resources", resourceHandler.ListResources())
	})

	// routes that require the admin role
	router.Group(func(group chi.Router) {
		group.Use(middleware.Auth(token))
		group.Use(middleware.AdminOnly())
		group.Get("/api/admin/withdrawal-requests", withdrawalHandler.ListWithdrawalRequests())
		group.Get("/api/admin/withdrawals", withdrawalHandler.ListWithdrawals())
		group.Get("/api/admin/withdrawal-requests/live", withdrawalHandler.StreamWithdrawalRequests(cfg.WatchInterval))
		group.Get("/api/admin/withdrawals/live", withdrawalHandler.StreamWithdrawals(cfg.WatchInterval))
		group.Get("/api/admin/withdrawals/search", withdrawalHandler.SearchWithdrawals())
		group.Post("/api/admin/withdrawal-requests/{id}/confirm", withdrawalHandler.ConfirmWithdrawal())
		group.Post("/api/admin/withdrawal-requests/{id}/revert", withdrawalHandler.RevertWithdrawalRequest())
		group.Post("/api/admin/withdrawals/{id}/revert", withdrawalHandler.RevertWithdrawal())
		group.Get("/api/admin/deposits", requestHandler.ListDeposits())
		group.Post("/api/admin/deposits/{id}/confirm", requestHandler.ConfirmDeposit())
		group.Get("/api/admin/invoices", requestHandler.ListInvoices())
		group.Post("/api/admin/invoices/{id}/paid", requestHandler.MarkInvoicePaid())
		group.Post("/api/admin/resources", resourceHandler.CreateResource())
		group.Put("/api/admin/resources/{id}", resourceHandler.UpdateResource())
		group.Delete("/api/admin/resources/{id}", resourceHandler.DeleteResource())
	})

	logger.Info("Running server", zap.String("addr", cfg.ServerAddr))

	if err := http.ListenAndServe(cfg.ServerAddr, router); err != nil {
		logger.Fatal("Error starting server", zap.Error(err))
	}
}
