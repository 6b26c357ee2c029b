package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/agrichain/subsidy_backend/chain"
	"github.com/agrichain/subsidy_backend/config"
	"github.com/agrichain/subsidy_backend/handlers"
	"github.com/agrichain/subsidy_backend/models"
	"github.com/agrichain/subsidy_backend/utils"
	"github.com/agrichain/subsidy_backend/workflow"
)

const defaultPort = "8080"

// seedOperator creates the initial government login from OPERATOR_USERNAME /
// OPERATOR_PASSWORD. Skipped when either is unset or the account exists.
func seedOperator(store *models.Store, logger *logrus.Logger) {
	username := os.Getenv("OPERATOR_USERNAME")
	password := os.Getenv("OPERATOR_PASSWORD")
	if username == "" || password == "" {
		return
	}
	hashed, err := utils.HashPassword(password)
	if err != nil {
		logger.WithError(err).Fatal("could not hash operator password")
	}
	if err := store.SeedOperator(context.Background(), username, hashed); err != nil {
		logger.WithError(err).Fatal("could not seed operator account")
	}
}

func main() {
	godotenv.Load()
	logger := config.NewLogger()

	chainCfg, err := config.LoadChainConfig()
	if err != nil {
		logger.WithError(err).Fatal("invalid chain configuration")
	}

	db := config.ConnectDatabaseWithRetry()
	if err := models.MigrateTables(db); err != nil {
		logger.WithError(err).Fatal("migration failed")
	}
	store := models.NewStore(db)

	seedOperator(store, logger)

	_, redisLock := config.ConnectRedis()
	locks := workflow.NewKeyLocker(redisLock)

	gateway := chain.NewGateway(chainCfg, logger)
	verifier := chain.NewVerifier(gateway, chainCfg.ProgramAddress)
	extractor := chain.NewExtractor(gateway, logger)
	engine := workflow.NewEngine(store, gateway, verifier, extractor, locks, logger, chainCfg.EventScanFrom)

	router := handlers.BuildRouter(engine, store, logger)

	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	go func() {
		logger.WithField("port", port).Info("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("http server failed")
		}
	}()

	<-sigCtx.Done()
	logger.Info("shutdown signal received, draining")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("shutdown did not complete cleanly")
	}
}
