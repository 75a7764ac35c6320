package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"aura-protocol-go/internal/config"
	"aura-protocol-go/internal/db"
	"aura-protocol-go/internal/handler"
	"aura-protocol-go/internal/mailbox"
	"aura-protocol-go/internal/metrics"
	"aura-protocol-go/internal/network"
	"aura-protocol-go/internal/repository"
	"aura-protocol-go/internal/router"
	"aura-protocol-go/internal/scheduler"
	"aura-protocol-go/internal/service"
	"aura-protocol-go/internal/store"
	"aura-protocol-go/internal/transaction"
	"aura-protocol-go/internal/wallet"
	"aura-protocol-go/internal/wallet/bridge"
)

const bridgePollInterval = 2 * time.Second

// Run initializes and starts the application
func Run() error {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetLevel(logrus.InfoLevel)

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		logrus.SetLevel(level)
	} else {
		logrus.Warnf("Unknown log level %q, using info", cfg.Log.Level)
	}

	logrus.WithFields(logrus.Fields{
		"network": cfg.Network.Name,
		"program": cfg.Network.ProgramID,
	}).Info("Starting Aura Protocol agent")

	dbConn, err := db.Init(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	repo := repository.New(dbConn)

	m := metrics.NewMetrics(nil)
	st := store.New()
	chain := network.NewClient(cfg.Network)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gateway := newGateway(ctx, cfg)
	gateway.OnDisconnect(st.Clear)

	var box mailbox.Source
	if cfg.Mailbox.Enabled {
		box, err = mailbox.New(ctx, cfg.Mailbox)
		if err != nil {
			return fmt.Errorf("failed to open mailbox: %w", err)
		}
	}

	svc := service.New(service.Deps{
		Wallet:  gateway,
		Chain:   chain,
		Repo:    repo,
		Mailbox: box,
		Store:   st,
		Builder: transaction.NewBuilder(cfg.Network.ProgramID, cfg.Network.ChainID),
		Metrics: m,
		Polling: cfg.Polling,
	})

	sched := scheduler.NewScheduler(&cfg.Scheduler, chain, st, m)

	h := handler.NewHandlers(svc, sched, repo)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router.SetupRouter(h),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	// Populate network status and pool liquidity before the first tick.
	go func() {
		if err := sched.RunOnce(ctx); err != nil {
			logrus.WithError(err).Warn("Initial chain refresh failed")
		}
	}()

	go func() {
		logrus.Infof("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := sched.Stop(); err != nil {
		logrus.Errorf("Failed to stop scheduler: %v", err)
	}
	sched.Wait()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("HTTP server shutdown error: %v", err)
	}

	if err := gateway.Disconnect(shutdownCtx); err != nil {
		logrus.Errorf("Failed to disconnect wallet: %v", err)
	}
	if box != nil {
		if err := box.Close(); err != nil {
			logrus.Errorf("Failed to close mailbox: %v", err)
		}
	}

	if err := db.Close(dbConn); err != nil {
		logrus.Errorf("Failed to close database: %v", err)
	}

	logrus.Info("Server stopped gracefully")
	return nil
}

// newGateway builds the wallet gateway. Without a bridge URL there is no
// wallet extension and every wallet call reports it as not installed.
func newGateway(ctx context.Context, cfg *config.Config) *wallet.Gateway {
	opts := wallet.Options{
		DecryptPermission: cfg.Wallet.DecryptPermission,
		Network:           cfg.Network.ChainID,
		Programs:          []string{cfg.Network.ProgramID, network.CreditsProgram},
		InstallURL:        cfg.Wallet.InstallURL,
		RequestTimeout:    cfg.Wallet.RequestTimeout,
		ReconnectPause:    500 * time.Millisecond,
	}

	if cfg.Wallet.BridgeURL == "" {
		logrus.Warn("No wallet bridge configured")
		return wallet.NewGateway(nil, opts)
	}

	client := bridge.New(cfg.Wallet.BridgeURL, cfg.Wallet.RequestTimeout)
	go client.Listen(ctx, bridgePollInterval)
	logrus.WithField("bridge_url", cfg.Wallet.BridgeURL).Info("Using wallet bridge")
	return wallet.NewGateway(client, opts)
}
