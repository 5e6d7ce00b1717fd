package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/zeroidhq/zeroid-core/internal/api/admin"
	apihttp "github.com/zeroidhq/zeroid-core/internal/api/http"
	"github.com/zeroidhq/zeroid-core/internal/api/http/middleware"
	"github.com/zeroidhq/zeroid-core/internal/bootstrap"
	"github.com/zeroidhq/zeroid-core/internal/config"
	"github.com/zeroidhq/zeroid-core/internal/log"
)

// rateLimit and rateWindow implement spec.md's fixed "100 req / 60 s" per
// API key rule; unlike the other ambient settings this is not
// environment-configurable.
const (
	rateLimit  = 100
	rateWindow = 60 * time.Second
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the public API and internal management HTTP servers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	logger, err := log.New(log.DefaultConfig())
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	boot, err := bootstrap.New(bootstrap.Config{
		DataDir:             cfg.DataDir,
		IssuerPrivateKeyHex: cfg.IssuerPrivateKeyHex,
		KeysDir:             cfg.KeysDir,
		RegulatorKeys:       cfg.RegulatorKeysHex,
		StoreMasterKeyHex:   cfg.StoreMasterKeyHex,
		VerificationKeyPath: cfg.VKeyPath,
		SanctionsListPath:   cfg.SanctionsListPath,
	}, logger)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}

	httpCfg := apihttp.Config{
		Host:       cfg.Host,
		Port:       cfg.Port,
		APIKeys:    cfg.APIKeys,
		CORSOrigin: cfg.CORSOrigin,
		RateLimit:  rateLimit,
		RateWindow: rateWindow,
	}
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		httpCfg.RedisLimiter = middleware.NewRedisLimiter(client, rateLimit, rateWindow)
		logger.Infof("rate limiting backed by redis at %s", cfg.RedisAddr)
	}
	if len(httpCfg.APIKeys) == 0 {
		logger.Warn("ZEROID_API_KEYS is empty; every /api/v1 request will be rejected")
	}

	adminHost, adminPort, err := net.SplitHostPort(cfg.AdminAddr)
	if err != nil {
		return fmt.Errorf("parse ZEROID_ADMIN_ADDR %q: %w", cfg.AdminAddr, err)
	}

	server := apihttp.NewServer(httpCfg, logger, boot.Issuer, boot.Verifier, boot.Verification)
	adminServer := admin.NewServer(adminHost, adminPort, logger, boot.Sanctions, cfg.SanctionsListPath)

	serverErrs := server.Start()
	adminErrs := adminServer.Start()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrs:
		if err != nil {
			return fmt.Errorf("public api server: %w", err)
		}
	case err := <-adminErrs:
		if err != nil {
			return fmt.Errorf("admin server: %w", err)
		}
	case sig := <-sigCh:
		logger.Infof("received %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("public api server shutdown: %v", err)
	}
	if err := adminServer.Shutdown(ctx); err != nil {
		logger.Errorf("admin server shutdown: %v", err)
	}
	if err := boot.Close(ctx); err != nil {
		logger.Errorf("store shutdown: %v", err)
	}
	return nil
}
