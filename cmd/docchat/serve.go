package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	grpcrouter "github.com/dtroode/docchat-server/internal/api/grpc/router"
	grpcserver "github.com/dtroode/docchat-server/internal/api/grpc/server"
	httpctx "github.com/dtroode/docchat-server/internal/api/http/context"
	httprouter "github.com/dtroode/docchat-server/internal/api/http/router"
	httpserver "github.com/dtroode/docchat-server/internal/api/http/server"
	cacheredis "github.com/dtroode/docchat-server/internal/cache/redis"
	"github.com/dtroode/docchat-server/internal/config"
	"github.com/dtroode/docchat-server/internal/docs"
	"github.com/dtroode/docchat-server/internal/logger"
	"github.com/dtroode/docchat-server/internal/metrics"
	"github.com/dtroode/docchat-server/internal/model"
	"github.com/dtroode/docchat-server/internal/notify"
	"github.com/dtroode/docchat-server/internal/otp"
	"github.com/dtroode/docchat-server/internal/password"
	"github.com/dtroode/docchat-server/internal/repository/postgres"
	"github.com/dtroode/docchat-server/internal/server"
	"github.com/dtroode/docchat-server/internal/service"
	storage "github.com/dtroode/docchat-server/internal/storage/minio"
	"github.com/dtroode/docchat-server/internal/token"
)

const (
	shutdownTimeout    = 10 * time.Second
	healthProbeEvery   = 15 * time.Second
	startupDialTimeout = 30 * time.Second
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and the gRPC health server",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		return err
	}
	log := logger.New(cfg.LogLevel)
	logAppVersion(log)

	db, err := postgres.NewConnection(ctx, cfg.Database.DSN, cfg.Database.ConnectRetries)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	userRepo := postgres.NewUserRepository(db)
	documentRepo := postgres.NewDocumentRepository(db)
	refreshTokenRepo := postgres.NewRefreshTokenRepository(db)

	notifier, err := newNotifier(cfg, log)
	if err != nil {
		return err
	}

	limiter, closeLimiter, err := newLimiter(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeLimiter()

	tokenManager := token.NewJWT(cfg.JWT.Secret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
	tokenService := service.NewTokenService(tokenManager, refreshTokenRepo, log)
	authService := service.NewAuth(
		userRepo,
		password.NewBcryptHasher(cfg.Auth.BcryptCost),
		otp.NewDefaultGenerator(cfg.Auth.OTPTTL),
		notifier,
		limiter,
		tokenService,
		log,
		service.AuthOptions{
			ExposeOTP:       cfg.Auth.ExposeDevOTP || cfg.IsDevelopment(),
			RequireVerified: cfg.Auth.RequireVerified,
		},
	)

	dialCtx, cancelDial := context.WithTimeout(ctx, startupDialTimeout)
	storageClient, err := storage.Connect(dialCtx, storage.Options{
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Bucket:    cfg.Storage.Bucket,
		UseSSL:    cfg.Storage.UseSSL,
	})
	cancelDial()
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	chatService := service.NewChat(
		userRepo,
		documentRepo,
		storageClient,
		docs.NewClient(cfg.Docs.URL, cfg.Docs.Timeout),
		log,
		cfg.HTTP.MaxUploadBytes,
	)

	engine := httprouter.New(
		authService,
		tokenService,
		chatService,
		tokenService,
		httpctx.NewManager(),
		db,
		metrics.New(),
		httprouter.Options{
			RateLimitRPM:   cfg.HTTP.RateLimitRPM,
			MaxUploadBytes: cfg.HTTP.MaxUploadBytes,
		},
		log,
	).Register()
	apiServer := httpserver.NewHTTPServer(engine, fmt.Sprintf(":%s", cfg.HTTP.Port), cfg.HTTP.ReadHeaderTimeout)

	health := grpcrouter.New(db, log)
	healthServer := grpcserver.NewGRPCServer(health.Register(), fmt.Sprintf(":%s", cfg.GRPC.Port))

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		health.Watch(ctx, healthProbeEvery)
	}()

	servers := []struct {
		server model.Server
		layer  model.SecurityLayer
	}{
		{apiServer, securityLayer(cfg.HTTP.EnableHTTPS, cfg.HTTP.CertFileName, cfg.HTTP.PrivateKeyFileName)},
		{healthServer, securityLayer(cfg.GRPC.EnableHTTPS, cfg.GRPC.CertFileName, cfg.GRPC.PrivateKeyFileName)},
	}
	for _, s := range servers {
		wg.Add(1)
		go func(s model.Server, sl model.SecurityLayer) {
			defer wg.Done()
			log.Info("Starting server on", "address", s.Address())
			if err := s.Start(sl); err != nil {
				log.Error("failed to start server", "error", err, "address", s.Address())
				stop()
			}
		}(s.server, s.layer)
	}

	<-ctx.Done()
	log.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	for _, s := range servers {
		if err := s.server.Stop(shutdownCtx); err != nil {
			log.Error("error during server shutdown", "error", err, "address", s.server.Address())
		}
	}

	wg.Wait()
	log.Info("shutdown complete")
	return nil
}

func securityLayer(enableTLS bool, certFile, keyFile string) model.SecurityLayer {
	if enableTLS {
		return server.NewTLSListener(certFile, keyFile)
	}
	return server.NewPlainListener()
}

func newNotifier(cfg *config.Config, log *logger.Logger) (model.Notifier, error) {
	if cfg.SMTP.Host == "" {
		log.Warn("SMTP host is not configured, verification codes will only be logged")
		return notify.NewLogNotifier(log), nil
	}

	n, err := notify.NewSMTPNotifier(notify.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
		Timeout:  cfg.SMTP.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize notifier: %w", err)
	}
	return n, nil
}

// newLimiter returns a nil limiter, which allows every attempt, when Redis is not configured.
func newLimiter(ctx context.Context, cfg *config.Config, log *logger.Logger) (*cacheredis.AttemptLimiter, func(), error) {
	if cfg.Redis.Addr == "" {
		log.Warn("Redis address is not configured, verification attempts are not limited")
		return nil, func() {}, nil
	}

	client, err := cacheredis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize attempt limiter: %w", err)
	}

	limiter := cacheredis.NewAttemptLimiter(client, cfg.Auth.AttemptWindow, cfg.Auth.MaxAttempts)
	return limiter, func() {
		if err := client.Close(); err != nil {
			log.Error("failed to close redis client", "error", err)
		}
	}, nil
}

func logAppVersion(log *logger.Logger) {
	log.Info("docchat server",
		"version", buildVersion,
		"date", buildDate,
		"commit", buildCommit)
}
