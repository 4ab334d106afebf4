package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	api "github.com/fieldcart/backoffice/internal/api/http"
	"github.com/fieldcart/backoffice/internal/config"
	"github.com/fieldcart/backoffice/internal/logger"
	"github.com/fieldcart/backoffice/internal/mailer"
	"github.com/fieldcart/backoffice/internal/repository/postgres"
	"github.com/fieldcart/backoffice/internal/service"
	storage "github.com/fieldcart/backoffice/internal/storage/minio"
	"github.com/fieldcart/backoffice/internal/token"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	l := logger.New(cfg.LogLevel)

	db, err := postgres.NewConnection(ctx, cfg.Database.DSN)
	if err != nil {
		l.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer db.Close()

	userRepo := postgres.NewUserRepository(db)
	refreshTokenRepo := postgres.NewRefreshTokenRepository(db)
	otpRepo := postgres.NewOTPRepository(db)
	deviceRepo := postgres.NewDeviceRepository(db)
	tokenManager := token.NewJWT(cfg.JWT.Secret)

	var sender mailer.Sender
	if cfg.SMTP.Host != "" {
		sender, err = mailer.NewMailer(cfg.SMTP)
		if err != nil {
			l.Fatal().Err(err).Msg("failed to configure mailer")
		}
	} else {
		sender = mailer.NewLogSender(l)
	}

	authService := service.NewAuth(userRepo, otpRepo, deviceRepo, refreshTokenRepo, tokenManager, sender, l)

	minioClient, err := minio.New(cfg.Storage.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Storage.AccessKey, cfg.Storage.SecretKey, ""),
		Secure: cfg.Storage.UseSSL,
	})
	if err != nil {
		l.Fatal().Err(err).Msg("failed to create minio client")
	}
	storageClient, err := storage.NewClient(ctx, minioClient, cfg.Storage.Bucket)
	if err != nil {
		l.Fatal().Err(err).Msg("failed to initialize storage client")
	}

	uploadService := service.NewUpload(storageClient, cfg.Storage.Bucket, cfg.Storage.PublicBaseURL, cfg.Upload.MaxSizeBytes, l)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTP.Port),
		Handler:      api.NewRouter(authService, uploadService, cfg.Upload.MaxFiles, l),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		l.Info().Str("address", srv.Addr).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Error().Err(err).Msg("server stopped")
		}
	}()

	logAppVersion()

	<-ctx.Done()
	l.Info().Msg("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		l.Error().Err(err).Msg("error during server shutdown")
	}

	wg.Wait()
	l.Info().Msg("shutdown complete")
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}
