package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/imgcrop/config"
	"github.com/imgcrop/repository/images"
	"github.com/imgcrop/router"
	"github.com/imgcrop/transcoder"
	"github.com/imgcrop/upload"
	"github.com/imgcrop/web/downloader"
	"github.com/imgcrop/web/uploader"
)

const shutdownTimeout = 15 * time.Second

func main() {
	log.Info().Msg("starting imgcrop-server...")

	v, err := config.New(nil)
	if err != nil {
		log.Fatal().Err(err).Msg("could not read configuration")
	}
	cfg, err := config.LoadServer(v)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	zerolog.SetGlobalLevel(cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store, err := images.Open(ctx, cfg.StoreURL)
	if err != nil {
		log.Fatal().Err(err).Msg("error connecting to document store")
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			log.Error().Err(err).Msg("error closing document store")
		}
	}()

	tr, err := newTranscoder(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating transcoder")
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router.New(log.Logger, store, upload.NewService(store, tr, cfg.Policy), router.Options{MaxUploadSize: cfg.MaxUploadSize}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr).Str("transcoder", cfg.Transcoder).Str("policy", string(cfg.Policy)).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("error running server")
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error shutting down server")
	}
}

// newTranscoder builds the configured transcoder. For the local one the AWS
// credential chain is resolved here so that missing credentials stop startup.
func newTranscoder(ctx context.Context, cfg config.Server) (transcoder.Service, error) {
	if cfg.Transcoder == config.TranscoderRemote {
		client := &http.Client{Timeout: 2 * time.Minute}
		return transcoder.NewRemote(cfg.Remote.Endpoint, cfg.Remote.APIKey, client, downloader.New(client)), nil
	}

	awsCfg := aws.NewConfig().WithRegion(cfg.S3.Region)
	if cfg.S3.Endpoint != "" {
		awsCfg = awsCfg.WithEndpoint(cfg.S3.Endpoint).WithS3ForcePathStyle(true)
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("creating aws session: %w", err)
	}
	if _, err := sess.Config.Credentials.GetWithContext(ctx); err != nil {
		return nil, fmt.Errorf("resolving aws credentials: %w", err)
	}

	s3uploader := s3manager.NewUploader(sess)
	return transcoder.NewLocal(uploader.New(s3uploader, uploader.Config{
		Bucket:    cfg.S3.Bucket,
		ACL:       cfg.S3.ACL,
		PublicURL: cfg.S3.PublicURL,
	})), nil
}
