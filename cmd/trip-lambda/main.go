// Command trip-lambda serves the trip-journal API from AWS Lambda behind an
// API Gateway HTTP API.
package main

import (
	"context"
	"net/http"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"
	"github.com/rs/zerolog/log"

	"github.com/fpang/trip-journal/internal/api"
	"github.com/fpang/trip-journal/internal/boot"
	"github.com/fpang/trip-journal/internal/config"
	"github.com/fpang/trip-journal/internal/logging"
)

// Set at build time via -ldflags.
var (
	commitHash string
	buildTime  string
)

var handler http.Handler

func init() {
	cfg, err := config.Load(config.NewViper())
	if err != nil {
		logging.Init("info", false)
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	logging.Init(cfg.LogLevel, false)

	app, err := boot.Build(context.Background(), cfg, boot.Identity{Name: "trip-lambda", CommitHash: commitHash, BuildTime: buildTime})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize")
	}

	deps := api.Dependencies{
		Service:        app.Service,
		CORSOrigins:    cfg.CORSOrigins,
		MaxPhotos:      cfg.MaxPhotos,
		MaxUploadBytes: cfg.MaxUploadBytes,
	}
	// S3 references are served by the bucket, not by this function.
	if cfg.StorageBackend == "local" {
		deps.Media, deps.MediaPrefix = app.Blobs, cfg.StoragePublicPrefix
	}

	handler, err = api.NewHTTPHandler(deps)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build HTTP handler")
	}
}

func main() {
	adapter := httpadapter.NewV2(handler)
	lambda.Start(adapter.ProxyWithContext)
}
