// Package boot wires configuration into the running pipeline: database,
// blob store, model clients, and the trip service. Both the CLI server and
// the Lambda entry point start from Build.
package boot

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/fpang/trip-journal/internal/assets"
	"github.com/fpang/trip-journal/internal/blobstore"
	"github.com/fpang/trip-journal/internal/chat"
	"github.com/fpang/trip-journal/internal/config"
	"github.com/fpang/trip-journal/internal/logging"
	"github.com/fpang/trip-journal/internal/store"
	"github.com/fpang/trip-journal/internal/trip"
)

// Blobs is a blob backend the service writes to and the API reads from.
type Blobs interface {
	trip.BlobStore
	Open(ctx context.Context, ref string) ([]byte, error)
}

// App is a fully wired process.
type App struct {
	Config  config.AppConfig
	DB      *gorm.DB
	Blobs   Blobs
	Service *trip.Service
}

// Close releases the database connection.
func (a *App) Close() {
	if a.DB != nil {
		store.Close(a.DB)
	}
}

// ssmAPI is the subset of the SSM client used here.
type ssmAPI interface {
	GetParameter(ctx context.Context, in *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// awsLoader defers loading AWS config until something needs it.
type awsLoader struct {
	ctx    context.Context
	cfg    aws.Config
	loaded bool
}

func (l *awsLoader) get() (aws.Config, error) {
	if l.loaded {
		return l.cfg, nil
	}
	cfg, err := InitAWS(l.ctx)
	if err != nil {
		return aws.Config{}, err
	}
	l.cfg, l.loaded = cfg, true
	return cfg, nil
}

// InitAWS loads the default AWS config.
func InitAWS(ctx context.Context) (aws.Config, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load AWS config: %w", err)
	}
	log.Debug().Str("region", cfg.Region).Msg("AWS config loaded")
	return cfg, nil
}

// LoadGeminiKey reads the Gemini API key from SSM Parameter Store.
func LoadGeminiKey(ctx context.Context, client ssmAPI, paramName string) (string, error) {
	ssmStart := time.Now()
	result, err := client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           &paramName,
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("read API key from SSM %s: %w", paramName, err)
	}
	if result.Parameter == nil || result.Parameter.Value == nil || *result.Parameter.Value == "" {
		return "", fmt.Errorf("SSM parameter %s is empty", paramName)
	}
	log.Debug().Str("param", paramName).Dur("elapsed", time.Since(ssmStart)).Msg("Gemini API key loaded from SSM")
	return *result.Parameter.Value, nil
}

// resolveGeminiKey tries the configured key, then GEMINI_API_KEY, then SSM.
func resolveGeminiKey(ctx context.Context, cfg config.AppConfig, newSSM func() (ssmAPI, error)) (string, error) {
	if cfg.GeminiAPIKey != "" {
		return cfg.GeminiAPIKey, nil
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		return key, nil
	}
	if cfg.GeminiSSMParam == "" {
		return "", fmt.Errorf("gemini API key not configured: set gemini.api_key, GEMINI_API_KEY or gemini.ssm_param")
	}
	client, err := newSSM()
	if err != nil {
		return "", err
	}
	return LoadGeminiKey(ctx, client, cfg.GeminiSSMParam)
}

// BuildGenerators returns the analysis generator and the composition
// generator, which carries the narrative system instruction.
func BuildGenerators(ctx context.Context, cfg config.AppConfig, apiKey string) (analysis, composition chat.Generator, err error) {
	gc := chat.GeneratorConfig{Provider: cfg.GeneratorProvider, APIKey: apiKey}
	switch cfg.GeneratorProvider {
	case chat.ProviderOpenAI:
		gc.Model, gc.BaseURL = cfg.OpenAIModel, cfg.OpenAIBaseURL
	default:
		gc.Model, gc.BaseURL = cfg.GeminiModel, cfg.GeminiBaseURL
	}

	analysis, err = chat.NewGenerator(ctx, gc)
	if err != nil {
		return nil, nil, err
	}
	gc.SystemInstruction = assets.NarrativeSystemPrompt
	composition, err = chat.NewGenerator(ctx, gc)
	if err != nil {
		return nil, nil, err
	}
	return analysis, composition, nil
}

// BuildBlobStore creates the configured blob backend.
func BuildBlobStore(cfg config.AppConfig, awsCfg func() (aws.Config, error)) (Blobs, error) {
	switch cfg.StorageBackend {
	case "s3":
		ac, err := awsCfg()
		if err != nil {
			return nil, err
		}
		s3Store, err := blobstore.NewS3Store(s3.NewFromConfig(ac), cfg.StorageS3Bucket)
		if err != nil {
			return nil, err
		}
		return s3Store, nil
	default:
		local, err := blobstore.NewLocalStore(cfg.StorageLocalRoot, cfg.StoragePublicPrefix)
		if err != nil {
			return nil, err
		}
		return local, nil
	}
}

// Identity names the running binary in the startup log.
type Identity struct {
	Name       string
	CommitHash string
	BuildTime  string
}

// Build wires every dependency described by cfg.
func Build(ctx context.Context, cfg config.AppConfig, id Identity) (*App, error) {
	initStart := time.Now()
	loader := &awsLoader{ctx: ctx}

	apiKey := cfg.OpenAIAPIKey
	if cfg.GeneratorProvider != chat.ProviderOpenAI {
		key, err := resolveGeminiKey(ctx, cfg, func() (ssmAPI, error) {
			ac, err := loader.get()
			if err != nil {
				return nil, err
			}
			return ssm.NewFromConfig(ac), nil
		})
		if err != nil {
			return nil, err
		}
		apiKey = key
	}

	analysisGen, compositionGen, err := BuildGenerators(ctx, cfg, apiKey)
	if err != nil {
		return nil, fmt.Errorf("build generator: %w", err)
	}

	blobs, err := BuildBlobStore(cfg, loader.get)
	if err != nil {
		return nil, fmt.Errorf("build blob store: %w", err)
	}

	db, err := store.Open(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}

	svc, err := trip.NewService(trip.ServiceConfig{
		Records:              store.NewGormStore(db),
		Blobs:                blobs,
		Generator:            analysisGen,
		CompositionGenerator: compositionGen,
		Analyzer: chat.AnalyzerConfig{
			MaxDimension: cfg.MaxDimension,
			JPEGQuality:  cfg.JPEGQuality,
			Workers:      cfg.Workers,
			Timeout:      cfg.AnalysisTimeout,
		},
		CompositionTimeout: cfg.CompositionTimeout,
		CaptionLength:      cfg.CaptionLength,
	})
	if err != nil {
		store.Close(db)
		return nil, err
	}

	startup := logging.NewStartupLogger(id.Name).
		CommitHash(id.CommitHash).
		BuildTime(id.BuildTime).
		Database(cfg.DatabaseDriver).
		Config("httpAddress", cfg.HTTPAddress).
		Config("workers", fmt.Sprint(cfg.Workers)).
		Config("analysisTimeout", cfg.AnalysisTimeout.String()).
		Config("compositionTimeout", cfg.CompositionTimeout.String()).
		Config("maxPhotos", fmt.Sprint(cfg.MaxPhotos)).
		Feature("prettyLogs", cfg.LogPretty)
	if cfg.StorageBackend == "s3" {
		startup.BlobStore("s3", cfg.StorageS3Bucket)
	} else {
		startup.BlobStore("local", cfg.StorageLocalRoot)
	}
	if cfg.GeneratorProvider == chat.ProviderOpenAI {
		startup.Generator(chat.ProviderOpenAI, cfg.OpenAIModel)
	} else {
		startup.Generator(chat.ProviderGemini, cfg.GeminiModel)
	}
	if cfg.GeminiSSMParam != "" {
		startup.SSMParam("geminiKey", cfg.GeminiSSMParam)
	}
	startup.InitDuration(time.Since(initStart)).Log()

	return &App{Config: cfg, DB: db, Blobs: blobs, Service: svc}, nil
}
