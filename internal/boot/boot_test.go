package boot

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"

	"github.com/fpang/trip-journal/internal/blobstore"
	"github.com/fpang/trip-journal/internal/config"
)

type fakeSSM struct {
	values map[string]string
	calls  int
}

func (f *fakeSSM) GetParameter(ctx context.Context, in *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	f.calls++
	v, ok := f.values[aws.ToString(in.Name)]
	if !ok {
		return nil, errors.New("ParameterNotFound")
	}
	return &ssm.GetParameterOutput{Parameter: &ssmtypes.Parameter{Value: aws.String(v)}}, nil
}

func testConfig(t *testing.T) config.AppConfig {
	t.Helper()
	cfg, err := config.Load(config.NewViper())
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	dir := t.TempDir()
	cfg.DatabaseDSN = filepath.Join(dir, "trips.db")
	cfg.StorageLocalRoot = filepath.Join(dir, "media")
	return cfg
}

func TestLoadGeminiKey(t *testing.T) {
	client := &fakeSSM{values: map[string]string{"/trip-journal/gemini": "secret", "/empty": ""}}

	key, err := LoadGeminiKey(context.Background(), client, "/trip-journal/gemini")
	if err != nil || key != "secret" {
		t.Errorf("key = %q, %v", key, err)
	}
	if _, err := LoadGeminiKey(context.Background(), client, "/missing"); err == nil {
		t.Error("expected error for missing parameter")
	}
	if _, err := LoadGeminiKey(context.Background(), client, "/empty"); err == nil {
		t.Error("expected error for empty parameter")
	}
}

func TestResolveGeminiKey_Precedence(t *testing.T) {
	client := &fakeSSM{values: map[string]string{"/p": "from-ssm"}}
	newSSM := func() (ssmAPI, error) { return client, nil }
	ctx := context.Background()

	t.Setenv("GEMINI_API_KEY", "from-env")
	cfg := config.AppConfig{GeminiAPIKey: "from-config", GeminiSSMParam: "/p"}
	if key, _ := resolveGeminiKey(ctx, cfg, newSSM); key != "from-config" {
		t.Errorf("key = %q, want from-config", key)
	}

	cfg.GeminiAPIKey = ""
	if key, _ := resolveGeminiKey(ctx, cfg, newSSM); key != "from-env" {
		t.Errorf("key = %q, want from-env", key)
	}

	t.Setenv("GEMINI_API_KEY", "")
	if key, err := resolveGeminiKey(ctx, cfg, newSSM); err != nil || key != "from-ssm" {
		t.Errorf("key = %q, %v, want from-ssm", key, err)
	}
	if client.calls != 1 {
		t.Errorf("ssm calls = %d, want 1", client.calls)
	}

	cfg.GeminiSSMParam = ""
	if _, err := resolveGeminiKey(ctx, cfg, newSSM); err == nil {
		t.Error("expected error when no key source is configured")
	}
}

func TestBuildBlobStore(t *testing.T) {
	cfg := testConfig(t)
	noAWS := func() (aws.Config, error) { return aws.Config{}, errors.New("no AWS in tests") }

	blobs, err := BuildBlobStore(cfg, noAWS)
	if err != nil {
		t.Fatalf("BuildBlobStore: %v", err)
	}
	if _, ok := blobs.(*blobstore.LocalStore); !ok {
		t.Errorf("blobs = %T, want *blobstore.LocalStore", blobs)
	}

	cfg.StorageBackend, cfg.StorageS3Bucket = "s3", "trip-media"
	if _, err := BuildBlobStore(cfg, noAWS); err == nil || !strings.Contains(err.Error(), "no AWS") {
		t.Errorf("err = %v, want AWS loader error", err)
	}
	blobs, err = BuildBlobStore(cfg, func() (aws.Config, error) { return aws.Config{Region: "ap-northeast-2"}, nil })
	if err != nil {
		t.Fatalf("BuildBlobStore s3: %v", err)
	}
	if _, ok := blobs.(*blobstore.S3Store); !ok {
		t.Errorf("blobs = %T, want *blobstore.S3Store", blobs)
	}
}

func TestBuild_LocalStack(t *testing.T) {
	cfg := testConfig(t)
	cfg.GeneratorProvider = "openai"
	cfg.OpenAIAPIKey = "sk-test"

	app, err := Build(context.Background(), cfg, Identity{Name: "trip-journal-test"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer app.Close()

	if app.Service == nil || app.DB == nil || app.Blobs == nil {
		t.Fatalf("app not fully wired: %+v", app)
	}
	trips, err := app.Service.ListTrips(context.Background(), "nobody")
	if err != nil || len(trips) != 0 {
		t.Errorf("ListTrips on fresh database = %v, %v", trips, err)
	}
}

func TestBuild_MissingGeminiKey(t *testing.T) {
	cfg := testConfig(t)
	t.Setenv("GEMINI_API_KEY", "")

	if _, err := Build(context.Background(), cfg, Identity{Name: "trip-journal-test"}); err == nil {
		t.Fatal("expected error without a Gemini key")
	}
}
