package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rohmanhakim/filehash-cache/internal/config"
	"github.com/rohmanhakim/filehash-cache/internal/metadata"
	"github.com/rohmanhakim/filehash-cache/pkg/hashutil"
)

func writeConfigFile(t *testing.T, name string, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestWithDefault(t *testing.T) {
	cfg := config.WithDefault()

	if cfg == nil {
		t.Fatal("WithDefault() returned nil")
	}

	builtCfg, err := cfg.Build()
	if err != nil {
		t.Errorf("should not have any error, got %v", err)
	}

	// No cache directory by default
	if builtCfg.CacheDir() != "" {
		t.Errorf("expected empty CacheDir, got '%s'", builtCfg.CacheDir())
	}
	if builtCfg.CreateDir() {
		t.Error("expected CreateDir false")
	}
	if builtCfg.HashAlgo() != hashutil.HashAlgoSHA1 {
		t.Errorf("expected HashAlgo sha1, got '%s'", builtCfg.HashAlgo())
	}

	// Logging
	if builtCfg.LogLevel() != "warn" {
		t.Errorf("expected LogLevel 'warn', got '%s'", builtCfg.LogLevel())
	}
	if builtCfg.LogFormat() != metadata.LogFormatConsole {
		t.Errorf("expected LogFormat console, got '%s'", builtCfg.LogFormat())
	}

	// Verify backoff and retry fields
	if builtCfg.MaxAttempt() != 3 {
		t.Errorf("expected MaxAttempt 3, got %d", builtCfg.MaxAttempt())
	}
	if builtCfg.BackoffInitialDuration() != 100*time.Millisecond {
		t.Errorf("expected BackoffInitialDuration 100ms, got %v", builtCfg.BackoffInitialDuration())
	}
	if builtCfg.BackoffMultiplier() != 2.0 {
		t.Errorf("expected BackoffMultiplier 2.0, got %f", builtCfg.BackoffMultiplier())
	}
	if builtCfg.BackoffMaxDuration() != 5*time.Second {
		t.Errorf("expected BackoffMaxDuration 5s, got %v", builtCfg.BackoffMaxDuration())
	}
	if builtCfg.Jitter() != 50*time.Millisecond {
		t.Errorf("expected Jitter 50ms, got %v", builtCfg.Jitter())
	}
	if builtCfg.RandomSeed() == 0 {
		t.Error("expected RandomSeed to be set, got 0")
	}
}

func TestWithCacheDir(t *testing.T) {
	cfg, err := config.WithDefault().WithCacheDir("/var/cache/app").WithCreateDir(true).Build()
	if err != nil {
		t.Fatalf("should not have any error, got %v", err)
	}
	if cfg.CacheDir() != "/var/cache/app" {
		t.Errorf("expected CacheDir '/var/cache/app', got '%s'", cfg.CacheDir())
	}
	if !cfg.CreateDir() {
		t.Error("expected CreateDir true")
	}

	// Verify other fields still have default values
	if cfg.HashAlgo() != hashutil.HashAlgoSHA1 {
		t.Errorf("expected HashAlgo to remain sha1, got '%s'", cfg.HashAlgo())
	}
}

func TestWithHashAlgo_Normalized(t *testing.T) {
	cfg, err := config.WithDefault().WithHashAlgo("BLAKE3").Build()
	if err != nil {
		t.Fatalf("should not have any error, got %v", err)
	}
	if cfg.HashAlgo() != hashutil.HashAlgoBLAKE3 {
		t.Errorf("expected HashAlgo blake3, got '%s'", cfg.HashAlgo())
	}
}

func TestBuild_Invalid(t *testing.T) {
	tests := []struct {
		name string
		cfg  *config.Config
	}{
		{"unsupported hash algo", config.WithDefault().WithHashAlgo("md5")},
		{"unknown log level", config.WithDefault().WithLogLevel("verbose")},
		{"unknown log format", config.WithDefault().WithLogFormat("xml")},
		{"zero max attempt", config.WithDefault().WithMaxAttempt(0)},
		{"multiplier below one", config.WithDefault().WithBackoffMultiplier(0.5)},
		{"negative jitter", config.WithDefault().WithJitter(-time.Second)},
		{"negative max backoff", config.WithDefault().WithBackoffMaxDuration(-time.Second)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.cfg.Build()
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, config.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestWithConfigFile_EmptyPath(t *testing.T) {
	_, err := config.WithConfigFile("")
	if !errors.Is(err, config.ErrFileDoesNotExist) {
		t.Errorf("expected ErrFileDoesNotExist, got %v", err)
	}
}

func TestWithConfigFile_FileDoesNotExist(t *testing.T) {
	_, err := config.WithConfigFile(filepath.Join(t.TempDir(), "missing.json"))
	if err == nil {
		t.Fatal("expected error for non-existent file, got nil")
	}
	if !errors.Is(err, config.ErrFileDoesNotExist) {
		t.Errorf("expected ErrFileDoesNotExist, got %v", err)
	}
}

func TestWithConfigFile_InvalidJSON(t *testing.T) {
	path := writeConfigFile(t, "config.json", `{"cacheDir": "/tmp/cache",`)

	_, err := config.WithConfigFile(path)
	if err == nil {
		t.Fatal("expected error for invalid JSON, got nil")
	}
	if !errors.Is(err, config.ErrConfigParsingFail) {
		t.Errorf("expected ErrConfigParsingFail, got %v", err)
	}
}

func TestWithConfigFile_UnsupportedExtension(t *testing.T) {
	path := writeConfigFile(t, "config.conf", "cacheDir=/tmp/cache")

	_, err := config.WithConfigFile(path)
	if !errors.Is(err, config.ErrReadConfigFail) {
		t.Errorf("expected ErrReadConfigFail, got %v", err)
	}
}

func TestWithConfigFile_ValidCompleteJSON(t *testing.T) {
	path := writeConfigFile(t, "config.json", `{
		"cacheDir": "/tmp/cache",
		"createDir": true,
		"hashAlgo": "blake3",
		"logLevel": "debug",
		"logFormat": "json",
		"maxAttempt": 5,
		"backoffInitialDuration": "200ms",
		"backoffMultiplier": 3,
		"backoffMaxDuration": "2s",
		"jitter": "10ms",
		"randomSeed": 42
	}`)

	cfg, err := config.WithConfigFile(path)
	if err != nil {
		t.Fatalf("should not have any error, got %v", err)
	}

	if cfg.CacheDir() != "/tmp/cache" {
		t.Errorf("expected CacheDir '/tmp/cache', got '%s'", cfg.CacheDir())
	}
	if !cfg.CreateDir() {
		t.Error("expected CreateDir true")
	}
	if cfg.HashAlgo() != hashutil.HashAlgoBLAKE3 {
		t.Errorf("expected HashAlgo blake3, got '%s'", cfg.HashAlgo())
	}
	if cfg.LogLevel() != "debug" {
		t.Errorf("expected LogLevel 'debug', got '%s'", cfg.LogLevel())
	}
	if cfg.LogFormat() != metadata.LogFormatJSON {
		t.Errorf("expected LogFormat json, got '%s'", cfg.LogFormat())
	}
	if cfg.MaxAttempt() != 5 {
		t.Errorf("expected MaxAttempt 5, got %d", cfg.MaxAttempt())
	}
	if cfg.BackoffInitialDuration() != 200*time.Millisecond {
		t.Errorf("expected BackoffInitialDuration 200ms, got %v", cfg.BackoffInitialDuration())
	}
	if cfg.BackoffMultiplier() != 3 {
		t.Errorf("expected BackoffMultiplier 3, got %f", cfg.BackoffMultiplier())
	}
	if cfg.BackoffMaxDuration() != 2*time.Second {
		t.Errorf("expected BackoffMaxDuration 2s, got %v", cfg.BackoffMaxDuration())
	}
	if cfg.Jitter() != 10*time.Millisecond {
		t.Errorf("expected Jitter 10ms, got %v", cfg.Jitter())
	}
	if cfg.RandomSeed() != 42 {
		t.Errorf("expected RandomSeed 42, got %d", cfg.RandomSeed())
	}
}

func TestWithConfigFile_PartialYAML(t *testing.T) {
	path := writeConfigFile(t, "config.yaml", "cacheDir: /srv/cache\nhashAlgo: sha1\n")

	cfg, err := config.WithConfigFile(path)
	if err != nil {
		t.Fatalf("should not have any error, got %v", err)
	}

	if cfg.CacheDir() != "/srv/cache" {
		t.Errorf("expected CacheDir '/srv/cache', got '%s'", cfg.CacheDir())
	}
	// Fields not in the file keep their defaults
	if cfg.MaxAttempt() != 3 {
		t.Errorf("expected MaxAttempt default 3, got %d", cfg.MaxAttempt())
	}
	if cfg.LogLevel() != "warn" {
		t.Errorf("expected LogLevel default 'warn', got '%s'", cfg.LogLevel())
	}
}

func TestWithConfigFile_InvalidValue(t *testing.T) {
	path := writeConfigFile(t, "config.yaml", "hashAlgo: md5\n")

	_, err := config.WithConfigFile(path)
	if !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestWithConfigFile_EmptyJSON(t *testing.T) {
	path := writeConfigFile(t, "config.json", `{}`)

	cfg, err := config.WithConfigFile(path)
	if err != nil {
		t.Fatalf("should not have any error, got %v", err)
	}
	if cfg.CacheDir() != "" {
		t.Errorf("expected empty CacheDir, got '%s'", cfg.CacheDir())
	}
	if cfg.HashAlgo() != hashutil.HashAlgoSHA1 {
		t.Errorf("expected HashAlgo sha1, got '%s'", cfg.HashAlgo())
	}
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("should not have any error, got %v", err)
	}
	if cfg.HashAlgo() != hashutil.HashAlgoSHA1 {
		t.Errorf("expected HashAlgo sha1, got '%s'", cfg.HashAlgo())
	}
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	path := writeConfigFile(t, "config.yaml", "cacheDir: /from/file\nmaxAttempt: 4\n")
	t.Setenv("FHCACHE_CACHEDIR", "/from/env")
	t.Setenv("FHCACHE_HASHALGO", "blake3")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("should not have any error, got %v", err)
	}
	if cfg.CacheDir() != "/from/env" {
		t.Errorf("expected CacheDir '/from/env', got '%s'", cfg.CacheDir())
	}
	if cfg.HashAlgo() != hashutil.HashAlgoBLAKE3 {
		t.Errorf("expected HashAlgo blake3, got '%s'", cfg.HashAlgo())
	}
	if cfg.MaxAttempt() != 4 {
		t.Errorf("expected MaxAttempt 4 from file, got %d", cfg.MaxAttempt())
	}
}

func TestLoad_InvalidEnvironmentValue(t *testing.T) {
	t.Setenv("FHCACHE_LOGLEVEL", "chatty")

	_, err := config.Load("")
	if !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestWithConfigFile_IgnoresEnvironment(t *testing.T) {
	path := writeConfigFile(t, "config.json", `{"cacheDir": "/from/file"}`)
	t.Setenv("FHCACHE_CACHEDIR", "/from/env")

	cfg, err := config.WithConfigFile(path)
	if err != nil {
		t.Fatalf("should not have any error, got %v", err)
	}
	if cfg.CacheDir() != "/from/file" {
		t.Errorf("expected CacheDir '/from/file', got '%s'", cfg.CacheDir())
	}
}
