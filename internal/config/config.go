package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rohmanhakim/filehash-cache/internal/metadata"
	"github.com/rohmanhakim/filehash-cache/pkg/hashutil"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// EnvPrefix prefixes every environment variable read by Load,
// e.g. FHCACHE_CACHEDIR or FHCACHE_HASHALGO.
const EnvPrefix = "FHCACHE"

type Config struct {
	//===============
	// Storage
	//===============
	// Directory holding cache entries. Empty means not set.
	cacheDir string
	// Create the cache directory before running a command
	createDir bool
	// Fingerprint algorithm name, "sha1" or "blake3"
	hashAlgo hashutil.HashAlgo

	//===============
	// Logging
	//===============
	// zap level name: debug, info, warn, error
	logLevel string
	// console or json
	logFormat metadata.LogFormat

	//===============
	// Retry (store only)
	//===============
	// maximum attempt during retry
	maxAttempt int
	// initial delay for backoff
	backoffInitialDuration time.Duration
	// multiplier during exponential backoff
	backoffMultiplier float64
	// capped maximum delay for backoff to stop exponential multiplication
	backoffMaxDuration time.Duration
	// Randomized variation added on top of each backoff delay
	jitter time.Duration
	// Controls the random number generator used for jitter
	randomSeed int64
}

type configDTO struct {
	CacheDir               string        `mapstructure:"cacheDir"`
	CreateDir              bool          `mapstructure:"createDir"`
	HashAlgo               string        `mapstructure:"hashAlgo"`
	LogLevel               string        `mapstructure:"logLevel"`
	LogFormat              string        `mapstructure:"logFormat"`
	MaxAttempt             int           `mapstructure:"maxAttempt"`
	BackoffInitialDuration time.Duration `mapstructure:"backoffInitialDuration"`
	BackoffMultiplier      float64       `mapstructure:"backoffMultiplier"`
	BackoffMaxDuration     time.Duration `mapstructure:"backoffMaxDuration"`
	Jitter                 time.Duration `mapstructure:"jitter"`
	RandomSeed             int64         `mapstructure:"randomSeed"`
}

func newConfigFromDTO(dto configDTO) (Config, error) {
	cfg := WithDefault()

	cfg.cacheDir = dto.CacheDir
	cfg.createDir = dto.CreateDir

	// For other fields, only override if non-zero value is provided
	if dto.HashAlgo != "" {
		cfg.hashAlgo = hashutil.HashAlgo(dto.HashAlgo)
	}
	if dto.LogLevel != "" {
		cfg.logLevel = dto.LogLevel
	}
	if dto.LogFormat != "" {
		cfg.logFormat = metadata.LogFormat(dto.LogFormat)
	}
	if dto.MaxAttempt != 0 {
		cfg.maxAttempt = dto.MaxAttempt
	}
	if dto.BackoffInitialDuration != 0 {
		cfg.backoffInitialDuration = dto.BackoffInitialDuration
	}
	if dto.BackoffMultiplier != 0 {
		cfg.backoffMultiplier = dto.BackoffMultiplier
	}
	if dto.BackoffMaxDuration != 0 {
		cfg.backoffMaxDuration = dto.BackoffMaxDuration
	}
	if dto.Jitter != 0 {
		cfg.jitter = dto.Jitter
	}
	if dto.RandomSeed != 0 {
		cfg.randomSeed = dto.RandomSeed
	}

	return cfg.Build()
}

// Load reads configuration from defaults, then the optional file at path
// (json, yaml or toml, picked by extension), then FHCACHE_* environment
// variables. Later sources win.
func Load(path string) (Config, error) {
	return load(path, true)
}

// WithConfigFile loads path on top of the defaults, ignoring the environment.
func WithConfigFile(path string) (Config, error) {
	if path == "" {
		return Config{}, fmt.Errorf("%w: empty config file path", ErrFileDoesNotExist)
	}
	return load(path, false)
}

func load(path string, withEnv bool) (Config, error) {
	v := viper.New()
	if withEnv {
		v.SetEnvPrefix(EnvPrefix)
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
		v.AutomaticEnv()
	}
	// every key needs a default, otherwise AutomaticEnv never sees it on Unmarshal
	setDefaults(v, *WithDefault())

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return Config{}, fmt.Errorf("%w: %s", ErrFileDoesNotExist, err.Error())
		}
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var parseErr viper.ConfigParseError
			if errors.As(err, &parseErr) {
				return Config{}, fmt.Errorf("%w: %s", ErrConfigParsingFail, err.Error())
			}
			return Config{}, fmt.Errorf("%w: %s", ErrReadConfigFail, err.Error())
		}
	}

	dto := configDTO{}
	if err := v.Unmarshal(&dto); err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrConfigParsingFail, err.Error())
	}
	return newConfigFromDTO(dto)
}

func setDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("cacheDir", cfg.cacheDir)
	v.SetDefault("createDir", cfg.createDir)
	v.SetDefault("hashAlgo", string(cfg.hashAlgo))
	v.SetDefault("logLevel", cfg.logLevel)
	v.SetDefault("logFormat", string(cfg.logFormat))
	v.SetDefault("maxAttempt", cfg.maxAttempt)
	v.SetDefault("backoffInitialDuration", cfg.backoffInitialDuration)
	v.SetDefault("backoffMultiplier", cfg.backoffMultiplier)
	v.SetDefault("backoffMaxDuration", cfg.backoffMaxDuration)
	v.SetDefault("jitter", cfg.jitter)
	v.SetDefault("randomSeed", cfg.randomSeed)
}

// WithDefault creates a new Config with no cache directory and default values for all other fields.
func WithDefault() *Config {
	defaultConfig := Config{
		cacheDir:               "",
		createDir:              false,
		hashAlgo:               hashutil.HashAlgoSHA1,
		logLevel:               "warn",
		logFormat:              metadata.LogFormatConsole,
		maxAttempt:             3,
		backoffInitialDuration: 100 * time.Millisecond,
		backoffMultiplier:      2.0,
		backoffMaxDuration:     5 * time.Second,
		jitter:                 50 * time.Millisecond,
		randomSeed:             1,
	}
	return &defaultConfig
}

func (c *Config) WithCacheDir(dir string) *Config {
	c.cacheDir = dir
	return c
}

func (c *Config) WithCreateDir(create bool) *Config {
	c.createDir = create
	return c
}

func (c *Config) WithHashAlgo(algo hashutil.HashAlgo) *Config {
	c.hashAlgo = algo
	return c
}

func (c *Config) WithLogLevel(level string) *Config {
	c.logLevel = level
	return c
}

func (c *Config) WithLogFormat(format metadata.LogFormat) *Config {
	c.logFormat = format
	return c
}

func (c *Config) WithMaxAttempt(attempts int) *Config {
	c.maxAttempt = attempts
	return c
}

func (c *Config) WithBackoffInitialDuration(duration time.Duration) *Config {
	c.backoffInitialDuration = duration
	return c
}

func (c *Config) WithBackoffMultiplier(multiplier float64) *Config {
	c.backoffMultiplier = multiplier
	return c
}

func (c *Config) WithBackoffMaxDuration(duration time.Duration) *Config {
	c.backoffMaxDuration = duration
	return c
}

func (c *Config) WithJitter(jitter time.Duration) *Config {
	c.jitter = jitter
	return c
}

func (c *Config) WithRandomSeed(seed int64) *Config {
	c.randomSeed = seed
	return c
}

// Build validates the configuration. The cache directory is allowed to be
// empty here; commands that need it report the cache's own error.
func (c *Config) Build() (Config, error) {
	algo, err := hashutil.ParseHashAlgo(string(c.hashAlgo))
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrInvalidConfig, err.Error())
	}
	c.hashAlgo = algo

	if _, err := zapcore.ParseLevel(c.logLevel); err != nil {
		return Config{}, fmt.Errorf("%w: logLevel %q", ErrInvalidConfig, c.logLevel)
	}
	switch c.logFormat {
	case metadata.LogFormatConsole, metadata.LogFormatJSON:
	default:
		return Config{}, fmt.Errorf("%w: logFormat %q", ErrInvalidConfig, c.logFormat)
	}

	if c.maxAttempt < 1 {
		return Config{}, fmt.Errorf("%w: maxAttempt must be at least 1", ErrInvalidConfig)
	}
	if c.backoffMultiplier < 1 {
		return Config{}, fmt.Errorf("%w: backoffMultiplier must be at least 1", ErrInvalidConfig)
	}
	if c.backoffInitialDuration < 0 || c.backoffMaxDuration < 0 || c.jitter < 0 {
		return Config{}, fmt.Errorf("%w: durations cannot be negative", ErrInvalidConfig)
	}

	return *c, nil
}

func (c Config) CacheDir() string {
	return c.cacheDir
}

func (c Config) CreateDir() bool {
	return c.createDir
}

func (c Config) HashAlgo() hashutil.HashAlgo {
	return c.hashAlgo
}

func (c Config) LogLevel() string {
	return c.logLevel
}

func (c Config) LogFormat() metadata.LogFormat {
	return c.logFormat
}

func (c Config) MaxAttempt() int {
	return c.maxAttempt
}

func (c Config) BackoffInitialDuration() time.Duration {
	return c.backoffInitialDuration
}

func (c Config) BackoffMultiplier() float64 {
	return c.backoffMultiplier
}

func (c Config) BackoffMaxDuration() time.Duration {
	return c.backoffMaxDuration
}

func (c Config) Jitter() time.Duration {
	return c.jitter
}

func (c Config) RandomSeed() int64 {
	return c.randomSeed
}
