package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rohmanhakim/filehash-cache/internal/config"
	"github.com/rohmanhakim/filehash-cache/internal/filecache"
	"github.com/rohmanhakim/filehash-cache/internal/metadata"
	"github.com/rohmanhakim/filehash-cache/pkg/fileutil"
	"github.com/rohmanhakim/filehash-cache/pkg/hashutil"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgFile   string
	cacheDir  string
	hashAlgo  string
	logLevel  string
	logFormat string
	createDir bool
)

// ErrCacheMiss is returned by the fetch command when no entry exists.
// It only sets the exit status; nothing is printed for it.
var ErrCacheMiss = errors.New("cache miss")

// session is what every cache subcommand works with once flags and config
// have been resolved.
type session struct {
	cfg    config.Config
	logger *zap.Logger
	cache  *filecache.Cache
}

// NewRootCmd builds the command tree. Flag variables are package level and
// are reset to their defaults each time the tree is built.
func NewRootCmd() *cobra.Command {
	s := &session{}

	rootCmd := &cobra.Command{
		Use:   "filehash-cache",
		Short: "A content-addressed cache keyed by file fingerprints.",
		Long: `filehash-cache stores derived artifacts in a flat directory, one entry per
distinct source file content. Entries are named by the SHA-1 fingerprint of the
source file, so identical content shares one entry wherever it lives.

Sweeping (keep, clear) only ever removes entries whose names are fingerprints;
anything else found in the cache directory is left alone.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return s.open(cmd.ErrOrStderr())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			s.close()
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config-file", "", "config file path, json/yaml/toml (e.g., /home/myuser/filehash-cache.yaml)")
	rootCmd.PersistentFlags().StringVar(&cacheDir, "cache-dir", "", "directory holding cache entries")
	rootCmd.PersistentFlags().StringVar(&hashAlgo, "hash-algo", "", "fingerprint algorithm: sha1 or blake3 (default sha1)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (default warn)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: console or json (default console)")
	rootCmd.PersistentFlags().BoolVar(&createDir, "create-dir", false, "create the cache directory if it does not exist")

	rootCmd.AddCommand(
		newFingerprintCmd(s),
		newLocateCmd(s),
		newStoreCmd(s),
		newFetchCmd(s),
		newHasCmd(s),
		newKeepCmd(s),
		newClearCmd(s),
		newListCmd(s),
		newVersionCmd(),
	)
	return rootCmd
}

// Execute runs the command line and exits with its status.
// This is called by main.main().
func Execute() {
	os.Exit(Run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// Run executes the command tree with the given arguments and streams and
// returns the process exit status.
func Run(args []string, stdin io.Reader, stdout io.Writer, stderr io.Writer) int {
	rootCmd := NewRootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			fmt.Fprintf(stderr, "Error: %s\n", err)
		}
		return 1
	}
	return 0
}

// InitConfigWithError loads defaults, the config file and FHCACHE_* env
// variables, then applies any flags that were given.
func InitConfigWithError() (config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		if cfgFile != "" {
			return config.Config{}, fmt.Errorf("error initializing config from file: %w", err)
		}
		return config.Config{}, err
	}

	configBuilder := &cfg

	// Override with CLI flag values where provided
	if cacheDir != "" {
		configBuilder = configBuilder.WithCacheDir(cacheDir)
	}

	if hashAlgo != "" {
		configBuilder = configBuilder.WithHashAlgo(hashutil.HashAlgo(hashAlgo))
	}

	if logLevel != "" {
		configBuilder = configBuilder.WithLogLevel(logLevel)
	}

	if logFormat != "" {
		configBuilder = configBuilder.WithLogFormat(metadata.LogFormat(logFormat))
	}

	if createDir {
		configBuilder = configBuilder.WithCreateDir(createDir)
	}

	return configBuilder.Build()
}

func (s *session) open(stderr io.Writer) error {
	cfg, err := InitConfigWithError()
	if err != nil {
		return err
	}

	logger, err := metadata.NewLogger(stderr, cfg.LogLevel(), cfg.LogFormat())
	if err != nil {
		return err
	}

	if cfg.CreateDir() && cfg.CacheDir() != "" {
		if err := fileutil.EnsureDir(cfg.CacheDir()); err != nil {
			logger.Error("cannot create cache directory", zap.String("cache_dir", cfg.CacheDir()), zap.Error(err))
			return err
		}
	}

	// an empty cache directory stays unset; the cache reports it per operation
	cacheCfg, err := filecache.WithDefault().
		WithCacheDirectory(cfg.CacheDir()).
		WithHashAlgo(cfg.HashAlgo()).
		Build()
	if err != nil {
		return err
	}

	s.cfg = cfg
	s.logger = logger
	s.cache = filecache.NewCache(cacheCfg, metadata.NewRecorder(logger))
	return nil
}

func (s *session) close() {
	if s.logger != nil {
		_ = s.logger.Sync()
	}
}

func ResetFlags() {
	cfgFile = ""
	cacheDir = ""
	hashAlgo = ""
	logLevel = ""
	logFormat = ""
	createDir = false
}

// Test helper functions to set flag values from tests
func SetConfigFileForTest(path string) {
	cfgFile = path
}

func SetCacheDirForTest(dir string) {
	cacheDir = dir
}

func SetHashAlgoForTest(algo string) {
	hashAlgo = algo
}

func SetLogLevelForTest(level string) {
	logLevel = level
}

func SetLogFormatForTest(format string) {
	logFormat = format
}

func SetCreateDirForTest(create bool) {
	createDir = create
}
