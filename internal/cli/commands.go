package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rohmanhakim/filehash-cache/internal/build"
	"github.com/rohmanhakim/filehash-cache/pkg/failure"
	"github.com/rohmanhakim/filehash-cache/pkg/retry"
	"github.com/rohmanhakim/filehash-cache/pkg/timeutil"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newFingerprintCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "fingerprint FILE...",
		Short: "Print the content fingerprint of each file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				fingerprint, err := s.cache.Fingerprint(path)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", fingerprint, path)
			}
			return nil
		},
	}
}

func newLocateCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "locate FILE",
		Short: "Print the cache entry path for a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			location, err := s.cache.Locate(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), location)
			return nil
		},
	}
}

func newStoreCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "store FILE [PAYLOAD_FILE|-]",
		Short: "Store a payload as the entry for FILE (payload read from stdin by default)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := readPayload(cmd.InOrStdin(), args[1:])
			if err != nil {
				return err
			}
			return s.storeWithRetry(args[0], payload)
		},
	}
}

func newFetchCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch FILE",
		Short: "Write the stored payload for FILE to stdout, exit status 1 on a miss",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, hit, err := s.cache.Fetch(args[0])
			if err != nil {
				return err
			}
			if !hit {
				return ErrCacheMiss
			}
			_, writeErr := cmd.OutOrStdout().Write(data)
			return writeErr
		},
	}
}

func newHasCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "has FILE",
		Short: "Print whether an entry exists for FILE",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hit, err := s.cache.Has(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hit)
			return nil
		},
	}
}

func newKeepCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "keep SOURCE...",
		Short: "Re-hash the given sources and remove every other cache entry",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			retained, err := s.cache.FingerprintAll(args...)
			if err != nil {
				return err
			}
			result, err := s.cache.Keep(retained)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d, retained %d, skipped %d\n",
				len(result.Removed()), len(result.Retained()), len(result.Skipped()))
			return nil
		},
	}
}

func newClearCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cache entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := s.cache.Clear()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d, skipped %d\n",
				len(result.Removed()), len(result.Skipped()))
			return nil
		},
	}
}

func newListCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cache entries with their sizes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := s.cache.Entries()
			if err != nil {
				return err
			}
			for _, entry := range entries {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %d\n", entry.Fingerprint(), entry.Size())
			}
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		// no config or cache needed
		PersistentPreRun: func(cmd *cobra.Command, args []string) {},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), build.FullVersion())
		},
	}
}

// readPayload reads the payload file named in args, or stdin when args is
// empty or "-".
func readPayload(stdin io.Reader, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(args[0])
}

// storeWithRetry retries Store on recoverable errors (a full disk) using the
// configured backoff. Fatal errors are returned after the first attempt.
func (s *session) storeWithRetry(path string, payload []byte) error {
	param := retry.NewRetryParam(
		s.cfg.Jitter(),
		s.cfg.RandomSeed(),
		s.cfg.MaxAttempt(),
		timeutil.NewBackoffParam(
			s.cfg.BackoffInitialDuration(),
			s.cfg.BackoffMultiplier(),
			s.cfg.BackoffMaxDuration(),
		),
	)

	result := retry.Retry(
		param,
		func() (struct{}, failure.ClassifiedError) {
			return struct{}{}, s.cache.Store(path, payload)
		},
		func(attempt int, err failure.ClassifiedError, delay time.Duration) {
			s.logger.Warn("store failed, retrying",
				zap.String("source_path", path),
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
				zap.Error(err),
			)
		},
	)
	if result.IsFailure() {
		return result.Err()
	}
	return nil
}
