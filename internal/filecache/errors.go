package filecache

import (
	"errors"
	"fmt"

	"github.com/rohmanhakim/filehash-cache/internal/metadata"
	"github.com/rohmanhakim/filehash-cache/pkg/failure"
)

// Kind separates misuse of the cache from failures reported by the filesystem.
type Kind int

const (
	KindConfiguration Kind = iota + 1
	KindIO
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindIO:
		return "io"
	default:
		return "unknown"
	}
}

type CacheErrorCause string

const (
	ErrCauseDirectoryNotSet  CacheErrorCause = "cache directory not set"
	ErrCauseInvalidOption    CacheErrorCause = "invalid option"
	ErrCauseSourceUnreadable CacheErrorCause = "source unreadable"
	ErrCauseWriteFailure     CacheErrorCause = "write failed"
	ErrCauseDiskFull         CacheErrorCause = "disk is full"
	ErrCauseReadFailure      CacheErrorCause = "read failed"
	ErrCauseListFailure      CacheErrorCause = "list failed"
	ErrCauseRemoveFailure    CacheErrorCause = "remove failed"
)

// Sentinels for errors.Is. A *CacheError matches ErrConfiguration or ErrIO by
// kind, and ErrCacheDirectoryNotSet / ErrInvalidOption by cause.
var (
	ErrConfiguration        = errors.New("cache configuration error")
	ErrIO                   = errors.New("cache io error")
	ErrCacheDirectoryNotSet = errors.New("Cache directory not set")
	ErrInvalidOption        = errors.New("invalid cache option")
)

type CacheError struct {
	Message   string
	Retryable bool
	Cause     CacheErrorCause
	Path      string
	Err       error
}

func (e *CacheError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("cache error: %s: %v", e.Cause, e.Err)
}

func (e *CacheError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

func (e *CacheError) Kind() Kind {
	switch e.Cause {
	case ErrCauseDirectoryNotSet, ErrCauseInvalidOption:
		return KindConfiguration
	default:
		return KindIO
	}
}

func (e *CacheError) Unwrap() error {
	return e.Err
}

func (e *CacheError) Is(target error) bool {
	switch target {
	case ErrConfiguration:
		return e.Kind() == KindConfiguration
	case ErrIO:
		return e.Kind() == KindIO
	case ErrCacheDirectoryNotSet:
		return e.Cause == ErrCauseDirectoryNotSet
	case ErrInvalidOption:
		return e.Cause == ErrCauseInvalidOption
	}
	return false
}

func directoryNotSetError() *CacheError {
	return &CacheError{
		Message:   ErrCacheDirectoryNotSet.Error(),
		Retryable: false,
		Cause:     ErrCauseDirectoryNotSet,
	}
}

func invalidOptionError(name string, err error) *CacheError {
	return &CacheError{
		Message:   fmt.Sprintf("invalid value for option %s: %v", name, err),
		Retryable: false,
		Cause:     ErrCauseInvalidOption,
	}
}

func ioError(cause CacheErrorCause, path string, err error) *CacheError {
	return &CacheError{
		Message:   fmt.Sprintf("%s: %s", cause, path),
		Retryable: cause == ErrCauseDiskFull,
		Cause:     cause,
		Path:      path,
		Err:       err,
	}
}

// mapCacheErrorToMetadataCause maps cache error semantics to the canonical
// metadata.ErrorCause table. Observational only.
func mapCacheErrorToMetadataCause(err *CacheError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseDirectoryNotSet, ErrCauseInvalidOption:
		return metadata.CauseConfiguration
	case ErrCauseSourceUnreadable:
		return metadata.CauseSourceUnreadable
	case ErrCauseWriteFailure, ErrCauseDiskFull, ErrCauseReadFailure, ErrCauseListFailure, ErrCauseRemoveFailure:
		return metadata.CauseStorageFailure
	default:
		return metadata.CauseUnknown
	}
}
