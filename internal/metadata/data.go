package metadata

import (
	"time"
)

/*
	ErrorCause is a closed classification used only for observability.

	Rules:
	 - ErrorCause MUST NOT influence control flow.
	 - Callers decide retries from failure.Severity, never from ErrorCause.
	 - Packages MAY map their local errors to ErrorCause but MUST NOT invent
	   new meanings. Anything that does not clearly match uses CauseUnknown.
*/
type ErrorCause int

/*
Canonical ErrorCause Table

# CauseUnknown

  - Fallback for failures that do not map to a known category.

# CauseConfiguration

  - The cache was used before it was given a directory.
  - An option carried a value of the wrong type.

# CauseSourceUnreadable

  - The source file being fingerprinted is missing or unreadable.

# CauseStorageFailure

  - Writing, reading, listing or removing inside the cache directory failed.
  - Disk full, permission errors.
*/
const (
	CauseUnknown ErrorCause = iota
	CauseConfiguration
	CauseSourceUnreadable
	CauseStorageFailure
)

func (c ErrorCause) String() string {
	switch c {
	case CauseConfiguration:
		return "configuration"
	case CauseSourceUnreadable:
		return "source_unreadable"
	case CauseStorageFailure:
		return "storage_failure"
	default:
		return "unknown"
	}
}

type ArtifactKind string

const (
	ArtifactCacheEntry ArtifactKind = "cache_entry"
)

type Attribute struct {
	Key   AttributeKey
	Value string
}

func NewAttr(key AttributeKey, val string) Attribute {
	return Attribute{
		Key:   key,
		Value: val,
	}
}

type AttributeKey string

const (
	AttrCacheDir    AttributeKey = "cache_dir"
	AttrSourcePath  AttributeKey = "source_path"
	AttrFingerprint AttributeKey = "fingerprint"
	AttrEntryPath   AttributeKey = "entry_path"
	AttrHashAlgo    AttributeKey = "hash_algo"
	AttrBytes       AttributeKey = "bytes"
	AttrField       AttributeKey = "field"
)

/*
SweepStats summarises one reconciliation sweep.
  - Recorded once per Keep/Clear call, after the directory scan finishes
  - Counts only; names stay with the caller's SweepResult
*/
type SweepStats struct {
	cacheDir string
	scanned  int
	removed  int
	retained int
	skipped  int
	duration time.Duration
}

func NewSweepStats(
	cacheDir string,
	scanned int,
	removed int,
	retained int,
	skipped int,
	duration time.Duration,
) SweepStats {
	return SweepStats{
		cacheDir: cacheDir,
		scanned:  scanned,
		removed:  removed,
		retained: retained,
		skipped:  skipped,
		duration: duration,
	}
}

func (s SweepStats) CacheDir() string        { return s.cacheDir }
func (s SweepStats) Scanned() int            { return s.scanned }
func (s SweepStats) Removed() int            { return s.removed }
func (s SweepStats) Retained() int           { return s.retained }
func (s SweepStats) Skipped() int            { return s.skipped }
func (s SweepStats) Duration() time.Duration { return s.duration }
