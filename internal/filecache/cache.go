package filecache

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/rohmanhakim/filehash-cache/internal/metadata"
	"github.com/rohmanhakim/filehash-cache/pkg/failure"
	"github.com/rohmanhakim/filehash-cache/pkg/hashutil"
	"github.com/rohmanhakim/filehash-cache/pkg/set"
)

/*
Responsibilities
- Fingerprint source files by content
- Map fingerprints to flat files in the cache directory
- Reconcile the directory against a retained set of fingerprints

Layout
- <cacheDirectory>/<40 lowercase hex chars>, content = payload, nothing else

Limitations
- No locking, no temp-then-rename: a concurrent Store and Keep may race
- The cache directory must already exist
*/

const packageName = "filecache"

type Cache struct {
	cfg          Config
	metadataSink metadata.MetadataSink
}

// NewCache returns a cache over cfg. A nil sink discards metadata.
func NewCache(cfg Config, metadataSink metadata.MetadataSink) *Cache {
	if metadataSink == nil {
		metadataSink = &metadata.NoopSink{}
	}
	if cfg.hashAlgo == "" {
		cfg.hashAlgo = hashutil.HashAlgoSHA1
	}
	return &Cache{
		cfg:          cfg,
		metadataSink: metadataSink,
	}
}

func (c *Cache) Config() Config {
	return c.cfg
}

// Configure applies the recognised keys of opts on top of the current
// configuration. Omitted keys keep their value; unknown keys are ignored.
func (c *Cache) Configure(opts Options) failure.ClassifiedError {
	next, err := opts.apply(c.cfg)
	if err != nil {
		c.recordError("Cache.Configure", err, nil)
		return err
	}
	c.cfg = next
	return nil
}

// Option looks up a configuration value by name. See OptionState for the
// possible outcomes; a non-string name yields OptionInvalidName.
func (c *Cache) Option(name any) OptionValue {
	return lookupOption(c.cfg, name)
}

// Fingerprint returns the 40 hex char digest of the contents of the file at path.
// It does not need a cache directory.
func (c *Cache) Fingerprint(path string) (string, failure.ClassifiedError) {
	fingerprint, err := hashutil.HashFile(path, c.cfg.hashAlgo)
	if err != nil {
		cacheErr := ioError(ErrCauseSourceUnreadable, path, err)
		c.recordError("Cache.Fingerprint", cacheErr, []metadata.Attribute{
			metadata.NewAttr(metadata.AttrSourcePath, path),
			metadata.NewAttr(metadata.AttrHashAlgo, string(c.cfg.hashAlgo)),
		})
		return "", cacheErr
	}
	return fingerprint, nil
}

// FingerprintAll fingerprints every path and returns the distinct results,
// ready to be passed to Keep. It stops at the first unreadable path.
func (c *Cache) FingerprintAll(paths ...string) (set.Set[string], failure.ClassifiedError) {
	fingerprints := set.New[string]()
	for _, path := range paths {
		fingerprint, err := c.Fingerprint(path)
		if err != nil {
			return nil, err
		}
		fingerprints.Add(fingerprint)
	}
	return fingerprints, nil
}

// Locate returns the entry path for the contents of the file at path.
// The directory check happens before the source file is touched.
func (c *Cache) Locate(path string) (string, failure.ClassifiedError) {
	return c.locate("Cache.Locate", path)
}

// Store writes data as the entry for path's contents, replacing any
// previous entry for the same contents.
func (c *Cache) Store(path string, data []byte) failure.ClassifiedError {
	location, err := c.locate("Cache.Store", path)
	if err != nil {
		return err
	}

	if err := os.WriteFile(location, data, 0644); err != nil {
		cause := ErrCauseWriteFailure
		if errors.Is(err, syscall.ENOSPC) {
			cause = ErrCauseDiskFull
		}
		cacheErr := ioError(cause, location, err)
		c.recordError("Cache.Store", cacheErr, []metadata.Attribute{
			metadata.NewAttr(metadata.AttrSourcePath, path),
			metadata.NewAttr(metadata.AttrEntryPath, location),
		})
		return cacheErr
	}

	c.metadataSink.RecordArtifact(
		metadata.ArtifactCacheEntry,
		location,
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrSourcePath, path),
			metadata.NewAttr(metadata.AttrFingerprint, filepath.Base(location)),
			metadata.NewAttr(metadata.AttrBytes, strconv.Itoa(len(data))),
		},
	)
	return nil
}

// Has reports whether an entry exists for path's contents.
func (c *Cache) Has(path string) (bool, failure.ClassifiedError) {
	location, err := c.locate("Cache.Has", path)
	if err != nil {
		return false, err
	}

	if _, statErr := os.Stat(location); statErr != nil {
		if errors.Is(statErr, fs.ErrNotExist) {
			return false, nil
		}
		cacheErr := ioError(ErrCauseReadFailure, location, statErr)
		c.recordError("Cache.Has", cacheErr, []metadata.Attribute{
			metadata.NewAttr(metadata.AttrEntryPath, location),
		})
		return false, cacheErr
	}
	return true, nil
}

// Fetch returns the stored payload for path's contents. The boolean is false
// on a cache miss, which is not an error.
func (c *Cache) Fetch(path string) ([]byte, bool, failure.ClassifiedError) {
	location, err := c.locate("Cache.Fetch", path)
	if err != nil {
		return nil, false, err
	}

	data, readErr := os.ReadFile(location)
	if readErr != nil {
		if errors.Is(readErr, fs.ErrNotExist) {
			return nil, false, nil
		}
		cacheErr := ioError(ErrCauseReadFailure, location, readErr)
		c.recordError("Cache.Fetch", cacheErr, []metadata.Attribute{
			metadata.NewAttr(metadata.AttrEntryPath, location),
		})
		return nil, false, cacheErr
	}
	return data, true, nil
}

// FetchOr is Fetch with fallback returned on a miss.
func (c *Cache) FetchOr(path string, fallback []byte) ([]byte, failure.ClassifiedError) {
	data, ok, err := c.Fetch(path)
	if err != nil {
		return nil, err
	}
	if !ok {
		return fallback, nil
	}
	return data, nil
}

func (c *Cache) locate(action string, path string) (string, failure.ClassifiedError) {
	dir, err := c.cacheDirectory(action)
	if err != nil {
		return "", err
	}

	fingerprint, err := c.Fingerprint(path)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fingerprint), nil
}

func (c *Cache) cacheDirectory(action string) (string, failure.ClassifiedError) {
	if !c.cfg.HasCacheDirectory() {
		cacheErr := directoryNotSetError()
		c.recordError(action, cacheErr, nil)
		return "", cacheErr
	}
	return c.cfg.cacheDirectory, nil
}

func (c *Cache) recordError(action string, err *CacheError, attrs []metadata.Attribute) {
	if c.cfg.HasCacheDirectory() {
		attrs = append(attrs, metadata.NewAttr(metadata.AttrCacheDir, c.cfg.cacheDirectory))
	}
	c.metadataSink.RecordError(
		time.Now(),
		packageName,
		action,
		mapCacheErrorToMetadataCause(err),
		err.Error(),
		attrs,
	)
}
