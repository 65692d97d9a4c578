package filecache

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/rohmanhakim/filehash-cache/internal/metadata"
	"github.com/rohmanhakim/filehash-cache/pkg/failure"
	"github.com/rohmanhakim/filehash-cache/pkg/hashutil"
	"github.com/rohmanhakim/filehash-cache/pkg/set"
)

// SweepResult lists what a Keep or Clear call did, by file name, in
// directory order.
type SweepResult struct {
	removed  []string
	retained []string
	skipped  []string
}

// Removed holds the fingerprint entries deleted by the sweep.
func (r SweepResult) Removed() []string {
	return r.removed
}

// Retained holds the fingerprint entries left because they were in the retained set.
func (r SweepResult) Retained() []string {
	return r.retained
}

// Skipped holds directories and names that are not fingerprint shaped.
func (r SweepResult) Skipped() []string {
	return r.skipped
}

// Entry is a fingerprint-named file found in the cache directory.
type Entry struct {
	fingerprint string
	path        string
	size        int64
}

func (e Entry) Fingerprint() string {
	return e.fingerprint
}

func (e Entry) Path() string {
	return e.path
}

func (e Entry) Size() int64 {
	return e.size
}

// Keep deletes every fingerprint-shaped file directly inside the cache
// directory whose name is not in retained. Subdirectories and files whose
// names are not exactly 40 lowercase hex characters are never touched.
// Fingerprints in retained without a matching entry are ignored.
//
// On a removal failure the sweep stops and returns what it did so far.
func (c *Cache) Keep(retained set.Set[string]) (SweepResult, failure.ClassifiedError) {
	return c.sweep("Cache.Keep", retained)
}

// Clear removes every fingerprint-shaped entry. It is Keep with an empty set.
func (c *Cache) Clear() (SweepResult, failure.ClassifiedError) {
	return c.sweep("Cache.Clear", set.New[string]())
}

// Entries lists the fingerprint-shaped files of the cache directory,
// sorted by fingerprint.
func (c *Cache) Entries() ([]Entry, failure.ClassifiedError) {
	dir, err := c.cacheDirectory("Cache.Entries")
	if err != nil {
		return nil, err
	}

	dirEntries, readErr := os.ReadDir(dir)
	if readErr != nil {
		return nil, c.listError("Cache.Entries", dir, readErr)
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, dirEntry := range dirEntries {
		if !hashutil.IsFingerprint(dirEntry.Name()) {
			continue
		}
		path := filepath.Join(dir, dirEntry.Name())
		info, statErr := os.Stat(path)
		if statErr != nil {
			if errors.Is(statErr, fs.ErrNotExist) {
				continue
			}
			return nil, c.listError("Cache.Entries", path, statErr)
		}
		if info.IsDir() {
			continue
		}
		entries = append(entries, Entry{
			fingerprint: dirEntry.Name(),
			path:        path,
			size:        info.Size(),
		})
	}
	return entries, nil
}

func (c *Cache) sweep(action string, retained set.Set[string]) (SweepResult, failure.ClassifiedError) {
	dir, err := c.cacheDirectory(action)
	if err != nil {
		return SweepResult{}, err
	}

	start := time.Now()
	dirEntries, readErr := os.ReadDir(dir)
	if readErr != nil {
		return SweepResult{}, c.listError(action, dir, readErr)
	}

	result := SweepResult{}
	for _, dirEntry := range dirEntries {
		name := dirEntry.Name()
		path := filepath.Join(dir, name)

		if isDirectory(path, dirEntry) || !hashutil.IsFingerprint(name) {
			result.skipped = append(result.skipped, name)
			continue
		}

		if retained.Contains(name) {
			result.retained = append(result.retained, name)
			continue
		}

		if removeErr := os.Remove(path); removeErr != nil && !errors.Is(removeErr, fs.ErrNotExist) {
			cacheErr := ioError(ErrCauseRemoveFailure, path, removeErr)
			c.recordError(action, cacheErr, []metadata.Attribute{
				metadata.NewAttr(metadata.AttrEntryPath, path),
			})
			c.recordSweep(dir, len(dirEntries), result, start)
			return result, cacheErr
		}
		result.removed = append(result.removed, name)
	}

	c.recordSweep(dir, len(dirEntries), result, start)
	return result, nil
}

func (c *Cache) listError(action string, path string, err error) *CacheError {
	cacheErr := ioError(ErrCauseListFailure, path, err)
	c.recordError(action, cacheErr, nil)
	return cacheErr
}

func (c *Cache) recordSweep(dir string, scanned int, result SweepResult, start time.Time) {
	c.metadataSink.RecordSweep(metadata.NewSweepStats(
		dir,
		scanned,
		len(result.removed),
		len(result.retained),
		len(result.skipped),
		time.Since(start),
	))
}

// isDirectory follows symlinks so a link to a directory counts as one.
func isDirectory(path string, entry fs.DirEntry) bool {
	if entry.IsDir() {
		return true
	}
	if entry.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
