package filecache_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rohmanhakim/filehash-cache/internal/filecache"
	"github.com/rohmanhakim/filehash-cache/internal/metadata"
	"github.com/stretchr/testify/require"
)

const (
	fooFingerprint = "0beec7b5ea3f0fdbc95d0dd47f3c5bc275da8a33"
	barFingerprint = "62cdb7020ff920e5aa642c3d4066950dd1f01f4d"
)

// metadataSinkMock records every call for assertions.
type metadataSinkMock struct {
	errors    []recordedError
	artifacts []recordedArtifact
	sweeps    []metadata.SweepStats
}

type recordedError struct {
	observedAt  time.Time
	packageName string
	action      string
	cause       metadata.ErrorCause
	details     string
	attrs       []metadata.Attribute
}

type recordedArtifact struct {
	kind  metadata.ArtifactKind
	path  string
	attrs []metadata.Attribute
}

func (m *metadataSinkMock) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause metadata.ErrorCause,
	details string,
	attrs []metadata.Attribute,
) {
	m.errors = append(m.errors, recordedError{
		observedAt:  observedAt,
		packageName: packageName,
		action:      action,
		cause:       cause,
		details:     details,
		attrs:       attrs,
	})
}

func (m *metadataSinkMock) RecordArtifact(kind metadata.ArtifactKind, path string, attrs []metadata.Attribute) {
	m.artifacts = append(m.artifacts, recordedArtifact{kind: kind, path: path, attrs: attrs})
}

func (m *metadataSinkMock) RecordSweep(stats metadata.SweepStats) {
	m.sweeps = append(m.sweeps, stats)
}

// fixture holds a cache directory and a source directory with foo.txt and bar.txt.
type fixture struct {
	cacheDir string
	fooPath  string
	barPath  string
	sink     *metadataSinkMock
	cache    *filecache.Cache
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	root := t.TempDir()
	cacheDir := filepath.Join(root, "cache")
	filesDir := filepath.Join(root, "files")
	require.NoError(t, os.MkdirAll(cacheDir, 0755))
	require.NoError(t, os.MkdirAll(filesDir, 0755))

	fooPath := writeFile(t, filepath.Join(filesDir, "foo.txt"), "foo")
	barPath := writeFile(t, filepath.Join(filesDir, "bar.txt"), "bar")

	cfg, err := filecache.WithDefault().WithCacheDirectory(cacheDir).Build()
	require.NoError(t, err)

	sink := &metadataSinkMock{}
	return fixture{
		cacheDir: cacheDir,
		fooPath:  fooPath,
		barPath:  barPath,
		sink:     sink,
		cache:    filecache.NewCache(cfg, sink),
	}
}

func writeFile(t *testing.T, path string, content string) string {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func dirNames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func findAttrValue(attrs []metadata.Attribute, key metadata.AttributeKey) string {
	for _, attr := range attrs {
		if attr.Key == key {
			return attr.Value
		}
	}
	return ""
}
