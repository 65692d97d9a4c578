package hashutil

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"

	"lukechampine.com/blake3"
)

type HashAlgo string

const (
	HashAlgoSHA1   HashAlgo = "sha1"
	HashAlgoBLAKE3 HashAlgo = "blake3"
)

// FingerprintLength is the number of hex characters in every fingerprint,
// whatever the algorithm. BLAKE3 is truncated to 160 bits to match SHA-1.
const FingerprintLength = 40

const fingerprintSize = FingerprintLength / 2

var ErrUnsupportedAlgo = errors.New("unsupported hash algorithm")

// ParseHashAlgo maps a user supplied name to a HashAlgo.
// An empty name selects SHA-1.
func ParseHashAlgo(name string) (HashAlgo, error) {
	switch HashAlgo(strings.ToLower(strings.TrimSpace(name))) {
	case "", HashAlgoSHA1:
		return HashAlgoSHA1, nil
	case HashAlgoBLAKE3:
		return HashAlgoBLAKE3, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedAlgo, name)
	}
}

// HashBytes returns the hash of bytes as a lowercase hex string using the specified algorithm.
func HashBytes(data []byte, algo HashAlgo) (string, error) {
	h, err := newHasher(algo)
	if err != nil {
		return "", err
	}
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashReader consumes r until EOF and returns the hex digest of everything read.
// Read errors are returned unchanged.
func HashReader(r io.Reader, algo HashAlgo) (string, error) {
	h, err := newHasher(algo)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashFile returns the hex digest of the full contents of the file at path.
// The file name and location do not contribute to the digest.
// Errors from opening or reading the file are returned unchanged.
func HashFile(path string, algo HashAlgo) (string, error) {
	if _, err := newHasher(algo); err != nil {
		return "", err
	}

	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	return HashReader(f, algo)
}

// IsFingerprint reports whether name has the shape of a fingerprint:
// exactly FingerprintLength characters, all in [0-9a-f].
// It does not check that name is the digest of anything.
func IsFingerprint(name string) bool {
	if len(name) != FingerprintLength {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

func newHasher(algo HashAlgo) (hash.Hash, error) {
	switch algo {
	case HashAlgoSHA1:
		return sha1.New(), nil
	case HashAlgoBLAKE3:
		return blake3.New(fingerprintSize, nil), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAlgo, algo)
	}
}
