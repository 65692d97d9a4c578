package filecache

import (
	"github.com/rohmanhakim/filehash-cache/pkg/hashutil"
	"github.com/spf13/cast"
)

// Recognised option names for Configure and Option.
const (
	OptionCacheDirectory = "cacheDirectory"
	OptionHashAlgo       = "hashAlgo"
)

// Config is the immutable configuration of a Cache.
// An empty cache directory means "not set".
type Config struct {
	// Directory holding the cache entries. Must already exist.
	cacheDirectory string
	// Algorithm used to fingerprint source files. Always yields 40 hex chars.
	hashAlgo hashutil.HashAlgo
}

// WithDefault starts a Config with no cache directory and SHA-1 fingerprints.
func WithDefault() *Config {
	return &Config{
		hashAlgo: hashutil.HashAlgoSHA1,
	}
}

func (c *Config) WithCacheDirectory(dir string) *Config {
	c.cacheDirectory = dir
	return c
}

func (c *Config) WithHashAlgo(algo hashutil.HashAlgo) *Config {
	c.hashAlgo = algo
	return c
}

// Build validates the hash algorithm and returns a copy.
// A missing cache directory is not a build error; operations report it.
func (c *Config) Build() (Config, error) {
	algo, err := hashutil.ParseHashAlgo(string(c.hashAlgo))
	if err != nil {
		return Config{}, invalidOptionError(OptionHashAlgo, err)
	}
	c.hashAlgo = algo
	return *c, nil
}

func (c Config) CacheDirectory() string {
	return c.cacheDirectory
}

func (c Config) HashAlgo() hashutil.HashAlgo {
	return c.hashAlgo
}

func (c Config) HasCacheDirectory() bool {
	return c.cacheDirectory != ""
}

// Options is a loosely typed partial configuration, keyed by option name.
// Unrecognised keys are ignored. A nil value counts as absent.
type Options map[string]any

// apply returns cfg with every recognised, non-nil option of opts applied.
// Nothing is applied if any recognised option holds an invalid value.
func (opts Options) apply(cfg Config) (Config, *CacheError) {
	next := cfg

	if raw, ok := opts[OptionCacheDirectory]; ok && raw != nil {
		dir, err := cast.ToStringE(raw)
		if err != nil {
			return cfg, invalidOptionError(OptionCacheDirectory, err)
		}
		next.cacheDirectory = dir
	}

	if raw, ok := opts[OptionHashAlgo]; ok && raw != nil {
		name, err := cast.ToStringE(raw)
		if err != nil {
			return cfg, invalidOptionError(OptionHashAlgo, err)
		}
		algo, err := hashutil.ParseHashAlgo(name)
		if err != nil {
			return cfg, invalidOptionError(OptionHashAlgo, err)
		}
		next.hashAlgo = algo
	}

	return next, nil
}

// OptionState tells apart the outcomes of an option lookup.
type OptionState int

const (
	// OptionUnknown: the name is a string but not a recognised option.
	OptionUnknown OptionState = iota
	// OptionUnset: the option is recognised and has no value.
	OptionUnset
	// OptionSet: the option is recognised and has a value.
	OptionSet
	// OptionInvalidName: the name was not a string at all.
	OptionInvalidName
)

func (s OptionState) String() string {
	switch s {
	case OptionUnset:
		return "unset"
	case OptionSet:
		return "set"
	case OptionInvalidName:
		return "invalid name"
	default:
		return "unknown"
	}
}

// OptionValue is the result of Cache.Option.
type OptionValue struct {
	state OptionState
	value string
}

func (v OptionValue) State() OptionState {
	return v.state
}

// Value returns the option value and true only when State is OptionSet.
func (v OptionValue) Value() (string, bool) {
	if v.state != OptionSet {
		return "", false
	}
	return v.value, true
}

// NotFound reports the "not found" outcome shared by unset and unknown
// option names. It is false for OptionInvalidName.
func (v OptionValue) NotFound() bool {
	return v.state == OptionUnset || v.state == OptionUnknown
}

func lookupOption(cfg Config, name any) OptionValue {
	key, ok := name.(string)
	if !ok {
		return OptionValue{state: OptionInvalidName}
	}

	var value string
	switch key {
	case OptionCacheDirectory:
		value = cfg.cacheDirectory
	case OptionHashAlgo:
		value = string(cfg.hashAlgo)
	default:
		return OptionValue{state: OptionUnknown}
	}

	if value == "" {
		return OptionValue{state: OptionUnset}
	}
	return OptionValue{state: OptionSet, value: value}
}
