// Package config resolves stylepipe's settings from, in increasing order of
// precedence: built-in defaults, a stylepipe.toml or stylepipe.yaml at the
// project root, STYLEPIPE_* environment variables, and explicit overrides
// (the command-line flags).
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/sjc5/stylepipe/internal/pkgmeta"
)

const EnvPrefix = "STYLEPIPE_"

// Looked up at the project root, in this order, when no file is named.
var DefaultFiles = []string{"stylepipe.toml", "stylepipe.yaml", "stylepipe.yml"}

//go:embed embedded/defaults.toml
var defaultConfig []byte

// rawBytesProvider implements koanf provider for raw bytes
type rawBytesProvider struct{ bytes []byte }

func (r *rawBytesProvider) ReadBytes() ([]byte, error) { return r.bytes, nil }
func (r *rawBytesProvider) Read() (map[string]interface{}, error) {
	return nil, errors.New("not implemented")
}

type Settings struct {
	Root         string `koanf:"root"`
	SrcDir       string `koanf:"src_dir"`
	DistDir      string `koanf:"dist_dir"`
	Pattern      string `koanf:"pattern"`
	Normalize    bool   `koanf:"normalize"`
	Concurrency  int64  `koanf:"concurrency"`
	MetadataFile string `koanf:"metadata_file"`
	Verbosity    int    `koanf:"verbosity"`

	Compiler CompilerSettings `koanf:"compiler"`
	Notify   NotifySettings   `koanf:"notify"`
	Watch    WatchSettings    `koanf:"watch"`

	// Metadata holds the [metadata] table, which wins over the metadata
	// file field by field.
	Metadata pkgmeta.Metadata `koanf:"-"`

	// ConfigFile is the file that was loaded, if any.
	ConfigFile string `koanf:"-"`
}

type CompilerSettings struct {
	Kind         string        `koanf:"kind"`
	Binary       string        `koanf:"binary"`
	IncludePaths []string      `koanf:"include_paths"`
	Timeout      time.Duration `koanf:"timeout"`
}

type NotifySettings struct {
	Kind string `koanf:"kind"`
}

type WatchSettings struct {
	Debounce     time.Duration `koanf:"debounce"`
	BuildOnStart bool          `koanf:"build_on_start"`
	IgnoreDirs   []string      `koanf:"ignore_dirs"`
	IgnoreFiles  []string      `koanf:"ignore_files"`
}

type Options struct {
	// Root is where the config file is looked for. Defaults to ".".
	Root string

	// File names the config file explicitly. It must exist.
	File string

	// Overrides are applied last, keyed by koanf path ("watch.debounce").
	Overrides map[string]interface{}

	// Environ replaces os.Environ, for tests.
	Environ []string
}

// Load resolves the settings.
func Load(opts Options) (*Settings, error) {
	k := koanf.New(".")

	// 1. Built-in defaults
	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Project config file
	configFile, err := findConfigFile(opts)
	if err != nil {
		return nil, err
	}
	if configFile != "" {
		parser, err := parserFor(configFile)
		if err != nil {
			return nil, err
		}
		if err := k.Load(file.Provider(configFile), parser); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", configFile, err)
		}
	}

	// 3. Environment
	if err := k.Load(envProvider(opts.Environ), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Explicit overrides
	if len(opts.Overrides) > 0 {
		if err := k.Load(confmap.Provider(opts.Overrides, "."), nil); err != nil {
			return nil, fmt.Errorf("failed to load overrides: %w", err)
		}
	}

	var s Settings
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &s,
			TagName:          "koanf",
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
		},
	}
	if err := k.UnmarshalWithConf("", &s, unmarshalConf); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if k.Exists("metadata") {
		if s.Metadata, err = pkgmeta.FromKoanf(k, "metadata"); err != nil {
			return nil, err
		}
	}
	s.ConfigFile = configFile

	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// envProvider maps STYLEPIPE_SRC_DIR to src_dir and
// STYLEPIPE_WATCH__DEBOUNCE to watch.debounce.
func envProvider(environ []string) koanf.Provider {
	transform := func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}
	if environ == nil {
		return env.Provider(EnvPrefix, ".", transform)
	}

	m := map[string]interface{}{}
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, EnvPrefix) {
			continue
		}
		m[transform(key)] = value
	}
	return confmap.Provider(m, ".")
}

func findConfigFile(opts Options) (string, error) {
	if opts.File != "" {
		if _, err := os.Stat(opts.File); err != nil {
			return "", fmt.Errorf("config file %s: %w", opts.File, err)
		}
		return opts.File, nil
	}

	root := opts.Root
	if root == "" {
		root = "."
	}
	for _, name := range DefaultFiles {
		path := filepath.Join(root, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", nil
}

func parserFor(path string) (koanf.Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return toml.Parser(), nil
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	case ".json":
		return json.Parser(), nil
	}
	return nil, fmt.Errorf("unsupported config file type: %s", path)
}

func (s *Settings) validate() error {
	switch s.Compiler.Kind {
	case "embedded", "cli", "css":
	default:
		return fmt.Errorf("invalid compiler.kind %q (want embedded, cli or css)", s.Compiler.Kind)
	}
	switch s.Notify.Kind {
	case "desktop", "log", "none":
	default:
		return fmt.Errorf("invalid notify.kind %q (want desktop, log or none)", s.Notify.Kind)
	}
	if s.Concurrency < 1 {
		return fmt.Errorf("invalid concurrency %d (want at least 1)", s.Concurrency)
	}
	return nil
}

// ResolveMetadata reads the metadata file (relative to Root; a missing file
// is fine) and applies the [metadata] table on top.
func (s *Settings) ResolveMetadata() (pkgmeta.Metadata, error) {
	var md pkgmeta.Metadata
	if s.MetadataFile != "" {
		path := s.MetadataFile
		if !filepath.IsAbs(path) {
			path = filepath.Join(s.Root, path)
		}
		var err error
		if md, err = pkgmeta.LoadOptional(path); err != nil {
			return pkgmeta.Metadata{}, err
		}
	}
	return md.Merge(s.Metadata), nil
}
