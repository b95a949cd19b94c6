package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/assetbuilder/internal/lint"
	"git.home.luguber.info/inful/assetbuilder/internal/manifest"
	"git.home.luguber.info/inful/assetbuilder/internal/observability"
)

// CurrentVersion is the configuration schema version written by Init.
const CurrentVersion = "1"

// DefaultFile is the configuration file name used when none is given.
const DefaultFile = "assetbuilder.yaml"

// Config is the assetbuilder configuration document.
type Config struct {
	Version string                      `yaml:"version"`
	Paths   PathsConfig                 `yaml:"paths"`
	Sources SourcesConfig               `yaml:"sources"`
	Lint    LintConfig                  `yaml:"lint"`
	Bundle  BundleConfig                `yaml:"bundle"`
	Styles  StylesConfig                `yaml:"styles"`
	Watch   WatchConfig                 `yaml:"watch"`
	Metrics MetricsConfig               `yaml:"metrics"`
	Tracing observability.TracingConfig `yaml:"tracing"`
	History HistoryConfig               `yaml:"history"`
	Notify  NotifyConfig                `yaml:"notify"`

	// BaseDir is the directory relative paths are resolved against.
	BaseDir string `yaml:"-"`
}

// PathsConfig locates the output tree and its well-known artifacts.
type PathsConfig struct {
	Output string `yaml:"output"`
	// StagingDir, BundlePath and StylesDir are relative to Output.
	StagingDir string `yaml:"staging_dir"`
	EntryName  string `yaml:"entry_name"`
	BundlePath string `yaml:"bundle_path"`
	StylesDir  string `yaml:"styles_dir"`
	// Report, when set, receives run-report.json after every run.
	Report string `yaml:"report,omitempty"`
}

// SourcesConfig holds the four source manifests.
type SourcesConfig struct {
	// Ordered is the legacy load-order list concatenated into the entry artifact.
	Ordered manifest.Manifest `yaml:"ordered"`
	// Modular files are staged beside the entry artifact.
	Modular manifest.Manifest `yaml:"modular"`
	Styles  manifest.Manifest `yaml:"styles"`
	Static  manifest.Manifest `yaml:"static"`
}

// Manifest names used in configuration and logs.
const (
	ManifestOrdered = "ordered"
	ManifestModular = "modular"
	ManifestStyles  = "styles"
	ManifestStatic  = "static"
)

// Manifest returns the manifest registered under name.
func (s *SourcesConfig) Manifest(name string) (manifest.Manifest, bool) {
	switch name {
	case ManifestOrdered:
		return s.Ordered, true
	case ManifestModular:
		return s.Modular, true
	case ManifestStyles:
		return s.Styles, true
	case ManifestStatic:
		return s.Static, true
	default:
		return manifest.Manifest{}, false
	}
}

// Roots returns every manifest root.
func (s *SourcesConfig) Roots() []string {
	return []string{s.Ordered.Root, s.Modular.Root, s.Styles.Root, s.Static.Root}
}

// LintConfig configures the lint gate.
type LintConfig struct {
	// Engine is "builtin" or "eslint".
	Engine string `yaml:"engine"`
	// Sources lists the manifests whose files are linted.
	Sources      []string `yaml:"sources"`
	Format       string   `yaml:"format"`
	ESLintBinary string   `yaml:"eslint_binary,omitempty"`

	lint.RuleConfig `yaml:",inline"`
}

// BundleConfig is the transform configuration handed to the bundler.
type BundleConfig struct {
	Target string            `yaml:"target"`
	Minify bool              `yaml:"minify"`
	Define map[string]string `yaml:"define,omitempty"`
	// Banner stamps the source revision into the bundle.
	Banner bool `yaml:"banner"`
}

// StylesConfig selects the style compiler.
type StylesConfig struct {
	// Compiler is "auto", "sass" or "esbuild".
	Compiler   string   `yaml:"compiler"`
	SassBinary string   `yaml:"sass_binary,omitempty"`
	LoadPaths  []string `yaml:"load_paths,omitempty"`
}

// WatchConfig configures the watch controller.
type WatchConfig struct {
	// Task is the operation re-run on change: "compile" or "build".
	Task  string   `yaml:"task"`
	Paths []string `yaml:"paths"`
	// Debounce is the quiet window after the last change event.
	Debounce string `yaml:"debounce"`
	// MaxDelay bounds how long a continuous event stream can postpone a run.
	MaxDelay string `yaml:"max_delay"`
	// RebuildEvery schedules periodic full runs; empty disables.
	RebuildEvery string `yaml:"rebuild_every,omitempty"`
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
	// Listen is the address of the /metrics endpoint in watch mode.
	Listen string `yaml:"listen"`
}

// HistoryInMemory as history.path keeps run history in memory for the process lifetime.
const HistoryInMemory = ":memory:"

// HistoryConfig configures the run history store.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// NotifyConfig configures run-completed notifications over NATS.
type NotifyConfig struct {
	Enabled   bool   `yaml:"enabled"`
	URL       string `yaml:"url"`
	Subject   string `yaml:"subject"`
	JetStream bool   `yaml:"jetstream"`
}

// Load reads, normalizes, defaults and validates the configuration at configPath.
// Environment variables from .env files next to the configuration are loaded
// before ${VAR} references are expanded.
func Load(configPath string) (*Config, error) {
	abs, err := filepath.Abs(configPath)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "resolve configuration path").Build()
	}
	baseDir := filepath.Dir(abs)
	loadEnvFiles(baseDir)

	// #nosec G304 -- the configuration path is operator input
	data, err := os.ReadFile(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigError(fmt.Sprintf("configuration file not found: %s", configPath)).
				WithContext("hint", "run 'assetbuilder init' to create one").
				Build()
		}
		return nil, errors.WrapError(err, errors.CategoryConfig, "read configuration").WithFile(abs).Build()
	}
	return Parse(data, baseDir)
}

// Parse decodes a configuration document whose relative paths are rooted at baseDir.
func Parse(data []byte, baseDir string) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "decode configuration").Build()
	}
	cfg.BaseDir = baseDir

	if err := applyDefaults(&cfg); err != nil {
		return nil, err
	}
	cfg.resolvePaths()
	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Abs resolves p against BaseDir unless it is already absolute.
func (c *Config) Abs(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.BaseDir, p)
}

// resolvePaths anchors every filesystem location at BaseDir.
func (c *Config) resolvePaths() {
	c.Paths.Output = c.Abs(c.Paths.Output)
	c.Paths.Report = c.Abs(c.Paths.Report)
	c.Sources.Ordered.Root = c.Abs(c.Sources.Ordered.Root)
	c.Sources.Modular.Root = c.Abs(c.Sources.Modular.Root)
	c.Sources.Styles.Root = c.Abs(c.Sources.Styles.Root)
	c.Sources.Static.Root = c.Abs(c.Sources.Static.Root)
	for i, p := range c.Watch.Paths {
		c.Watch.Paths[i] = c.Abs(p)
	}
	for i, p := range c.Styles.LoadPaths {
		c.Styles.LoadPaths[i] = c.Abs(p)
	}
	if c.History.Path != HistoryInMemory {
		c.History.Path = c.Abs(c.History.Path)
	}
}
