package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"git.home.luguber.info/inful/assetbuilder/internal/bundler"
	"git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/assetbuilder/internal/manifest"
	"git.home.luguber.info/inful/assetbuilder/internal/workspace"
)

// ValidateConfig validates the complete configuration.
func ValidateConfig(cfg *Config) error {
	return newConfigurationValidator(cfg).validate()
}

type configurationValidator struct {
	config *Config
}

func newConfigurationValidator(config *Config) *configurationValidator {
	return &configurationValidator{config: config}
}

func (cv *configurationValidator) validate() error {
	if cv.config.Version != CurrentVersion {
		return invalid("unsupported configuration version %q (expected %s)", cv.config.Version, CurrentVersion)
	}
	for _, step := range []func() error{
		cv.validateSources,
		cv.validatePaths,
		cv.validateLint,
		cv.validateTools,
		cv.validateWatch,
		cv.validateIntegrations,
	} {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

// validateSources checks manifest patterns so a malformed glob fails before any stage runs.
func (cv *configurationValidator) validateSources() error {
	s := &cv.config.Sources
	for _, m := range []manifest.Manifest{s.Ordered, s.Modular, s.Styles, s.Static} {
		if err := manifest.Validate(m); err != nil {
			return err
		}
	}
	return nil
}

func (cv *configurationValidator) validatePaths() error {
	p := cv.config.Paths
	for name, rel := range map[string]string{"staging_dir": p.StagingDir, "bundle_path": p.BundlePath, "styles_dir": p.StylesDir} {
		if strings.HasPrefix(rel, "/") || strings.HasPrefix(rel, "..") {
			return invalid("paths.%s must be relative to the output directory: %s", name, rel)
		}
	}
	if strings.ContainsAny(p.EntryName, `/\`) {
		return invalid("paths.entry_name must be a file name: %s", p.EntryName)
	}
	return cv.config.Layout().CheckSafe(cv.config.BaseDir, cv.config.Sources.Roots()...)
}

func (cv *configurationValidator) validateLint() error {
	l := cv.config.Lint
	if !slices.Contains([]string{"builtin", "eslint"}, strings.ToLower(l.Engine)) {
		return invalid("lint.engine must be builtin or eslint: %s", l.Engine)
	}
	if !slices.Contains([]string{"text", "json"}, strings.ToLower(l.Format)) {
		return invalid("lint.format must be text or json: %s", l.Format)
	}
	for _, src := range l.Sources {
		if _, ok := cv.config.Sources.Manifest(src); !ok {
			return invalid("lint.sources references unknown manifest %q", src)
		}
	}
	return nil
}

func (cv *configurationValidator) validateTools() error {
	if _, err := bundler.ParseTarget(cv.config.Bundle.Target); err != nil {
		return err
	}
	if !slices.Contains([]string{"auto", "sass", "esbuild"}, strings.ToLower(cv.config.Styles.Compiler)) {
		return invalid("styles.compiler must be auto, sass or esbuild: %s", cv.config.Styles.Compiler)
	}
	return nil
}

func (cv *configurationValidator) validateWatch() error {
	w := cv.config.Watch
	if w.Task != "compile" && w.Task != "build" {
		return invalid("watch.task must be compile or build: %s", w.Task)
	}
	for name, raw := range map[string]string{"debounce": w.Debounce, "max_delay": w.MaxDelay, "rebuild_every": w.RebuildEvery} {
		if raw == "" {
			continue
		}
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			return invalid("watch.%s is not a valid duration: %s", name, raw)
		}
	}
	return nil
}

func (cv *configurationValidator) validateIntegrations() error {
	t := cv.config.Tracing
	if t.Enabled && !slices.Contains([]string{"none", "stdout", "otlp"}, t.Exporter) {
		return invalid("tracing.exporter must be none, stdout or otlp: %s", t.Exporter)
	}
	if t.SampleRate < 0 || t.SampleRate > 1 {
		return invalid("tracing.sample_rate must be within [0,1]: %v", t.SampleRate)
	}
	if cv.config.Notify.Enabled && cv.config.Notify.Subject == "" {
		return invalid("notify.subject is required when notifications are enabled")
	}
	return nil
}

func invalid(format string, args ...any) error {
	return errors.ConfigError(fmt.Sprintf(format, args...)).Build()
}

// Layout returns the output layout described by the paths section.
func (c *Config) Layout() workspace.Layout {
	return workspace.Layout{
		Output:     c.Paths.Output,
		StagingDir: c.Paths.StagingDir,
		EntryName:  c.Paths.EntryName,
		BundlePath: c.Paths.BundlePath,
		StylesDir:  c.Paths.StylesDir,
	}
}

// DebounceDuration returns the parsed watch quiet window.
func (w WatchConfig) DebounceDuration() time.Duration {
	return parseDurationOr(w.Debounce, 300*time.Millisecond)
}

// MaxDelayDuration returns the parsed watch maximum delay.
func (w WatchConfig) MaxDelayDuration() time.Duration {
	return parseDurationOr(w.MaxDelay, 5*time.Second)
}

// RebuildInterval returns the periodic rebuild interval, zero when disabled.
func (w WatchConfig) RebuildInterval() time.Duration {
	return parseDurationOr(w.RebuildEvery, 0)
}

func parseDurationOr(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}
