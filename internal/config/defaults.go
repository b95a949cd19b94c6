package config

import (
	"fmt"

	"git.home.luguber.info/inful/assetbuilder/internal/bundler"
	"git.home.luguber.info/inful/assetbuilder/internal/workspace"
)

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

// PathsDefaultApplier handles output layout defaults.
type PathsDefaultApplier struct{}

func (PathsDefaultApplier) Domain() string { return "paths" }

func (PathsDefaultApplier) ApplyDefaults(cfg *Config) error {
	p := &cfg.Paths
	if p.Output == "" {
		p.Output = "output"
	}
	if p.StagingDir == "" {
		p.StagingDir = workspace.DefaultStagingDir
	}
	if p.EntryName == "" {
		p.EntryName = workspace.DefaultEntryName
	}
	if p.BundlePath == "" {
		p.BundlePath = workspace.DefaultBundlePath
	}
	if p.StylesDir == "" {
		p.StylesDir = workspace.DefaultStylesDir
	}
	return nil
}

// SourcesDefaultApplier names the manifests and fills the default layout.
type SourcesDefaultApplier struct{}

func (SourcesDefaultApplier) Domain() string { return "sources" }

func (SourcesDefaultApplier) ApplyDefaults(cfg *Config) error {
	s := &cfg.Sources
	s.Ordered.Name, s.Ordered.Ordered = ManifestOrdered, true
	s.Modular.Name = ManifestModular
	s.Styles.Name = ManifestStyles
	s.Static.Name = ManifestStatic

	if s.Ordered.Root == "" {
		s.Ordered.Root = "source/scripts/ordered"
	}
	if s.Modular.Root == "" {
		s.Modular.Root = "source/scripts/modular"
	}
	if len(s.Modular.Entries) == 0 {
		s.Modular.Entries = []string{"**/*.js"}
	}
	if s.Styles.Root == "" {
		s.Styles.Root = "source/styles"
	}
	if len(s.Styles.Entries) == 0 {
		s.Styles.Entries = []string{"*.scss", "*.sass", "*.css"}
	}
	// Unmatched style and static patterns are routine.
	s.Styles.AllowEmpty = true
	if s.Static.Root == "" {
		s.Static.Root = "static"
	}
	if len(s.Static.Entries) == 0 {
		s.Static.Entries = []string{"**/*"}
	}
	s.Static.AllowEmpty = true
	return nil
}

// LintDefaultApplier handles lint gate defaults.
type LintDefaultApplier struct{}

func (LintDefaultApplier) Domain() string { return "lint" }

func (LintDefaultApplier) ApplyDefaults(cfg *Config) error {
	l := &cfg.Lint
	if l.Engine == "" {
		l.Engine = "builtin"
	}
	if len(l.Sources) == 0 {
		l.Sources = []string{ManifestOrdered, ManifestModular}
	}
	if l.Format == "" {
		l.Format = "text"
	}
	return nil
}

// ToolDefaultApplier handles bundler and style compiler defaults.
type ToolDefaultApplier struct{}

func (ToolDefaultApplier) Domain() string { return "tools" }

func (ToolDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Bundle.Target == "" {
		cfg.Bundle.Target = bundler.DefaultTarget
	}
	if cfg.Styles.Compiler == "" {
		cfg.Styles.Compiler = "auto"
	}
	return nil
}

// WatchDefaultApplier handles watch controller defaults.
type WatchDefaultApplier struct{}

func (WatchDefaultApplier) Domain() string { return "watch" }

func (WatchDefaultApplier) ApplyDefaults(cfg *Config) error {
	w := &cfg.Watch
	if w.Task == "" {
		w.Task = "compile"
	}
	if len(w.Paths) == 0 {
		w.Paths = []string{"source", "static"}
	}
	if w.Debounce == "" {
		w.Debounce = "300ms"
	}
	if w.MaxDelay == "" {
		w.MaxDelay = "5s"
	}
	return nil
}

// IntegrationDefaultApplier handles metrics, tracing, history and notify defaults.
type IntegrationDefaultApplier struct{}

func (IntegrationDefaultApplier) Domain() string { return "integrations" }

func (IntegrationDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = "assetbuilder"
	}
	if cfg.Metrics.Listen == "" {
		cfg.Metrics.Listen = ":9464"
	}
	if cfg.Tracing.Exporter == "" {
		cfg.Tracing.Exporter = "none"
	}
	if cfg.Tracing.ServiceName == "" {
		cfg.Tracing.ServiceName = "assetbuilder"
	}
	if cfg.History.Path == "" {
		cfg.History.Path = ".assetbuilder/history.db"
	}
	if cfg.Notify.URL == "" {
		cfg.Notify.URL = "nats://127.0.0.1:4222"
	}
	if cfg.Notify.Subject == "" {
		cfg.Notify.Subject = "assetbuilder.runs"
	}
	return nil
}

// DefaultApplierRegistry runs every domain applier in order.
type DefaultApplierRegistry struct {
	appliers []DefaultApplier
}

// NewDefaultApplier creates the registry with all domain appliers.
func NewDefaultApplier() *DefaultApplierRegistry {
	return &DefaultApplierRegistry{appliers: []DefaultApplier{
		PathsDefaultApplier{},
		SourcesDefaultApplier{},
		LintDefaultApplier{},
		ToolDefaultApplier{},
		WatchDefaultApplier{},
		IntegrationDefaultApplier{},
	}}
}

// ApplyDefaults applies every registered applier.
func (r *DefaultApplierRegistry) ApplyDefaults(cfg *Config) error {
	if cfg.Version == "" {
		cfg.Version = CurrentVersion
	}
	for _, a := range r.appliers {
		if err := a.ApplyDefaults(cfg); err != nil {
			return fmt.Errorf("apply %s defaults: %w", a.Domain(), err)
		}
	}
	return nil
}

func applyDefaults(cfg *Config) error {
	return NewDefaultApplier().ApplyDefaults(cfg)
}
