// Package manifest resolves the source manifests that feed the build stages.
//
// Two kinds exist. Ordered manifests are explicit file lists whose declaration
// order is load order; they are never produced by a directory scan. Glob
// manifests are sets of doublestar patterns whose resolution order carries no
// meaning.
package manifest

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
)

// Manifest names the files belonging to one source set.
type Manifest struct {
	Name string `yaml:"-"`
	// Root is the directory entries are relative to.
	Root    string   `yaml:"root"`
	Entries []string `yaml:"entries"`
	// Ordered marks an explicit list whose order is significant.
	Ordered bool `yaml:"-"`
	// AllowEmpty tolerates entries that resolve to nothing.
	AllowEmpty bool `yaml:"allow_empty"`
}

// SourceFile is one resolved manifest member.
type SourceFile struct {
	// Path is the on-disk location.
	Path string
	// RelPath is the slash-separated logical identity relative to the manifest root.
	RelPath string
}

// Resolution is the outcome of resolving a manifest against the filesystem.
type Resolution struct {
	Manifest string
	Ordered  bool
	Files    []SourceFile
	// Duplicates lists entries declared more than once.
	Duplicates []string
	// Empty lists entries that resolved to zero files.
	Empty []string
}

// Paths returns the on-disk paths of the resolved files in resolution order.
func (r *Resolution) Paths() []string {
	out := make([]string, 0, len(r.Files))
	for _, f := range r.Files {
		out = append(out, f.Path)
	}
	return out
}

// Validate checks every entry of m without touching the filesystem.
func Validate(m Manifest) error {
	if m.Root == "" {
		return errors.ConfigError(fmt.Sprintf("manifest %q has no root", m.Name)).Build()
	}
	for _, entry := range m.Entries {
		if err := validateEntry(m, entry); err != nil {
			return err
		}
	}
	return nil
}

func validateEntry(m Manifest, entry string) error {
	clean := normalizeEntry(entry)
	switch {
	case clean == "" || clean == ".":
		return errors.ConfigError(fmt.Sprintf("manifest %q contains an empty entry", m.Name)).Build()
	case path.IsAbs(clean) || filepath.IsAbs(entry):
		return errors.ConfigError(fmt.Sprintf("manifest %q entry %q must be relative to %s", m.Name, entry, m.Root)).Build()
	case clean == ".." || strings.HasPrefix(clean, "../"):
		return errors.ConfigError(fmt.Sprintf("manifest %q entry %q escapes its root", m.Name, entry)).Build()
	}
	if m.Ordered {
		if strings.ContainsAny(clean, "*?[{") {
			return errors.ConfigError(fmt.Sprintf("ordered manifest %q entry %q must name a single file", m.Name, entry)).Build()
		}
		return nil
	}
	if !doublestar.ValidatePattern(clean) {
		return errors.ConfigError(fmt.Sprintf("manifest %q has malformed glob pattern %q", m.Name, entry)).
			WithContext("pattern", entry).
			Build()
	}
	return nil
}

// normalizeEntry converts an entry to a clean slash path without a leading "./".
func normalizeEntry(entry string) string {
	e := filepath.ToSlash(strings.TrimSpace(entry))
	if e == "" {
		return ""
	}
	return path.Clean(e)
}

// Resolve resolves m against the filesystem.
//
// Ordered manifests keep declaration order, including duplicates. Glob
// manifests yield a sorted set in which every file appears once.
func Resolve(m Manifest) (*Resolution, error) {
	if err := Validate(m); err != nil {
		return nil, err
	}
	if m.Ordered {
		return resolveOrdered(m)
	}
	return resolveGlob(m)
}

func resolveOrdered(m Manifest) (*Resolution, error) {
	res := &Resolution{Manifest: m.Name, Ordered: true}
	seen := make(map[string]bool, len(m.Entries))
	for _, entry := range m.Entries {
		rel := normalizeEntry(entry)
		if seen[rel] {
			res.Duplicates = append(res.Duplicates, rel)
		}
		seen[rel] = true

		p := filepath.Join(m.Root, filepath.FromSlash(rel))
		info, err := os.Stat(p)
		switch {
		case err == nil && info.Mode().IsRegular():
			res.Files = append(res.Files, SourceFile{Path: p, RelPath: rel})
		case err == nil, os.IsNotExist(err):
			res.Empty = append(res.Empty, rel)
		default:
			return nil, errors.WrapError(err, errors.CategoryFileSystem, "stat manifest entry").
				WithFile(p).
				Build()
		}
	}
	return res, nil
}

func resolveGlob(m Manifest) (*Resolution, error) {
	res := &Resolution{Manifest: m.Name}
	fsys := os.DirFS(m.Root)
	declared := make(map[string]bool, len(m.Entries))
	files := make(map[string]bool)

	for _, entry := range m.Entries {
		pattern := normalizeEntry(entry)
		if declared[pattern] {
			res.Duplicates = append(res.Duplicates, pattern)
			continue
		}
		declared[pattern] = true

		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryConfig, fmt.Sprintf("resolve pattern %q", entry)).
				WithContext("manifest", m.Name).
				Build()
		}
		if len(matches) == 0 {
			res.Empty = append(res.Empty, pattern)
			continue
		}
		for _, match := range matches {
			files[match] = true
		}
	}

	rels := make([]string, 0, len(files))
	for rel := range files {
		rels = append(rels, rel)
	}
	sort.Strings(rels)
	for _, rel := range rels {
		res.Files = append(res.Files, SourceFile{Path: filepath.Join(m.Root, filepath.FromSlash(rel)), RelPath: rel})
	}
	return res, nil
}

// Union merges resolutions into one file list, keeping the first occurrence of
// each on-disk path. It is used where order is irrelevant, such as linting.
func Union(resolutions ...*Resolution) []SourceFile {
	seen := make(map[string]bool)
	var out []SourceFile
	for _, r := range resolutions {
		if r == nil {
			continue
		}
		for _, f := range r.Files {
			key := filepath.Clean(f.Path)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, f)
		}
	}
	return out
}
