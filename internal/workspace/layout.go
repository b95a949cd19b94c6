package workspace

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/assetbuilder/internal/logfields"
)

// Default layout values, relative to the output directory.
const (
	DefaultStagingDir = "generated"
	DefaultEntryName  = "index.js"
	DefaultBundlePath = "scripts/bundle.js"
	DefaultStylesDir  = "styles"
)

// Layout describes where a run writes its artifacts.
type Layout struct {
	// Output is the root of the output tree.
	Output string
	// StagingDir is relative to Output.
	StagingDir string
	// EntryName is the generated entry artifact's file name inside StagingDir.
	EntryName string
	// BundlePath is relative to Output.
	BundlePath string
	// StylesDir is relative to Output.
	StylesDir string
}

// NewLayout returns a layout rooted at output with default relative locations.
func NewLayout(output string) Layout {
	return Layout{
		Output:     output,
		StagingDir: DefaultStagingDir,
		EntryName:  DefaultEntryName,
		BundlePath: DefaultBundlePath,
		StylesDir:  DefaultStylesDir,
	}
}

// StagingRoot is the absolute location of the staging directory.
func (l Layout) StagingRoot() string {
	return filepath.Join(l.Output, filepath.FromSlash(l.StagingDir))
}

// EntryPath is the location of the generated entry artifact.
func (l Layout) EntryPath() string {
	return filepath.Join(l.StagingRoot(), l.EntryName)
}

// StagedPath maps a modular file's logical identity into the staging directory.
func (l Layout) StagedPath(relPath string) (string, error) {
	return joinWithin(l.StagingRoot(), relPath)
}

// BundleFile is the location of the final script bundle.
func (l Layout) BundleFile() string {
	return filepath.Join(l.Output, filepath.FromSlash(l.BundlePath))
}

// StylesheetPath maps a style root's path relative to its manifest root to
// its compiled location, keeping subdirectories so same-named roots stay apart.
func (l Layout) StylesheetPath(relPath string) (string, error) {
	name := strings.TrimSuffix(relPath, filepath.Ext(relPath)) + ".css"
	return joinWithin(filepath.Join(l.Output, filepath.FromSlash(l.StylesDir)), name)
}

// OutputPath maps a static asset's relative path into the output tree.
func (l Layout) OutputPath(relPath string) (string, error) {
	return joinWithin(l.Output, relPath)
}

func joinWithin(root, relPath string) (string, error) {
	target := filepath.Join(root, filepath.FromSlash(relPath))
	rel, err := filepath.Rel(root, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.ConfigError(fmt.Sprintf("path %q escapes %s", relPath, root)).Build()
	}
	return target, nil
}

// Clean removes the output tree. A missing tree is not an error.
func (l Layout) Clean() error {
	if l.Output == "" {
		return errors.ConfigError("output directory is not configured").Build()
	}
	if _, err := os.Lstat(l.Output); os.IsNotExist(err) {
		slog.Debug("Output tree already absent", logfields.Path(l.Output))
		return nil
	}
	if err := os.RemoveAll(l.Output); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "remove output tree").
			WithFile(l.Output).
			Build()
	}
	slog.Info("Removed output tree", logfields.Path(l.Output))
	return nil
}

// ResetStaging removes the staging directory and recreates it empty.
func (l Layout) ResetStaging() error {
	if err := os.RemoveAll(l.StagingRoot()); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "remove staging directory").
			WithFile(l.StagingRoot()).
			Build()
	}
	return l.EnsureStaging()
}

// PruneStaging removes files under the staging directory that are not in keep,
// then any directories left empty. It returns the number of files removed.
func (l Layout) PruneStaging(keep map[string]bool) (int, error) {
	root := l.StagingRoot()
	var removed int
	var dirs []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == root {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() {
			if path != root {
				dirs = append(dirs, path)
			}
			return nil
		}
		if keep[path] {
			return nil
		}
		if err := os.Remove(path); err != nil {
			return err
		}
		removed++
		return nil
	})
	if err != nil {
		return removed, errors.WrapError(err, errors.CategoryFileSystem, "prune staging directory").
			WithFile(root).
			Build()
	}
	// Deepest first; non-empty directories are left in place.
	for i := len(dirs) - 1; i >= 0; i-- {
		_ = os.Remove(dirs[i])
	}
	if removed > 0 {
		slog.Debug("Pruned stale staged files", logfields.Path(root), logfields.Count(removed))
	}
	return removed, nil
}

// EnsureStaging creates the staging directory.
func (l Layout) EnsureStaging() error {
	if err := os.MkdirAll(l.StagingRoot(), 0o750); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "create staging directory").
			WithFile(l.StagingRoot()).
			Build()
	}
	return nil
}

// CheckSafe refuses output locations whose removal would destroy the project:
// the working directory, the filesystem root, or any ancestor of a source root.
func (l Layout) CheckSafe(workDir string, sourceRoots ...string) error {
	out, err := filepath.Abs(l.Output)
	if err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "resolve output directory").Build()
	}
	if out == filepath.VolumeName(out)+string(filepath.Separator) {
		return errors.ConfigError("output directory must not be the filesystem root").WithFile(out).Build()
	}
	if workDir != "" {
		wd, err := filepath.Abs(workDir)
		if err == nil && (wd == out || isWithin(out, wd)) {
			return errors.ConfigError("output directory must not contain the working directory").WithFile(out).Build()
		}
	}
	for _, root := range sourceRoots {
		src, err := filepath.Abs(root)
		if err != nil {
			continue
		}
		if src == out || isWithin(out, src) {
			return errors.ConfigError(fmt.Sprintf("output directory contains source root %s", root)).WithFile(out).Build()
		}
	}
	return nil
}

// isWithin reports whether child lies strictly below parent.
func isWithin(parent, child string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil || rel == "." {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
