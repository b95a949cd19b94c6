package watch

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/assetbuilder/internal/logfields"
)

// Filter decides which filesystem events may trigger a run.
type Filter struct {
	// Excluded directory trees, typically the output directory.
	Excluded []string
}

// Ignore reports whether a change to path must not trigger a run.
func (f Filter) Ignore(path string) bool {
	for _, dir := range f.Excluded {
		if within(dir, path) {
			return true
		}
	}

	base := filepath.Base(path)

	// Hidden files, including .#lock files.
	if strings.HasPrefix(base, ".") {
		return true
	}

	// Editor swap and backup files.
	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}

	return base == "Thumbs.db"
}

func within(dir, path string) bool {
	if dir == "" {
		return false
	}
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// addDirsRecursive watches root and every directory below it that the filter
// does not exclude.
func addDirsRecursive(w *fsnotify.Watcher, root string, f Filter) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && f.Ignore(path) {
			return filepath.SkipDir
		}
		if err := w.Add(path); err != nil {
			slog.Warn("Watch add failed", logfields.Path(path), logfields.Error(err))
		}
		return nil
	})
}
