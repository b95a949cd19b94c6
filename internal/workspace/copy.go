package workspace

import (
	"io"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
)

// CopyFile copies src to dst byte for byte, creating parent directories and
// keeping the source file mode.
func CopyFile(src, dst string) (int64, error) {
	info, err := os.Stat(src)
	if err != nil {
		return 0, errors.WrapError(err, errors.CategoryFileSystem, "stat source").WithFile(src).Build()
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return 0, errors.WrapError(err, errors.CategoryFileSystem, "create directory").WithFile(dst).Build()
	}

	// #nosec G304 -- src comes from a resolved manifest
	in, err := os.Open(src)
	if err != nil {
		return 0, errors.WrapError(err, errors.CategoryFileSystem, "open source").WithFile(src).Build()
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return 0, errors.WrapError(err, errors.CategoryFileSystem, "create destination").WithFile(dst).Build()
	}
	n, err := io.Copy(out, in)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Chmod(dst, info.Mode().Perm())
	}
	if err != nil {
		return n, errors.WrapError(err, errors.CategoryFileSystem, "copy file").WithFile(dst).Build()
	}
	return n, nil
}

// WriteFile writes data to path, creating parent directories.
func WriteFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "create directory").WithFile(path).Build()
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "write file").WithFile(path).Build()
	}
	return nil
}
