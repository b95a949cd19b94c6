// Package styles compiles style roots into compressed stylesheets.
package styles

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
)

var (
	// ErrSassNotFound indicates the sass executable was not detected.
	ErrSassNotFound = stderrors.New("sass binary not found")
	// ErrUnsupportedSource indicates no compiler handles the file extension.
	ErrUnsupportedSource = stderrors.New("unsupported style source")
)

// Compiler turns one style root into compiled stylesheet text.
type Compiler interface {
	Compile(ctx context.Context, path string) ([]byte, error)
}

// IsPartial reports whether name is an import-only partial (leading "_").
func IsPartial(path string) bool {
	return strings.HasPrefix(filepath.Base(path), "_")
}

// SassCompiler runs the external dart-sass binary.
type SassCompiler struct {
	Binary    string
	LoadPaths []string
}

// NewSassCompiler creates a compiler shelling out to binary (default "sass").
func NewSassCompiler(binary string, loadPaths ...string) *SassCompiler {
	if binary == "" {
		binary = "sass"
	}
	return &SassCompiler{Binary: binary, LoadPaths: loadPaths}
}

// Compile compiles path with compressed output and no source map.
func (c *SassCompiler) Compile(ctx context.Context, path string) ([]byte, error) {
	bin, err := exec.LookPath(c.Binary)
	if err != nil {
		return nil, errors.WrapError(fmt.Errorf("%w: %w", ErrSassNotFound, err), errors.CategoryStyle, "locate sass").
			WithFile(path).
			UserAction().
			Build()
	}
	args := []string{"--style=compressed", "--no-source-map", "--load-path=" + filepath.Dir(path)}
	for _, lp := range c.LoadPaths {
		args = append(args, "--load-path="+lp)
	}
	args = append(args, path)

	// #nosec G204 -- binary is operator configuration, path comes from a manifest
	cmd := exec.CommandContext(ctx, bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	slog.Debug("Invoking sass", slog.String("file", path))
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, errors.StyleError(msg).WithTool("sass").WithFile(path).WithCause(err).Build()
	}
	return stdout.Bytes(), nil
}

// ESBuildCompiler bundles @import chains and minifies plain CSS in process.
type ESBuildCompiler struct{}

// NewESBuildCompiler creates the in-process CSS compiler.
func NewESBuildCompiler() *ESBuildCompiler {
	return &ESBuildCompiler{}
}

// Compile bundles and minifies a CSS root.
func (c *ESBuildCompiler) Compile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "resolve style root").WithFile(path).Build()
	}
	res := api.Build(api.BuildOptions{
		EntryPoints:      []string{abs},
		AbsWorkingDir:    filepath.Dir(abs),
		Outfile:          filepath.Join(filepath.Dir(abs), "out.css"),
		Bundle:           true,
		Write:            false,
		Loader:           map[string]api.Loader{".css": api.LoaderCSS},
		MinifyWhitespace: true,
		MinifySyntax:     true,
		Sourcemap:        api.SourceMapNone,
		LogLevel:         api.LogLevelSilent,
	})
	if len(res.Errors) > 0 {
		first := res.Errors[0]
		file, line := path, 0
		if loc := first.Location; loc != nil && loc.File != "" {
			file, line = loc.File, loc.Line
		}
		return nil, errors.StyleError(first.Text).WithTool("esbuild").WithLocation(file, line, 0).Build()
	}
	for _, out := range res.OutputFiles {
		if strings.HasSuffix(out.Path, ".css") {
			return out.Contents, nil
		}
	}
	return nil, errors.StyleError("compiler produced no stylesheet").WithTool("esbuild").WithFile(path).Build()
}

// AutoCompiler dispatches on file extension: Sass syntaxes go to Sass, plain
// CSS to esbuild.
type AutoCompiler struct {
	Sass Compiler
	CSS  Compiler
}

// Compile dispatches path to the matching compiler.
func (c *AutoCompiler) Compile(ctx context.Context, path string) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".scss", ".sass":
		return c.Sass.Compile(ctx, path)
	case ".css":
		return c.CSS.Compile(ctx, path)
	default:
		return nil, errors.WrapError(ErrUnsupportedSource, errors.CategoryStyle, "no compiler for extension").
			WithFile(path).
			Build()
	}
}

// New returns the compiler registered under kind ("auto", "sass" or "esbuild").
func New(kind, sassBinary string, loadPaths ...string) (Compiler, error) {
	switch strings.ToLower(kind) {
	case "", "auto":
		return &AutoCompiler{Sass: NewSassCompiler(sassBinary, loadPaths...), CSS: NewESBuildCompiler()}, nil
	case "sass":
		return NewSassCompiler(sassBinary, loadPaths...), nil
	case "esbuild":
		return NewESBuildCompiler(), nil
	default:
		return nil, errors.ConfigError(fmt.Sprintf("unknown style compiler %q", kind)).Build()
	}
}
