// Package bundler resolves the reference closure of the generated entry
// artifact and serializes it into a single self-contained script.
package bundler

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
)

// DefaultTarget is the syntax level bundles are downleveled to.
const DefaultTarget = "es2015"

// Options is the immutable transform configuration for one bundle.
type Options struct {
	// Target is the output syntax level (es5, es2015 ... esnext).
	Target string
	Minify bool
	// Banner is prepended verbatim to the bundle.
	Banner string
	// Define replaces global identifiers with constant expressions.
	Define map[string]string
}

// Result is a produced bundle.
type Result struct {
	Contents []byte
	// Inputs is the resolved closure, relative to the entry's directory.
	Inputs []string
}

// Bundler is the bundling collaborator used by the bundle stage.
type Bundler interface {
	Bundle(ctx context.Context, entry string, opts Options) (*Result, error)
}

var targets = map[string]api.Target{
	"es5":    api.ES5,
	"es6":    api.ES2015,
	"es2015": api.ES2015,
	"es2016": api.ES2016,
	"es2017": api.ES2017,
	"es2018": api.ES2018,
	"es2019": api.ES2019,
	"es2020": api.ES2020,
	"es2021": api.ES2021,
	"es2022": api.ES2022,
	"es2023": api.ES2023,
	"esnext": api.ESNext,
}

// ParseTarget converts a target name to the esbuild value.
func ParseTarget(name string) (api.Target, error) {
	if name == "" {
		name = DefaultTarget
	}
	t, ok := targets[strings.ToLower(name)]
	if !ok {
		return 0, errors.ConfigError(fmt.Sprintf("unsupported bundle target %q", name)).Build()
	}
	return t, nil
}

// ESBuildBundler bundles with esbuild in process.
type ESBuildBundler struct{}

// New creates an esbuild-backed bundler.
func New() *ESBuildBundler {
	return &ESBuildBundler{}
}

type metafile struct {
	Inputs map[string]json.RawMessage `json:"inputs"`
}

// Bundle builds entry into one IIFE without a source map. Relative references
// resolve against the entry's directory, which is the staging directory.
func (b *ESBuildBundler) Bundle(ctx context.Context, entry string, opts Options) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	target, err := ParseTarget(opts.Target)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(entry)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "resolve entry").WithFile(entry).Build()
	}

	build := api.BuildOptions{
		EntryPoints:       []string{abs},
		AbsWorkingDir:     filepath.Dir(abs),
		Bundle:            true,
		Write:             false,
		Outfile:           filepath.Join(filepath.Dir(abs), "bundle.js"),
		Format:            api.FormatIIFE,
		Platform:          api.PlatformBrowser,
		Target:            target,
		Sourcemap:         api.SourceMapNone,
		Metafile:          true,
		LogLevel:          api.LogLevelSilent,
		MinifyWhitespace:  opts.Minify,
		MinifyIdentifiers: opts.Minify,
		MinifySyntax:      opts.Minify,
		Define:            opts.Define,
	}
	if opts.Banner != "" {
		build.Banner = map[string]string{"js": opts.Banner}
	}

	res := api.Build(build)
	if len(res.Errors) > 0 {
		return nil, buildError(res.Errors, abs)
	}
	if len(res.OutputFiles) == 0 {
		return nil, errors.BundleError("bundler produced no output").WithFile(entry).Build()
	}

	var meta metafile
	if err := json.Unmarshal([]byte(res.Metafile), &meta); err != nil {
		return nil, errors.WrapError(err, errors.CategoryInternal, "decode bundle metafile").Build()
	}
	inputs := make([]string, 0, len(meta.Inputs))
	for in := range meta.Inputs {
		inputs = append(inputs, filepath.ToSlash(in))
	}
	sort.Strings(inputs)

	return &Result{Contents: res.OutputFiles[0].Contents, Inputs: inputs}, nil
}

// buildError reports the first tool message with its originating file and
// counts the rest.
func buildError(msgs []api.Message, entry string) error {
	first := msgs[0]
	file, line, col := entry, 0, 0
	if loc := first.Location; loc != nil && loc.File != "" {
		file, line, col = loc.File, loc.Line, loc.Column+1
	}
	text := first.Text
	if len(msgs) > 1 {
		text = fmt.Sprintf("%s (and %d more)", text, len(msgs)-1)
	}
	return errors.BundleError(text).
		WithLocation(file, line, col).
		WithContext("errors", len(msgs)).
		Build()
}
