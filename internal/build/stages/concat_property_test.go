package stages

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"pgregory.net/rapid"

	"git.home.luguber.info/inful/assetbuilder/internal/config"
)

func TestConcatIsDeclaredOrderByteConcatenation(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		dir, err := os.MkdirTemp("", "concat-prop-")
		if err != nil {
			rt.Fatal(err)
		}
		defer os.RemoveAll(dir)

		cfg, err := config.Parse(nil, dir)
		if err != nil {
			rt.Fatal(err)
		}
		root := cfg.Sources.Ordered.Root
		if err := os.MkdirAll(root, 0o755); err != nil {
			rt.Fatal(err)
		}

		n := rapid.IntRange(1, 5).Draw(rt, "files")
		contents := make([][]byte, n)
		for i := range contents {
			contents[i] = rapid.SliceOf(rapid.Byte()).Draw(rt, fmt.Sprintf("content%d", i))
			if err := os.WriteFile(filepath.Join(root, fmt.Sprintf("f%d.js", i)), contents[i], 0o644); err != nil {
				rt.Fatal(err)
			}
		}
		order := rapid.SliceOfN(rapid.IntRange(0, n-1), 1, 8).Draw(rt, "order")

		var want []byte
		cfg.Sources.Ordered.Entries = nil
		for _, i := range order {
			cfg.Sources.Ordered.Entries = append(cfg.Sources.Ordered.Entries, fmt.Sprintf("f%d.js", i))
			want = append(want, contents[i]...)
		}

		p := &project{dir: dir, cfg: cfg}
		if err := StageConcat(context.Background(), p.state()); err != nil {
			rt.Fatal(err)
		}
		got, err := os.ReadFile(cfg.Layout().EntryPath())
		if err != nil {
			rt.Fatal(err)
		}
		if string(got) != string(want) {
			rt.Fatalf("entry mismatch for order %v: got %q want %q", order, got, want)
		}
	})
}
