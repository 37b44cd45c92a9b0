package build

import (
	"path/filepath"
	"strings"
	"testing"

	"bstgroovy/internal/cache"
	"bstgroovy/internal/runlog"
	"bstgroovy/pkg/compiler"
)

func newBuilder(t *testing.T) *Builder {
	t.Helper()
	dir := t.TempDir()
	c, err := cache.Open(filepath.Join(dir, "cache.db"))
	if err != nil {
		t.Fatalf("cache.Open failed: %v", err)
	}
	l, err := runlog.Open(filepath.Join(dir, "runs.db"))
	if err != nil {
		t.Fatalf("runlog.Open failed: %v", err)
	}
	t.Cleanup(func() {
		c.Close()
		l.Close()
	})
	return &Builder{Cache: c, Log: l}
}

func TestBuildCaches(t *testing.T) {
	b := newBuilder(t)
	src := `FUNCTION {f} { "x" write$ } EXECUTE {f}`

	first, err := b.Build("f.bst", src, compiler.Options{})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if first.Cached || first.Result == nil {
		t.Error("expected the first build to compile")
	}
	if !strings.Contains(first.Groovy, `write("x")`) {
		t.Errorf("expected write(\"x\") in output, got:\n%s", first.Groovy)
	}

	second, err := b.Build("f.bst", src, compiler.Options{})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if !second.Cached || second.Groovy != first.Groovy {
		t.Error("expected the second build to come from the cache")
	}

	third, _ := b.Build("f.bst", src, compiler.Options{ClassName: "Other"})
	if third.Cached {
		t.Error("expected different options to miss the cache")
	}

	runs, err := b.Log.Recent(10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(runs) != 3 || !runs[1].Cached || runs[0].Cached {
		t.Errorf("expected three runs with the middle one cached, got %+v", runs)
	}
}

func TestBuildErrors(t *testing.T) {
	b := newBuilder(t)

	out, err := b.Build("bad.bst", `FUNCTION {f} { #1 "a" + }`, compiler.Options{})
	if !IsCompileError(err) {
		t.Fatalf("expected a compile error, got %v", err)
	}
	if len(out.Diagnostics()) == 0 {
		t.Error("expected diagnostics")
	}
	if n, _ := b.Cache.Len(); n != 0 {
		t.Errorf("expected failed builds not to be cached, got %d entries", n)
	}

	if _, err := b.Build("bad.bst", `FUNCTION {f} {`, compiler.Options{}); err == nil || IsCompileError(err) {
		t.Errorf("expected a parse error, got %v", err)
	}
}

func TestBuildWithoutStores(t *testing.T) {
	var b Builder
	out, err := b.Build("f.bst", `FUNCTION {f} { }`, compiler.Options{})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if out.Cached || out.Key == "" {
		t.Errorf("unexpected output %+v", out)
	}
}
