package internal

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestExtensionOf(t *testing.T) {
	cases := map[string]string{
		"a.zip":            "zip",
		"lib/inner.jar":    "jar",
		"v1.2/README":      "2/README",
		"archive.tar.gz":   "gz",
		"trailing.":        "",
		"dir.d/":           "d/",
		`C:\x\report.2023`: "2023",
	}
	for name, want := range cases {
		got, ok := extensionOf(name)
		if !ok || got != want {
			t.Errorf("extensionOf(%q) = %q, %v; want %q", name, got, ok, want)
		}
	}
	if _, ok := extensionOf("Makefile"); ok {
		t.Error("name without a dot has no extension")
	}
}

func TestEntryIsDir(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "real")
	if err := os.Mkdir(target, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "file.zip"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(dir, "link")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	got := map[string]bool{}
	for _, e := range ents {
		got[e.Name()] = entryIsDir(filepath.Join(dir, e.Name()), e)
	}
	if !got["real"] || !got["link"] || got["file.zip"] {
		t.Fatalf("unexpected dir detection: %v", got)
	}

	if !exists(link) || exists(filepath.Join(dir, "nope")) {
		t.Fatal("exists is wrong")
	}

	// DetectRoots smoke (non-strict)
	_ = DetectRoots(runtime.GOOS)
}
