package workdir

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/example/dbox/internal/distro"
)

func TestFindRoot_WalksUp(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, MarkerDirName), 0o755); err != nil {
		t.Fatalf("mkdir marker: %v", err)
	}
	nested := filepath.Join(root, "proj", "src", "deep")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir nested: %v", err)
	}

	got, err := FindRoot(nested)
	if err != nil {
		t.Fatalf("find root: %v", err)
	}
	want, _ := filepath.EvalSymlinks(root)
	gotResolved, _ := filepath.EvalSymlinks(got)
	if gotResolved != want {
		t.Fatalf("root = %s, want %s", got, root)
	}
}

func TestFindRoot_NotFound(t *testing.T) {
	dir := t.TempDir()
	_, err := FindRoot(dir)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestFindRoot_StatelessRepeated(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, MarkerDirName), 0o755); err != nil {
		t.Fatalf("mkdir marker: %v", err)
	}
	first, err := FindRoot(root)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := FindRoot(root)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if first != second {
		t.Fatalf("results differ: %s vs %s", first, second)
	}
}

func TestLayoutPaths(t *testing.T) {
	l, err := NewLayout("/work/stack")
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	cases := []struct {
		got, want string
	}{
		{l.StackManifest(), "/work/stack/.dbox/stack.yaml"},
		{l.HistoryDB(), "/work/stack/.dbox/history.sqlite"},
		{l.SourceDir("glusterfs"), "/work/stack/glusterfs"},
		{l.BuildDir("glusterfs", "host"), "/work/stack/.dbox/build/glusterfs/host"},
		{l.InstallDir("glusterfs", "fedora-41"), "/work/stack/.dbox/install/glusterfs/fedora-41"},
	}
	for _, tc := range cases {
		if tc.got != tc.want {
			t.Fatalf("path = %s, want %s", tc.got, tc.want)
		}
	}
}

func TestEnsureProjectDirs_Idempotent(t *testing.T) {
	l, err := NewLayout(t.TempDir())
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	if err := l.EnsureProjectDirs("p", "host"); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	marker := filepath.Join(l.BuildDir("p", "host"), "keep.txt")
	if err := os.WriteFile(marker, []byte("x"), 0o644); err != nil {
		t.Fatalf("write marker: %v", err)
	}
	if err := l.EnsureProjectDirs("p", "host"); err != nil {
		t.Fatalf("ensure again: %v", err)
	}
	if _, err := os.Stat(marker); err != nil {
		t.Fatalf("marker removed by re-ensure: %v", err)
	}
}

func TestSourceExists(t *testing.T) {
	l, err := NewLayout(t.TempDir())
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	if l.SourceExists("ghost") {
		t.Fatal("missing project reported available")
	}
	if err := os.MkdirAll(l.SourceDir("real"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if !l.SourceExists("real") {
		t.Fatal("present project reported missing")
	}
}

func TestContextSubdir(t *testing.T) {
	if got := ContextSubdir(distro.Target{}, false); got != "host" {
		t.Fatalf("host context = %q", got)
	}
	if got := ContextSubdir(distro.Target{Name: "fedora", Version: "41"}, false); got != "host" {
		t.Fatalf("outside container = %q", got)
	}
	if got := ContextSubdir(distro.Target{Name: "fedora", Version: "41"}, true); got != "fedora-41" {
		t.Fatalf("inside container = %q", got)
	}
	if got := ContextSubdir(distro.Target{Name: "fedora"}, true); got != "fedora" {
		t.Fatalf("versionless container = %q", got)
	}
}
