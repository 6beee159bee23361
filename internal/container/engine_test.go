package container

import (
	"reflect"
	"testing"
	"time"

	"github.com/example/dbox/internal/distro"
)

func TestRunArgs(t *testing.T) {
	opts := RunOptions{
		Image:   "dbox__gluster__fedora:42",
		Workdir: "/home/user/work",
		Mounts: []Mount{
			{HostPath: "/home/user/work", ContainerPath: "/home/user/work"},
			{HostPath: "/usr/bin/dbox", ContainerPath: SelfPath, ReadOnly: true},
		},
		Env:     []string{"DBOX_LOG_LEVEL=debug"},
		Command: []string{"dbox", "build", "gluster"},
	}
	want := []string{
		"run", "--rm", "--userns=keep-id",
		"--volume", "/home/user/work:/home/user/work",
		"--volume", "/usr/bin/dbox:/usr/local/bin/dbox:ro",
		"--env", "DBOX_LOG_LEVEL=debug",
		"--workdir", "/home/user/work",
		"dbox__gluster__fedora:42",
		"dbox", "build", "gluster",
	}
	if got := runArgs(opts); !reflect.DeepEqual(got, want) {
		t.Fatalf("runArgs = %q, want %q", got, want)
	}
}

func TestRunArgs_Interactive(t *testing.T) {
	got := runArgs(RunOptions{
		Image:       "dbox__gluster__fedora:42",
		Interactive: true,
		Command:     []string{"bash"},
	})
	want := []string{
		"run", "--rm", "--userns=keep-id", "--interactive", "--tty",
		"dbox__gluster__fedora:42", "bash",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("runArgs = %q, want %q", got, want)
	}
}

func TestParseImagesJSON(t *testing.T) {
	raw := []byte(`[
  {
    "Id": "sha256:aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
    "Names": ["localhost/dbox__gluster__fedora:42"],
    "Created": 1755734400,
    "Size": 1073741824
  },
  {
    "Id": "sha256:bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb",
    "Names": ["docker.io/library/fedora:42"],
    "Created": 1755734400,
    "Size": 209715200
  },
  {
    "Id": "sha256:cccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccc",
    "Names": ["registry.example.com/x/fedora:42", "localhost/dbox__samba__centos-stream:10"],
    "Created": 1755820800,
    "Size": 2147483648
  }
]`)
	images, err := parseImagesJSON(raw)
	if err != nil {
		t.Fatalf("parseImagesJSON: %v", err)
	}
	if len(images) != 2 {
		t.Fatalf("expected 2 stack images, got %d: %+v", len(images), images)
	}
	first := images[0]
	if first.Name != "localhost/dbox__gluster__fedora:42" {
		t.Fatalf("unexpected first image %q", first.Name)
	}
	if first.Stack != "gluster" {
		t.Errorf("Stack = %q, want gluster", first.Stack)
	}
	if want := (distro.Target{Name: "fedora", Version: "42"}); first.Base != want {
		t.Errorf("Base = %v, want %v", first.Base, want)
	}
	if first.ID != "aaaaaaaaaaaa" {
		t.Errorf("ID = %q, want aaaaaaaaaaaa", first.ID)
	}
	if want := time.Unix(1755734400, 0).UTC(); !first.Created.Equal(want) {
		t.Errorf("Created = %v, want %v", first.Created, want)
	}
	if first.Size != 1073741824 {
		t.Errorf("Size = %d, want 1073741824", first.Size)
	}
	second := images[1]
	if second.Stack != "samba" || second.Base.Name != "centos-stream" {
		t.Errorf("unexpected second image %+v", second)
	}
}

func TestParseImagesJSON_Empty(t *testing.T) {
	images, err := parseImagesJSON([]byte("[]"))
	if err != nil {
		t.Fatalf("parseImagesJSON: %v", err)
	}
	if len(images) != 0 {
		t.Fatalf("expected no images, got %d", len(images))
	}
	if _, err := parseImagesJSON([]byte("not json")); err == nil {
		t.Fatal("expected error for malformed input")
	}
}
