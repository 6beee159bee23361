package manifest

import (
	"errors"
	"testing"
)

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	s := NewStore(t.TempDir())
	data := []byte("kind: Stack\nname: demo\n---\nkind: Project\nname: p1\n")
	if err := s.Save("demo", data, "https://example.org/stacks/demo.yaml"); err != nil {
		t.Fatalf("save: %v", err)
	}
	m, err := s.Load("demo")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if m.Stack.Name != "demo" || len(m.Projects) != 1 {
		t.Fatalf("loaded stack=%q projects=%d", m.Stack.Name, len(m.Projects))
	}
	if got := s.SourceURL("demo"); got != "https://example.org/stacks/demo.yaml" {
		t.Fatalf("source url = %q", got)
	}
}

func TestStore_LoadMissingIsNotFound(t *testing.T) {
	s := NewStore(t.TempDir())
	_, err := s.Load("nope")
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("error type %T: %v", err, err)
	}
	if nf.Kind != "stack" || nf.Name != "nope" {
		t.Fatalf("not-found = %+v", nf)
	}
}

func TestStore_ListSkipsURLRecords(t *testing.T) {
	s := NewStore(t.TempDir())
	if err := s.Save("bb", []byte("kind: Stack\nname: bb\n"), "https://example.org/bb.yaml"); err != nil {
		t.Fatalf("save bb: %v", err)
	}
	if err := s.Save("aa", []byte("kind: Stack\nname: aa\n"), ""); err != nil {
		t.Fatalf("save aa: %v", err)
	}
	names, err := s.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(names) != 2 || names[0] != "aa" || names[1] != "bb" {
		t.Fatalf("names = %v", names)
	}
}

func TestStore_SourceURLMissing(t *testing.T) {
	s := NewStore(t.TempDir())
	if got := s.SourceURL("demo"); got != "" {
		t.Fatalf("source url = %q (want empty)", got)
	}
}
