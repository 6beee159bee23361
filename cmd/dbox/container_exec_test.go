package main

import (
	"reflect"
	"testing"
)

func TestInnerArgs(t *testing.T) {
	got := innerArgs("build", "gluster*", "/home/user/work", [][2]string{{"stages", "configure,build"}})
	want := []string{
		"/usr/local/bin/dbox", "build", "gluster*",
		"--stages", "configure,build",
		"--root", "/home/user/work",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("innerArgs = %q, want %q", got, want)
	}
}

func TestInnerArgs_NoPattern(t *testing.T) {
	got := innerArgs("test", "", "/w", [][2]string{{"kind", "smoke"}})
	want := []string{"/usr/local/bin/dbox", "test", "--kind", "smoke", "--root", "/w"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("innerArgs = %q, want %q", got, want)
	}
}

func TestUnderRoot(t *testing.T) {
	cases := []struct {
		path, root string
		want       bool
	}{
		{"/w/tree", "/w/tree", true},
		{"/w/tree/sub/dir", "/w/tree", true},
		{"/w/tree-other", "/w/tree", false},
		{"/w", "/w/tree", false},
	}
	for _, c := range cases {
		if got := underRoot(c.path, c.root); got != c.want {
			t.Fatalf("underRoot(%q, %q) = %v, want %v", c.path, c.root, got, c.want)
		}
	}
}
