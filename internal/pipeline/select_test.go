package pipeline

import (
	"errors"
	"strings"
	"testing"

	"github.com/example/dbox/internal/manifest"
)

func namesOf(projects []*manifest.Project) string {
	names := make([]string, 0, len(projects))
	for _, p := range projects {
		names = append(names, p.Name)
	}
	return strings.Join(names, ",")
}

func TestSelect(t *testing.T) {
	m := mkManifest(
		manifest.Project{Name: "glusterfs"},
		manifest.Project{Name: "gluster-ansible"},
		manifest.Project{Name: "samba"},
	)

	all, err := Select(m, "")
	if err != nil {
		t.Fatalf("select all: %v", err)
	}
	if namesOf(all) != "glusterfs,gluster-ansible,samba" {
		t.Fatalf("all = %s", namesOf(all))
	}

	some, err := Select(m, "gluster*")
	if err != nil {
		t.Fatalf("select pattern: %v", err)
	}
	if namesOf(some) != "glusterfs,gluster-ansible" {
		t.Fatalf("matched = %s", namesOf(some))
	}

	one, err := Select(m, "samba")
	if err != nil {
		t.Fatalf("select exact: %v", err)
	}
	if namesOf(one) != "samba" {
		t.Fatalf("matched = %s", namesOf(one))
	}

	_, err = Select(m, "nosuch*")
	if err == nil {
		t.Fatal("expected an error for an empty selection")
	}
	var nf *manifest.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("error type %T: %v", err, err)
	}
	if nf.Kind != "project" {
		t.Fatalf("not found kind = %q", nf.Kind)
	}
}

func TestParseStages(t *testing.T) {
	all, err := ParseStages("")
	if err != nil {
		t.Fatalf("parse empty: %v", err)
	}
	if strings.Join(all, ",") != "configure,build,install,fixup,unittest" {
		t.Fatalf("all = %v", all)
	}

	subset, err := ParseStages("install, configure")
	if err != nil {
		t.Fatalf("parse subset: %v", err)
	}
	if strings.Join(subset, ",") != "configure,install" {
		t.Fatalf("subset = %v", subset)
	}

	if _, err := ParseStages("configure,package"); err == nil {
		t.Fatal("expected an error for an unknown stage")
	}
}

func TestTestStage(t *testing.T) {
	for kind, want := range map[string]string{
		"wip":   "test-wip",
		"smoke": "test-smoke",
		"all":   "test-all",
	} {
		got, err := TestStage(kind)
		if err != nil || got != want {
			t.Fatalf("TestStage(%q) = %q, %v", kind, got, err)
		}
	}
	if _, err := TestStage("full"); err == nil {
		t.Fatal("expected an error for an unknown kind")
	}
}
