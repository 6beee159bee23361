package manifest

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// APIVersion is the only manifest schema version this build understands.
const APIVersion = "dbox.dev/v1"

type APIVersionKind struct {
	APIVersion string `yaml:"apiVersion,omitempty" json:"apiVersion,omitempty"`
	Kind       string `yaml:"kind,omitempty" json:"kind,omitempty"`
}

// DistroSection maps a distro key to a shell command. Keys are either
// "<name>:<version>", "<name>", or the literal "default". A bare string in
// YAML is shorthand for {default: <string>}.
type DistroSection map[string]string

func (d *DistroSection) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Tag == "!!null" {
			*d = nil
			return nil
		}
		var s string
		if err := value.Decode(&s); err != nil {
			return err
		}
		*d = DistroSection{"default": s}
		return nil
	case yaml.MappingNode:
		m := map[string]string{}
		if err := value.Decode(&m); err != nil {
			return err
		}
		*d = m
		return nil
	default:
		return fmt.Errorf("line %d: expected a command string or a map of distro keys", value.Line)
	}
}

// PathRules maps an environment variable name to its ordered path templates.
// Template order is significant: first-declared ends up with the highest
// precedence in the composed value.
type PathRules map[string][]string

type Stack struct {
	APIVersionKind `yaml:",inline" json:",inline"`

	Name        string        `yaml:"name" json:"name"`
	BuildDeps   DistroSection `yaml:"builddeps,omitempty" json:"builddeps,omitempty"`
	DistroSetup DistroSection `yaml:"distro_setup,omitempty" json:"distro_setup,omitempty"`
	Paths       PathRules     `yaml:"paths,omitempty" json:"paths,omitempty"`
}

type Project struct {
	APIVersionKind `yaml:",inline" json:",inline"`

	Name      string        `yaml:"name" json:"name"`
	Clone     string        `yaml:"clone,omitempty" json:"clone,omitempty"`
	BuildDeps DistroSection `yaml:"builddeps,omitempty" json:"builddeps,omitempty"`
	Configure string        `yaml:"configure,omitempty" json:"configure,omitempty"`
	Build     string        `yaml:"build,omitempty" json:"build,omitempty"`
	Install   string        `yaml:"install,omitempty" json:"install,omitempty"`
	Fixup     string        `yaml:"fixup,omitempty" json:"fixup,omitempty"`
	UnitTest  string        `yaml:"unittest,omitempty" json:"unittest,omitempty"`
	TestAll   string        `yaml:"test-all,omitempty" json:"test-all,omitempty"`
	TestSmoke string        `yaml:"test-smoke,omitempty" json:"test-smoke,omitempty"`
	TestWIP   string        `yaml:"test-wip,omitempty" json:"test-wip,omitempty"`
	Paths     PathRules     `yaml:"paths,omitempty" json:"paths,omitempty"`
}

// Manifest is one parsed manifest file: exactly one stack plus its projects
// in declaration order. Declaration order is load-bearing: it fixes both
// build order and environment precedence, and is never re-sorted.
type Manifest struct {
	Stack    Stack     `json:"stack"`
	Projects []Project `json:"projects"`
}

// Project returns the named project, or nil when the manifest does not
// declare it.
func (m *Manifest) Project(name string) *Project {
	for i := range m.Projects {
		if m.Projects[i].Name == name {
			return &m.Projects[i]
		}
	}
	return nil
}

// CommandFor returns the shell command declared for the named build stage,
// or "" when the project does not declare it.
func (p *Project) CommandFor(stage string) string {
	switch stage {
	case "clone":
		return p.Clone
	case "configure":
		return p.Configure
	case "build":
		return p.Build
	case "install":
		return p.Install
	case "fixup":
		return p.Fixup
	case "unittest":
		return p.UnitTest
	case "test-all":
		return p.TestAll
	case "test-smoke":
		return p.TestSmoke
	case "test-wip":
		return p.TestWIP
	default:
		return ""
	}
}
