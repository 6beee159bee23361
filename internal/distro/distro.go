// File: internal/distro/distro.go
// Brief: Target distro identity and per-distro command resolution.

package distro

import (
	"bufio"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/example/dbox/internal/manifest"
)

// EnvContainer marks the ambient target when a command runs inside one of
// our containers. Set by the podman adapter, never by the user.
const EnvContainer = "DBOX_CONTAINER"

// Target identifies an operating system by name and optional version, e.g.
// (fedora, 41).
type Target struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

func (t Target) String() string {
	if t.Version == "" {
		return t.Name
	}
	return t.Name + ":" + t.Version
}

func (t Target) IsZero() bool {
	return t.Name == ""
}

// Parse splits a "name" or "name:version" identifier into a Target.
func Parse(s string) (Target, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Target{}, fmt.Errorf("distro identifier is empty")
	}
	name, version, _ := strings.Cut(s, ":")
	name = strings.TrimSpace(name)
	if name == "" {
		return Target{}, fmt.Errorf("invalid distro identifier %q", s)
	}
	return Target{Name: name, Version: strings.TrimSpace(version)}, nil
}

// Detect returns the target distro for this invocation. Precedence: the
// caller-supplied override, then the ambient in-container identity, then the
// host's os-release metadata.
func Detect(override string) (Target, error) {
	if strings.TrimSpace(override) != "" {
		return Parse(override)
	}
	if ambient := strings.TrimSpace(os.Getenv(EnvContainer)); ambient != "" {
		return Parse(ambient)
	}
	return host()
}

// InContainer reports whether this process runs inside one of our build
// containers, and which target it is.
func InContainer() (Target, bool) {
	ambient := strings.TrimSpace(os.Getenv(EnvContainer))
	if ambient == "" {
		return Target{}, false
	}
	t, err := Parse(ambient)
	if err != nil {
		return Target{}, false
	}
	return t, true
}

var osReleasePaths = []string{"/etc/os-release", "/usr/lib/os-release"}

func host() (Target, error) {
	for _, path := range osReleasePaths {
		raw, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if t := parseOSRelease(string(raw)); !t.IsZero() {
			return t, nil
		}
	}
	return Target{}, fmt.Errorf("cannot determine host distro: no usable os-release file")
}

func parseOSRelease(raw string) Target {
	var t Target
	scanner := bufio.NewScanner(strings.NewReader(raw))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		val = strings.Trim(strings.TrimSpace(val), `"'`)
		switch key {
		case "ID":
			t.Name = val
		case "VERSION_ID":
			t.Version = val
		}
	}
	return t
}

// rpm-family distros install 64-bit libraries under lib64; everything else
// in practice uses a plain lib directory.
var rpmFamily = map[string]struct{}{
	"fedora":    {},
	"rhel":      {},
	"centos":    {},
	"rocky":     {},
	"almalinux": {},
	"opensuse":  {},
	"mageia":    {},
}

var lib64Arches = map[string]struct{}{
	"amd64":    {},
	"arm64":    {},
	"ppc64":    {},
	"ppc64le":  {},
	"s390x":    {},
	"riscv64":  {},
	"mips64":   {},
	"mips64le": {},
	"loong64":  {},
}

// Libdir returns the system library directory name ("lib" or "lib64") for
// the target on the current architecture.
func Libdir(t Target) string {
	return libdirFor(t, runtime.GOARCH)
}

func libdirFor(t Target, goarch string) string {
	if _, ok := rpmFamily[t.Name]; !ok {
		return "lib"
	}
	if _, ok := lib64Arches[goarch]; !ok {
		return "lib"
	}
	return "lib64"
}

// Resolve picks the command for the target out of a distro section. Most
// specific key wins: "name:version", then "name", then "default". Absence is
// not an error: callers treat it as nothing to do.
func Resolve(section manifest.DistroSection, target Target) (string, bool) {
	if len(section) == 0 {
		return "", false
	}
	if target.Version != "" {
		if cmd, ok := section[target.Name+":"+target.Version]; ok {
			return cmd, true
		}
	}
	if cmd, ok := section[target.Name]; ok {
		return cmd, true
	}
	if cmd, ok := section["default"]; ok {
		return cmd, true
	}
	return "", false
}
