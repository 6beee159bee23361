package compose

import (
	"sort"
	"strings"

	"github.com/example/dbox/internal/manifest"
)

// Synthetic per-project variables. Both appear in every per-project snapshot
// and are stripped from the final one.
const (
	EnvInstallDir = "DBOX_INSTALL_DIR"
	EnvSourceDir  = "DBOX_SOURCE_DIR"
)

// builtinDefaults are the path templates every project contributes, rooted
// at its install directory, whether or not the project declares paths of its
// own. Stack-level path rules extend these per variable.
var builtinDefaults = map[string][]string{
	"PATH":              {"bin", "sbin"},
	"LD_LIBRARY_PATH":   {"{libdir}"},
	"PKG_CONFIG_PATH":   {"{libdir}/pkgconfig", "share/pkgconfig"},
	"CMAKE_PREFIX_PATH": {"."},
	"ACLOCAL_PATH":      {"share/aclocal"},
	"PYTHONPATH":        {"{libdir}/python3/site-packages"},
}

// BuiltinVars lists the built-in path variable names, sorted.
func BuiltinVars() []string {
	names := make([]string, 0, len(builtinDefaults))
	for name := range builtinDefaults {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CMake list variables carry ;-separated lists; every other recognized
// variable is a classic :-separated search path.
const cmakeListPrefix = "CMAKE_"

// SeparatorFor returns the join character used inside the named variable's
// composed value.
func SeparatorFor(name string) string {
	if strings.HasPrefix(name, cmakeListPrefix) {
		return ";"
	}
	return ":"
}

const localePrefix = "LC_"

// isLocaleVar reports whether the variable is copied verbatim from the
// process environment instead of being composed.
func isLocaleVar(name string) bool {
	return name == "LANG" || strings.HasPrefix(name, localePrefix)
}

// recognizedVars is the closed set of variables one composition pass
// touches: the built-ins plus everything the stack or any project declares
// path rules for. Returned sorted so passes are deterministic.
func recognizedVars(m *manifest.Manifest) []string {
	set := make(map[string]struct{}, len(builtinDefaults))
	for name := range builtinDefaults {
		set[name] = struct{}{}
	}
	for name := range m.Stack.Paths {
		set[name] = struct{}{}
	}
	for i := range m.Projects {
		for name := range m.Projects[i].Paths {
			set[name] = struct{}{}
		}
	}
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
