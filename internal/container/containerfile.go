package container

import (
	"fmt"
	"strings"

	ocispec "github.com/opencontainers/image-spec/specs-go/v1"

	"github.com/example/dbox/internal/distro"
)

// ImageSpec describes one stack image to build.
type ImageSpec struct {
	Name     string
	Stack    string
	Base     distro.Target
	SetupCmd string
	DepsCmd  string
}

// RenderContainerfile produces the build recipe for a stack image: the base
// layer, the baked-in container identity, the stack's distro_setup layer,
// and the build-dependency layer. Empty commands contribute no layer.
func RenderContainerfile(spec ImageSpec) string {
	var b strings.Builder
	fmt.Fprintf(&b, "FROM %s:%s\n", spec.Base.Name, spec.Base.Version)
	fmt.Fprintf(&b, "ENV %s=%s\n", distro.EnvContainer, spec.Base.String())
	fmt.Fprintf(&b, "LABEL %s=%q\n", ocispec.AnnotationTitle, "dbox build environment for "+spec.Stack)
	fmt.Fprintf(&b, "LABEL %s=%q\n", ocispec.AnnotationDescription,
		fmt.Sprintf("stack %s on %s", spec.Stack, spec.Base))
	fmt.Fprintf(&b, "LABEL %s=%q\n", ocispec.AnnotationBaseImageName, spec.Base.Name+":"+spec.Base.Version)
	if spec.SetupCmd != "" {
		fmt.Fprintf(&b, "RUN %s\n", spec.SetupCmd)
	}
	if spec.DepsCmd != "" {
		fmt.Fprintf(&b, "RUN %s\n", spec.DepsCmd)
	}
	return b.String()
}
