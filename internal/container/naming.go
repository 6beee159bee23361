// Package container shells out to podman: image builds from generated
// Containerfiles, stack-image naming and discovery, and command execution
// inside build containers. Nothing here manages container lifecycle beyond
// single podman invocations.
package container

import (
	"fmt"
	"strings"

	"github.com/distribution/reference"
	digest "github.com/opencontainers/go-digest"

	"github.com/example/dbox/internal/distro"
)

const (
	imagePrefix = "dbox__"
	imageSep    = "__"
)

// SelfPath is where the running dbox binary is exposed inside a build
// container so the pipeline can re-invoke itself.
const SelfPath = "/usr/local/bin/dbox"

// ImageName builds the tag for a stack/base pair:
// [hostPrefix/]dbox__<stack>__<base-name>:<base-version>.
func ImageName(hostPrefix, stack string, base distro.Target) (string, error) {
	if strings.TrimSpace(stack) == "" {
		return "", fmt.Errorf("stack name is empty")
	}
	if base.Name == "" || base.Version == "" {
		return "", fmt.Errorf("image base must be NAME:VERSION, got %q", base.String())
	}
	name := imagePrefix + stack + imageSep + base.Name + ":" + base.Version
	if hostPrefix != "" {
		name = strings.TrimSuffix(hostPrefix, "/") + "/" + name
	}
	if _, err := reference.ParseNormalizedNamed(name); err != nil {
		return "", fmt.Errorf("invalid image name %s: %w", name, err)
	}
	return name, nil
}

// ParseImageName decodes a generated image tag back into its stack and base
// identity. Foreign images return ok=false. The base name is taken from the
// last __ separator, so stack names may themselves contain __.
func ParseImageName(s string) (stack string, base distro.Target, ok bool) {
	named, err := reference.ParseNormalizedNamed(s)
	if err != nil {
		return "", distro.Target{}, false
	}
	path := reference.Path(named)
	last := path[strings.LastIndex(path, "/")+1:]
	if !strings.HasPrefix(last, imagePrefix) {
		return "", distro.Target{}, false
	}
	rest := strings.TrimPrefix(last, imagePrefix)
	idx := strings.LastIndex(rest, imageSep)
	if idx <= 0 || idx+len(imageSep) >= len(rest) {
		return "", distro.Target{}, false
	}
	stack = rest[:idx]
	baseName := rest[idx+len(imageSep):]
	tagged, isTagged := named.(reference.Tagged)
	if !isTagged {
		return "", distro.Target{}, false
	}
	return stack, distro.Target{Name: baseName, Version: tagged.Tag()}, true
}

// ShortID renders an image identifier in the usual 12-character form,
// accepting both bare hex and sha256:-prefixed digests.
func ShortID(id string) string {
	if strings.Contains(id, ":") {
		if d, err := digest.Parse(id); err == nil {
			id = d.Encoded()
		}
	} else if d := digest.NewDigestFromEncoded(digest.SHA256, id); d.Validate() == nil {
		id = d.Encoded()
	}
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
