// File: internal/manifest/load.go
// Brief: Multi-document YAML manifest loader.

package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	kindStack   = "Stack"
	kindProject = "Project"
)

// Load parses a manifest from raw bytes. The manifest is a stream of YAML
// documents, each discriminated by its kind field: exactly one Stack plus
// any number of Projects, in declaration order.
func Load(data []byte, source string) (*Manifest, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	m := &Manifest{}
	haveStack := false
	seen := map[string]int{}

	for docIndex := 0; ; docIndex++ {
		var node yaml.Node
		err := dec.Decode(&node)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errf(source, "parse document %d: %v", docIndex, err)
		}
		if isEmptyDoc(&node) {
			continue
		}

		kind, apiVersion := docDiscriminator(&node)
		if apiVersion != "" && apiVersion != APIVersion {
			return nil, errf(source, "document %d: apiVersion must be %s (got %q)", docIndex, APIVersion, apiVersion)
		}
		switch kind {
		case kindStack:
			if haveStack {
				return nil, errf(source, "document %d: more than one stack declared (already have %q)", docIndex, m.Stack.Name)
			}
			var s Stack
			if err := node.Decode(&s); err != nil {
				return nil, errf(source, "document %d: %v", docIndex, err)
			}
			if strings.TrimSpace(s.Name) == "" {
				return nil, errf(source, "document %d: stack name is required", docIndex)
			}
			if s.Paths == nil {
				s.Paths = PathRules{}
			}
			m.Stack = s
			haveStack = true
		case kindProject:
			var p Project
			if err := node.Decode(&p); err != nil {
				return nil, errf(source, "document %d: %v", docIndex, err)
			}
			if strings.TrimSpace(p.Name) == "" {
				return nil, errf(source, "document %d: project name is required", docIndex)
			}
			if prev, dup := seen[p.Name]; dup {
				return nil, errf(source, "document %d: duplicate project %q (first declared in document %d)", docIndex, p.Name, prev)
			}
			seen[p.Name] = docIndex
			if p.Paths == nil {
				p.Paths = PathRules{}
			}
			m.Projects = append(m.Projects, p)
		case "":
			return nil, errf(source, "document %d: kind is required (Stack or Project)", docIndex)
		default:
			return nil, errf(source, "document %d: kind must be Stack or Project (got %q)", docIndex, kind)
		}
	}

	if !haveStack {
		return nil, errf(source, "no stack declared")
	}
	return m, nil
}

// LoadFile reads and parses a manifest from disk.
func LoadFile(path string) (*Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return Load(raw, path)
}

// isEmptyDoc reports whether a decoded document carries no content, as
// produced by --- separators with nothing between them. The decoder hands
// such documents over as a document node wrapping a null scalar.
func isEmptyDoc(node *yaml.Node) bool {
	n := node
	if n.Kind == yaml.DocumentNode {
		if len(n.Content) == 0 {
			return true
		}
		n = n.Content[0]
	}
	return n.Kind == 0 || n.Tag == "!!null"
}

// docDiscriminator peeks the kind and apiVersion scalars out of a document
// node without decoding the full document.
func docDiscriminator(node *yaml.Node) (kind, apiVersion string) {
	n := node
	if n.Kind == yaml.DocumentNode && len(n.Content) > 0 {
		n = n.Content[0]
	}
	if n.Kind != yaml.MappingNode {
		return "", ""
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key := n.Content[i]
		val := n.Content[i+1]
		if key.Kind != yaml.ScalarNode || val.Kind != yaml.ScalarNode {
			continue
		}
		switch key.Value {
		case "kind":
			kind = val.Value
		case "apiVersion":
			apiVersion = val.Value
		}
	}
	return kind, apiVersion
}
