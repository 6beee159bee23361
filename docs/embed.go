package docs

import _ "embed"

var (
	//go:embed manifests.md
	ManifestsMD string

	//go:embed environment.md
	EnvironmentMD string

	//go:embed pipeline.md
	PipelineMD string

	//go:embed containers.md
	ContainersMD string
)

// Topic pairs a selectable name with its document.
type Topic struct {
	Name  string
	Title string
	Body  string
}

// Topics returns the built-in documentation in reading order.
func Topics() []Topic {
	return []Topic{
		{Name: "manifests", Title: "Stack manifests and the config store", Body: ManifestsMD},
		{Name: "environment", Title: "How the layered environment is composed", Body: EnvironmentMD},
		{Name: "pipeline", Title: "Build stages, tests, and dependencies", Body: PipelineMD},
		{Name: "containers", Title: "Stack images and containerized builds", Body: ContainersMD},
	}
}

// Lookup returns the named topic.
func Lookup(name string) (Topic, bool) {
	for _, t := range Topics() {
		if t.Name == name {
			return t, true
		}
	}
	return Topic{}, false
}
