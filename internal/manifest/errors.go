package manifest

import "fmt"

// Error reports a malformed or ambiguous manifest. It is fatal: nothing is
// executed once a manifest fails to load.
type Error struct {
	Source string // file path or URL the manifest came from
	Msg    string
}

func (e *Error) Error() string {
	if e.Source == "" {
		return "manifest: " + e.Msg
	}
	return fmt.Sprintf("manifest %s: %s", e.Source, e.Msg)
}

func errf(source, format string, args ...any) *Error {
	return &Error{Source: source, Msg: fmt.Sprintf(format, args...)}
}

// NotFoundError reports a stack or project name that resolved to nothing.
type NotFoundError struct {
	Kind string // "stack" or "project"
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("unknown %s %q", e.Kind, e.Name)
}
