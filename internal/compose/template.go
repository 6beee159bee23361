// File: internal/compose/template.go
// Brief: Placeholder-token substitution for path templates.

package compose

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// TokenLibdir substitutes to the target's system library directory name.
const TokenLibdir = "libdir"

// TokenSrcdir is only meaningful as a template prefix, where it switches
// rooting from the install directory to the project checkout.
const TokenSrcdir = "{srcdir}"

// GapError reports a placeholder token with no substitution. Composition
// fails with it before any stage command runs.
type GapError struct {
	Token    string
	Template string
	Variable string
	Project  string
}

func (e *GapError) Error() string {
	msg := fmt.Sprintf("no substitution for {%s} in path template %q", e.Token, e.Template)
	if e.Variable != "" {
		msg += " of " + e.Variable
	}
	if e.Project != "" {
		msg += " (project " + e.Project + ")"
	}
	return msg
}

var tokenRE = regexp.MustCompile(`\{([A-Za-z0-9_]+)\}`)

// expandTokens replaces every {token} occurrence in tmpl using the explicit
// substitution mapping. An unknown token is a configuration error, never
// silently passed through.
func expandTokens(tmpl string, subs map[string]string) (string, error) {
	var gap *GapError
	out := tokenRE.ReplaceAllStringFunc(tmpl, func(m string) string {
		name := m[1 : len(m)-1]
		if v, ok := subs[name]; ok {
			return v
		}
		if gap == nil {
			gap = &GapError{Token: name, Template: tmpl}
		}
		return m
	})
	if gap != nil {
		return "", gap
	}
	return out, nil
}

// resolveTemplate turns one declared template into an absolute path. Tokens
// are substituted first; the result is then rooted at the install directory,
// or at the source directory when the template starts with {srcdir}.
func resolveTemplate(tmpl, installDir, sourceDir string, subs map[string]string) (string, error) {
	root := installDir
	if rest, ok := strings.CutPrefix(tmpl, TokenSrcdir); ok {
		root = sourceDir
		tmpl = strings.TrimPrefix(rest, "/")
	}
	expanded, err := expandTokens(tmpl, subs)
	if err != nil {
		return "", err
	}
	if expanded == "" {
		return root, nil
	}
	return filepath.Join(root, expanded), nil
}
