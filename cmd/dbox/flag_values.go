// File: cmd/dbox/flag_values.go
// Brief: pflag.Value implementations for parse-time validation.

package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/containerd/platforms"
)

type enumStringValue struct {
	dest    *string
	allowed map[string]struct{}
}

func newEnumStringValue(dest *string, allowed ...string) *enumStringValue {
	m := make(map[string]struct{}, len(allowed))
	for _, v := range allowed {
		m[v] = struct{}{}
	}
	return &enumStringValue{dest: dest, allowed: m}
}

func (v *enumStringValue) String() string {
	if v == nil || v.dest == nil {
		return ""
	}
	return *v.dest
}

func (v *enumStringValue) Set(s string) error {
	s = strings.TrimSpace(s)
	if _, ok := v.allowed[s]; !ok {
		return fmt.Errorf("must be one of: %s", strings.Join(v.allowedValues(), ", "))
	}
	*v.dest = s
	return nil
}

func (v *enumStringValue) Type() string { return "string" }

func (v *enumStringValue) allowedValues() []string {
	values := make([]string, 0, len(v.allowed))
	for k := range v.allowed {
		values = append(values, k)
	}
	sort.Strings(values)
	return values
}

// baseValue accepts a NAME:VERSION base image identity.
type baseValue struct {
	dest *string
}

func newBaseValue(dest *string) *baseValue { return &baseValue{dest: dest} }

func (v *baseValue) String() string {
	if v == nil || v.dest == nil {
		return ""
	}
	return *v.dest
}

func (v *baseValue) Set(s string) error {
	trimmed := strings.TrimSpace(s)
	name, version, ok := strings.Cut(trimmed, ":")
	if !ok || strings.TrimSpace(name) == "" || strings.TrimSpace(version) == "" {
		return fmt.Errorf("expected NAME:VERSION, got %q", s)
	}
	*v.dest = trimmed
	return nil
}

func (v *baseValue) Type() string { return "string" }

// platformValue accepts an os/arch platform specifier.
type platformValue struct {
	dest *string
}

func newPlatformValue(dest *string) *platformValue { return &platformValue{dest: dest} }

func (v *platformValue) String() string {
	if v == nil || v.dest == nil {
		return ""
	}
	return *v.dest
}

func (v *platformValue) Set(s string) error {
	raw := strings.TrimSpace(s)
	if !strings.Contains(raw, "/") {
		return fmt.Errorf("invalid platform %q (expected os/arch like linux/amd64)", raw)
	}
	if _, err := platforms.Parse(raw); err != nil {
		return fmt.Errorf("invalid platform %q: %w", raw, err)
	}
	*v.dest = raw
	return nil
}

func (v *platformValue) Type() string { return "string" }
