// Package version reports build metadata for the layoutdb binary.
package version

import (
	"fmt"
	"runtime"
)

// Set via ldflags at build time:
//
//	go build -ldflags "-X github.com/soyeahso/layoutdb/internal/version.Version=1.0.0
//	  -X github.com/soyeahso/layoutdb/internal/version.Commit=abc123
//	  -X github.com/soyeahso/layoutdb/internal/version.Date=2026-01-01"
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Build describes the running binary.
type Build struct {
	Version string `yaml:"version"`
	Commit  string `yaml:"commit"`
	Date    string `yaml:"date"`
	Schema  int    `yaml:"schema"`
	OS      string `yaml:"os"`
	Arch    string `yaml:"arch"`
}

// Current returns build metadata; schema is the newest database migration
// the binary knows about.
func Current(schema int) Build {
	return Build{
		Version: Version,
		Commit:  short(Commit),
		Date:    Date,
		Schema:  schema,
		OS:      runtime.GOOS,
		Arch:    runtime.GOARCH,
	}
}

// Info returns a formatted version string.
func Info(schema int) string {
	b := Current(schema)
	return fmt.Sprintf("layoutdb %s (commit: %s, built: %s, schema: v%d, %s/%s)",
		b.Version, b.Commit, b.Date, b.Schema, b.OS, b.Arch)
}

func short(s string) string {
	if len(s) > 7 {
		return s[:7]
	}
	return s
}
