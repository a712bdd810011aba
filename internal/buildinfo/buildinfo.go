// Package buildinfo holds release metadata set with -ldflags -X at build time.
package buildinfo

// Empty for local builds.
var (
	Version = ""
	Commit  = ""
	Date    = ""
)
