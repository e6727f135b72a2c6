package buildinfo

import (
	"fmt"
	"runtime"
)

// Overridden at build time with -ldflags "-X".
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String describes the binary named name.
func String(name string) string {
	return fmt.Sprintf("%s %s (commit=%s, date=%s, %s)", name, Version, Commit, Date, runtime.Version())
}
