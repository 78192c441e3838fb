package version

import (
	"fmt"
	"io"
)

// Set at link time with -ldflags "-X github.com/veesix-networks/wireprobe/pkg/version.Version=...".
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

func Full() string {
	return Version + " (" + Commit + ") built on " + Date
}

func Print(w io.Writer, name string) {
	fmt.Fprintf(w, "%s %s\n", name, Full())
}
