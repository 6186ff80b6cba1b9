package cmd

import (
	"fmt"
	"io"
	"runtime"
)

// Version is set at build time with -ldflags "-X folio/cmd.Version=..."
var Version = "dev"

func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "folio %s (%s, %s/%s)\n", Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
