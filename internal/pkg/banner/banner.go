package banner

import (
	"fmt"
	"io"
	"runtime"
)

const banner = `
   ____          _ _    _______        _
  / __ \        (_) |  |__   __|      | |
 | |  | |_      ___| | __ | | ___  ___| |_
 | |  | \ \ /\ / / | |/ / | |/ _ \/ __| __|
 | |__| |\ V  V /| |   <  | |  __/\__ \ |_
  \___\_\ \_/\_/ |_|_|\_\ |_|\___||___/\__|
`

// Print writes the startup banner with version and build information.
func Print(w io.Writer, version, commitHash, buildTime string) {
	fmt.Fprint(w, banner)
	fmt.Fprintf(w, "  Version:     %s\n", version)

	if commitHash != "" && commitHash != "unknown" {
		if len(commitHash) > 7 {
			commitHash = commitHash[:7]
		}
		fmt.Fprintf(w, "  Commit:      %s\n", commitHash)
	}

	if buildTime != "" && buildTime != "unknown" {
		fmt.Fprintf(w, "  Build Time:  %s\n", buildTime)
	}

	fmt.Fprintf(w, "  Go Version:  %s\n", runtime.Version())
	fmt.Fprintf(w, "  OS/Arch:     %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Fprintln(w)
}
