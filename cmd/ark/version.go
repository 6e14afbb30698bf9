package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Build-time variables set by goreleaser or go build -ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version, commit hash, and build date of ark.`,
	Run:   runVersion,
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// runVersion prints version information.
func runVersion(cmd *cobra.Command, _ []string) {
	w := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(w, "ark %s\n", version)
	_, _ = fmt.Fprintf(w, "  commit:  %s\n", commit)
	_, _ = fmt.Fprintf(w, "  built:   %s\n", date)
	_, _ = fmt.Fprintf(w, "  go:      %s\n", runtime.Version())
	_, _ = fmt.Fprintf(w, "  os/arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}
