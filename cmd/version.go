// =============================================================================
// Tally Voucher Export - Version Command
// =============================================================================
//
// This file defines the 'version' command.
//
// COMMAND USAGE:
//   tally-export version
//   tally-export version --short
//
// OUTPUT:
//   tally-export 1.2.0 (commit 3f2c9ab, built 2024-05-01T10:00:00Z)
//   go1.24.0 linux/amd64
//
// Release builds set Version, Commit and BuildDate through ldflags:
//   go build -ldflags "\
//     -X 'github.com/ginjaninja78/tally-voucher-export/cmd.Version=1.2.0' \
//     -X 'github.com/ginjaninja78/tally-voucher-export/cmd.Commit=3f2c9ab' \
//     -X 'github.com/ginjaninja78/tally-voucher-export/cmd.BuildDate=2024-05-01T10:00:00Z'"
//
// Builds without ldflags fall back to the VCS stamp of the Go toolchain.
//
// =============================================================================

package cmd

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

var (
	// Version is the release version.
	Version = "dev"

	// Commit is the VCS revision the binary was built from.
	Commit = ""

	// BuildDate is the build time, RFC 3339.
	BuildDate = ""
)

var versionShort bool

// buildInfo is the resolved version stamp of the binary.
type buildInfo struct {
	Version   string
	Commit    string
	BuildDate string
	Modified  bool
}

// resolveBuildInfo fills the fields ldflags left empty from the VCS settings
// recorded by the toolchain.
func resolveBuildInfo(info *debug.BuildInfo, ok bool) buildInfo {
	b := buildInfo{Version: Version, Commit: Commit, BuildDate: BuildDate}
	if !ok || info == nil {
		return b
	}

	if b.Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		b.Version = info.Main.Version
	}

	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if b.Commit == "" {
				b.Commit = s.Value
			}
		case "vcs.time":
			if b.BuildDate == "" {
				b.BuildDate = s.Value
			}
		case "vcs.modified":
			b.Modified = s.Value == "true"
		}
	}
	return b
}

// String renders the first line of the version output.
func (b buildInfo) String() string {
	commit := b.Commit
	if commit == "" {
		commit = "unknown"
	} else if len(commit) > 7 {
		commit = commit[:7]
	}
	if b.Modified {
		commit += "-dirty"
	}

	date := b.BuildDate
	if date == "" {
		date = "unknown"
	}

	return fmt.Sprintf("tally-export %s (commit %s, built %s)", b.Version, commit, date)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display the application version",
	Long:  `Display the release version, VCS commit, build date and Go runtime.`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		b := resolveBuildInfo(debug.ReadBuildInfo())
		if versionShort {
			fmt.Fprintln(cmd.OutOrStdout(), b.Version)
			return
		}
		fmt.Fprintln(cmd.OutOrStdout(), b.String())
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)

	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Print only the version")
}
