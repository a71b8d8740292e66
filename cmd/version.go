package cmd

import (
	"cmp"
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// version is set via -ldflags at build time.
var version = ""

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the build version",
	Run: func(cmd *cobra.Command, args []string) {
		v, rev := buildVersion()
		if rev != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "medquiz %s (%s)\n", v, rev)
			return
		}
		fmt.Fprintln(cmd.OutOrStdout(), "medquiz", v)
	},
}

// buildVersion prefers the ldflags value and falls back to the module
// version and VCS revision embedded by the go tool.
func buildVersion() (string, string) {
	v := version
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return cmp.Or(v, "(devel)"), ""
	}
	if v == "" {
		v = info.Main.Version
	}
	var rev string
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && len(s.Value) >= 12 {
			rev = s.Value[:12]
		}
	}
	return cmp.Or(v, "(devel)"), rev
}
