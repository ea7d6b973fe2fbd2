package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information (injected at build time via ldflags)
var (
	AppVersion = "development"
	BuildTime  = "unknown"
	GitCommit  = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Draftwise %s\n", AppVersion)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Git Commit: %s\n", GitCommit)
		fmt.Println()

		// Report key presence only, never the keys themselves.
		for _, key := range []string{"GEMINI_API_KEY", "OPENAI_API_KEY"} {
			if os.Getenv(key) != "" {
				fmt.Printf("  %s: configured\n", key)
			} else {
				fmt.Printf("  %s: not set\n", key)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
