package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var appVersion = "0.1.0"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "datefixer",
	Short: "Fix capture dates of photos and videos",
	Long: `datefixer reads the dates stored in photos and videos (EXIF, video
containers, filenames, filesystem), picks one by rule, and writes it back as
EXIF DateTimeDigitized/DateTime and file timestamps, optionally renaming or
copying files on the way.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), appVersion)
	},
}

func init() {
	rootCmd.AddCommand(scanCmd, previewCmd, applyCmd, presetCmd, versionCmd)
}
