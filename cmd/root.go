// Package cmd implements the rtarc command-line tool: three modes layered
// over the internal/archive read path and the standalone Salsa20 cipher.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "rtarc",
	Short: "Read and extract the encrypted, B-tree-indexed racing-game archive format",
	Long: `rtarc reads the proprietary archive format used across three racing-game
generations (T5, T6, T7): an encrypted, B-tree-indexed container of
directories and files, plus a standalone Salsa20 decrypt mode for
arbitrary files.

Commands:
  unpack    Extract every file from an archive into a directory tree
  decrypt   Salsa20-decrypt an arbitrary file with a supplied hex key
  inspect   Resolve a path within an archive and print its node metadata`,
}

// Execute runs the root command, exiting non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "rtarc: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}
