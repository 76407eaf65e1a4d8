package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flatzdev/rtarc/internal/archive"
	"github.com/flatzdev/rtarc/internal/rtlog"
)

var (
	unpackInput  string
	unpackOutput string
)

var unpackCmd = &cobra.Command{
	Use:   "unpack",
	Short: "Extract every file from an archive into a directory tree",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runUnpack(unpackInput, unpackOutput)
	},
}

func init() {
	rootCmd.AddCommand(unpackCmd)

	unpackCmd.Flags().StringVarP(&unpackInput, "input", "i", "", "path to the archive's primary index file")
	unpackCmd.Flags().StringVarP(&unpackOutput, "output", "o", "", "destination directory")
	unpackCmd.MarkFlagRequired("input")
	unpackCmd.MarkFlagRequired("output")
}

func runUnpack(input, output string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := rtlog.New(verbose || cfg.Verbose)

	vol, err := archive.Open(input, logger)
	if err != nil {
		return fmt.Errorf("cmd: unpack %q: %w", input, err)
	}
	defer vol.Close()

	if err := vol.UnpackAll(output); err != nil {
		return fmt.Errorf("cmd: unpack %q: %w", input, err)
	}
	return nil
}
