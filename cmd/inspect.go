package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flatzdev/rtarc/internal/archive"
	"github.com/flatzdev/rtarc/internal/rtlog"
)

var (
	inspectInput string
	inspectPath  string
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Resolve a path within an archive and print its node metadata",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInspect(inspectInput, inspectPath)
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().StringVarP(&inspectInput, "input", "i", "", "path to the archive's primary index file")
	inspectCmd.Flags().StringVarP(&inspectPath, "path", "p", "", "archive-internal path to resolve")
	inspectCmd.MarkFlagRequired("input")
	inspectCmd.MarkFlagRequired("path")
}

func runInspect(input, path string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := rtlog.New(verbose || cfg.Verbose)

	vol, err := archive.Open(input, logger)
	if err != nil {
		return fmt.Errorf("cmd: inspect %q: %w", input, err)
	}
	defer vol.Close()

	node, err := vol.GetNodeByPath(path)
	if err != nil {
		return fmt.Errorf("cmd: inspect %q: %w", path, err)
	}

	fmt.Printf("dialect:     %s\n", vol.Dialect())
	if title := vol.Title(); title != "" {
		fmt.Printf("title:       %s\n", title)
	}
	fmt.Printf("nodeIndex:   %d\n", node.NodeIndex)
	fmt.Printf("volumeIndex: %d\n", node.VolumeIndex)
	fmt.Printf("sectorIndex: %d\n", node.SectorIndex)
	fmt.Printf("size1:       %d\n", node.Size1)
	fmt.Printf("size2:       %d\n", node.Size2)
	fmt.Printf("compressed:  %v\n", node.IsCompressed())
	return nil
}
