package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/flatzdev/rtarc/internal/hexkey"
	"github.com/flatzdev/rtarc/internal/rtarcerr"
	"github.com/flatzdev/rtarc/internal/rtcipher"
)

var (
	decryptInput  string
	decryptOutput string
	decryptKeyHex string
)

var decryptCmd = &cobra.Command{
	Use:   "decrypt",
	Short: "Salsa20-decrypt an arbitrary file with a supplied hex key",
	Long: `decrypt applies the standalone Salsa20 cipher directly to a file with a
caller-supplied 32-byte key and a zero IV. This mode is independent of the
archive format: it is not used for in-archive node decryption.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDecrypt(decryptInput, decryptOutput, decryptKeyHex)
	},
}

func init() {
	rootCmd.AddCommand(decryptCmd)

	decryptCmd.Flags().StringVarP(&decryptInput, "input", "i", "", "input file path")
	decryptCmd.Flags().StringVarP(&decryptOutput, "output", "o", "", "output file path")
	decryptCmd.Flags().StringVarP(&decryptKeyHex, "key", "k", "", "32-byte key, 64 hex characters (whitespace tolerated)")
	decryptCmd.MarkFlagRequired("input")
	decryptCmd.MarkFlagRequired("output")
	decryptCmd.MarkFlagRequired("key")
}

func runDecrypt(input, output, keyHex string) error {
	key, err := hexkey.Parse(keyHex)
	if err != nil {
		return fmt.Errorf("cmd: decrypt: %w", err)
	}

	in, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("cmd: decrypt: read %q: %w", input, rtarcerr.Io)
	}

	out := make([]byte, len(in))
	rtcipher.NewSalsa20(key, nil).XORKeyStream(out, in)

	if err := os.WriteFile(output, out, 0o644); err != nil {
		return fmt.Errorf("cmd: decrypt: write %q: %w", output, rtarcerr.Io)
	}
	return nil
}
