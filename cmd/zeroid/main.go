// Command zeroid runs the ZeroID identity verification service.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is overridden at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "zeroid",
		Short: "ZeroID privacy-preserving identity verification service",
		Long: `zeroid issues zero-knowledge-backed identity credentials, escrows the
underlying PII under regulator-recoverable encryption, and verifies
Groth16 proofs presented against those credentials.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(serveCmd(), versionCmd(), keysCmd())
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(version)
			return nil
		},
	}
}
