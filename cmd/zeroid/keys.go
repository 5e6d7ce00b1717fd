package main

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zeroidhq/zeroid-core/internal/crypto/eddsa"
	"github.com/zeroidhq/zeroid-core/internal/crypto/keys"
)

func keysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Key material utilities",
	}
	cmd.AddCommand(keysInitCmd())
	return cmd
}

func keysInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Generate a new issuer signing key and print it as hex",
		Long: `Generates a fresh BabyJubJub issuer signing key and prints its seed as
hex, suitable for ZEROID_ISSUER_PRIVATE_KEY. The key is not persisted;
redirect the output to a secret store rather than a file on disk.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			sk, err := eddsa.GenerateKey()
			if err != nil {
				return fmt.Errorf("generate issuer key: %w", err)
			}
			seed := sk.Bytes()
			defer keys.Wipe(seed)

			pub := sk.Public().Compress()
			fmt.Printf("seed:       %s\n", hex.EncodeToString(seed))
			fmt.Printf("public key: %s\n", hex.EncodeToString(pub[:]))
			return nil
		},
	}
}
