package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/mezonai/fastpay/config"
	"github.com/mezonai/fastpay/crypto"
	"github.com/spf13/cobra"
)

var (
	keygenCount  int
	keygenOutDir string
	keygenPort   int
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate Ed25519 key pairs",
	Long: `Generate Ed25519 key pairs and print the hex seed and public key of each.

With --count greater than one a roster stub for the node file is printed as well.
With --out-dir each seed is also written to <out-dir>/authN.key.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return generateKeys(keygenCount, keygenOutDir, keygenPort)
	},
}

func init() {
	rootCmd.AddCommand(keygenCmd)
	keygenCmd.Flags().IntVar(&keygenCount, "count", 1, "Number of key pairs to generate")
	keygenCmd.Flags().StringVar(&keygenOutDir, "out-dir", "", "Directory to write seed files into (optional)")
	keygenCmd.Flags().IntVar(&keygenPort, "base-port", 9001, "First endpoint port used in the roster stub")
}

func generateKeys(count int, outDir string, basePort int) error {
	if count <= 0 {
		return fmt.Errorf("--count must be positive")
	}

	roster := &config.NodeConfig{}
	for i := 0; i < count; i++ {
		kp, err := crypto.GenerateKeyPair()
		if err != nil {
			return fmt.Errorf("failed to generate key: %w", err)
		}
		id := fmt.Sprintf("auth%d", i+1)
		fmt.Printf("%s\n  private_seed: %s\n  public_key:   %s\n", id, kp.SeedHex(), kp.PublicHex)

		if outDir != "" {
			path := filepath.Join(outDir, id+".key")
			if err := config.SaveEd25519PrivKey(path, kp); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}
			fmt.Printf("  written to:   %s\n", path)
		}
		roster.Authorities = append(roster.Authorities, config.AuthorityConfig{
			ID:        id,
			PublicKey: kp.PublicHex,
			Endpoint:  fmt.Sprintf("http://127.0.0.1:%d", basePort+i),
		})
	}

	if count == 1 {
		return nil
	}
	stub, err := config.EncodeNodeConfig(roster)
	if err != nil {
		return err
	}
	fmt.Printf("\n# roster stub\n%s", stub)
	return nil
}
