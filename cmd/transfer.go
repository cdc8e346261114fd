package cmd

import (
	"context"
	"fmt"

	"github.com/mezonai/fastpay/client"
	"github.com/mezonai/fastpay/common"
	"github.com/mezonai/fastpay/logx"
	"github.com/mezonai/fastpay/transaction"
	"github.com/mezonai/fastpay/utils"
	"github.com/spf13/cobra"
)

type TransferConfig struct {
	To      string
	Amount  string
	NoWait  bool
	Verbose bool
}

var (
	transferFlags  committeeFlags
	transferConfig TransferConfig
)

type confirmOutput struct {
	Authority string `json:"authority"`
	Error     string `json:"error,omitempty"`
}

type transferOutput struct {
	Order        *transaction.TransferOrder        `json:"order"`
	Certificates []transaction.TransferCertificate `json:"certificates"`
	Confirmed    int                               `json:"confirmed,omitempty"`
	Failures     []confirmOutput                   `json:"failures,omitempty"`
}

// transferCmd represents the transfer command
var transferCmd = &cobra.Command{
	Use:   "transfer [flags]",
	Short: "Transfer funds to another account",
	Long: `This command signs a transfer order, collects a quorum of certificates from the
committee and broadcasts the confirmation to every authority.
The private key can be provided either directly via --private-key flag
or via a file using --private-key-file flag.

Examples:
  # Transfer 4 units using a private key file
  transfer -c config/node.yml -f alice.key -t <recipient hex key> -a 4

  # Transfer 1000 units using the private key directly
  transfer -c config/node.yml -p "your-private-key-here" -t <recipient hex key> -a 1_000`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return transferFunds(contextOrBackground(cmd.Context()), transferConfig)
	},
}

func init() {
	rootCmd.AddCommand(transferCmd)
	transferFlags.register(transferCmd)

	transferCmd.PersistentFlags().StringVarP(&transferConfig.To, "to", "t", "", "public key of recipient")
	transferCmd.PersistentFlags().StringVarP(&transferConfig.Amount, "amount", "a", "", "amount")
	transferCmd.PersistentFlags().BoolVar(&transferConfig.NoWait, "no-wait", false, "return once certified without waiting for confirmations")
	transferCmd.PersistentFlags().BoolVarP(&transferConfig.Verbose, "verbose", "v", false, "verbose output")
}

func transferFunds(ctx context.Context, cfg TransferConfig) error {
	amount, err := utils.ParseAmount(cfg.Amount)
	if err != nil {
		return fmt.Errorf("could not parse amount string: %w", err)
	}
	if !common.IsValidPublicKey(cfg.To) {
		return fmt.Errorf("invalid recipient public key %q", cfg.To)
	}

	kp, err := transferFlags.keyPair()
	if err != nil {
		return fmt.Errorf("failed to load sender private key: %w", err)
	}
	quorum, err := transferFlags.dial()
	if err != nil {
		return err
	}
	defer quorum.Close()

	if cfg.Verbose {
		logx.Debug("TRANSFER CLI", fmt.Sprintf("Sending %s from %s to %s through %d authorities",
			utils.Uint256ToString(amount), utils.ShortenLog(kp.PublicHex), utils.ShortenLog(cfg.To), len(quorum.Authorities())))
	}
	receipt, err := client.NewPayer(kp, quorum).Transfer(ctx, cfg.To, amount)
	if err != nil {
		return fmt.Errorf("transfer failed: %w", err)
	}

	out := transferOutput{Order: receipt.Order, Certificates: receipt.Certificates}
	if !cfg.NoWait {
		report := receipt.Confirm.Wait()
		out.Confirmed = report.Succeeded()
		for _, f := range report.Failed() {
			out.Failures = append(out.Failures, confirmOutput{Authority: f.Authority, Error: f.Err.Error()})
		}
	}
	return printJSON(out)
}
