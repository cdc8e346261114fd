package cmd

import (
	"context"
	"fmt"

	"github.com/mezonai/fastpay/client"
	"github.com/mezonai/fastpay/transaction"
	"github.com/mezonai/fastpay/utils"
	"github.com/spf13/cobra"
)

var (
	accountFlags     committeeFlags
	accountPublicKey string
)

// accountOutput is the printed form of an account.
type accountOutput struct {
	PublicKey          string                     `json:"public_key"`
	Balance            string                     `json:"balance"`
	NextSequence       uint64                     `json:"next_sequence"`
	Pending            *transaction.TransferOrder `json:"pending,omitempty"`
	ConfirmedTransfers int                        `json:"confirmed_transfers"`
}

func newAccountOutput(acc client.Account) accountOutput {
	return accountOutput{
		PublicKey:          acc.PublicKey,
		Balance:            utils.Uint256ToString(acc.Balance),
		NextSequence:       acc.NextSequence,
		Pending:            acc.Pending,
		ConfirmedTransfers: acc.ConfirmedTransfers,
	}
}

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Open or inspect an account",
}

var accountCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Open the account on every authority",
	Long: `Open the account of the given private key on every authority of the committee.
Authorities that already know the account count as successes.

Example:
  fastpay account create -c config/node.yml -f alice.key`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return createAccount(cmd.Context())
	},
}

var accountGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Read an account from the committee",
	Long: `Read an account from every authority and print the freshest answer.
The account is selected by --public-key, or derived from the private key flags.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return getAccount(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(accountCmd)
	accountCmd.AddCommand(accountCreateCmd, accountGetCmd)
	accountFlags.register(accountCmd)
	accountGetCmd.Flags().StringVar(&accountPublicKey, "public-key", "", "hex public key of the account to read")
}

func createAccount(ctx context.Context) error {
	kp, err := accountFlags.keyPair()
	if err != nil {
		return err
	}
	quorum, err := accountFlags.dial()
	if err != nil {
		return err
	}
	defer quorum.Close()

	acc, err := client.NewPayer(kp, quorum).CreateAccount(contextOrBackground(ctx))
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return printJSON(newAccountOutput(acc))
}

func getAccount(ctx context.Context) error {
	quorum, err := accountFlags.dial()
	if err != nil {
		return err
	}
	defer quorum.Close()

	publicKey := accountPublicKey
	if publicKey == "" {
		kp, err := accountFlags.keyPair()
		if err != nil {
			return fmt.Errorf("--public-key or a private key is required: %w", err)
		}
		publicKey = kp.PublicHex
	}

	acc, err := client.FreshestAccount(contextOrBackground(ctx), quorum, publicKey)
	if err != nil {
		return fmt.Errorf("failed to read account: %w", err)
	}
	return printJSON(newAccountOutput(acc))
}

func contextOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
