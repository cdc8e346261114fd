package cmd

import (
	"context"
	"fmt"

	"github.com/mezonai/fastpay/authority"
	"github.com/mezonai/fastpay/client"
	"github.com/mezonai/fastpay/crypto"
	"github.com/mezonai/fastpay/errors"
	"github.com/mezonai/fastpay/ledger"
	"github.com/mezonai/fastpay/transaction"
	"github.com/mezonai/fastpay/utils"
	"github.com/spf13/cobra"
)

var (
	simulateAuthorities int
	simulateFaulty      int
	simulateAmount      string
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run a payment through an in-process committee",
	Long: `Build a committee of --authorities in-process ledgers, take --faulty of them offline,
open two accounts and move --amount from the first to the second. The per-authority
balances are printed afterwards.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return simulate(contextOrBackground(cmd.Context()), simulateAuthorities, simulateFaulty, simulateAmount)
	},
}

func init() {
	rootCmd.AddCommand(simulateCmd)
	simulateCmd.Flags().IntVar(&simulateAuthorities, "authorities", 4, "Committee size")
	simulateCmd.Flags().IntVar(&simulateFaulty, "faulty", 1, "Number of authorities that refuse every request")
	simulateCmd.Flags().StringVar(&simulateAmount, "amount", "4", "Amount to transfer")
}

// offlineAuthority refuses every request.
type offlineAuthority struct {
	client.AuthorityClient
}

func (offlineAuthority) CreateAccount(context.Context, string) (client.Account, error) {
	return client.Account{}, errors.ErrInternal
}

func (offlineAuthority) GetAccount(context.Context, string) (client.Account, error) {
	return client.Account{}, errors.ErrInternal
}

func (offlineAuthority) SubmitTransfer(context.Context, *transaction.TransferOrder) (transaction.TransferCertificate, error) {
	return transaction.TransferCertificate{}, errors.ErrInternal
}

func (offlineAuthority) ConfirmTransfer(context.Context, string, []transaction.TransferCertificate) error {
	return errors.ErrInternal
}

type simulatedBalance struct {
	Authority string `json:"authority"`
	Offline   bool   `json:"offline"`
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
	Sequence  uint64 `json:"sender_next_sequence"`
}

type simulationOutput struct {
	Authorities  int                `json:"authorities"`
	Faulty       int                `json:"faulty"`
	Threshold    int                `json:"threshold"`
	Certificates int                `json:"certificates"`
	Confirmed    int                `json:"confirmed"`
	Balances     []simulatedBalance `json:"balances"`
}

func simulate(ctx context.Context, n, faulty int, amountStr string) error {
	if n <= 0 {
		return fmt.Errorf("--authorities must be positive")
	}
	if faulty < 0 || faulty > n {
		return fmt.Errorf("--faulty must be between 0 and %d", n)
	}
	amount, err := utils.ParseAmount(amountStr)
	if err != nil {
		return err
	}

	keys := make([]*crypto.KeyPair, n)
	roster := make([]string, n)
	for i := range keys {
		if keys[i], err = crypto.GenerateKeyPair(); err != nil {
			return err
		}
		roster[i] = keys[i].PublicHex
	}
	ledgers := make([]*ledger.Ledger, n)
	authorities := make([]client.AuthorityClient, n)
	for i, kp := range keys {
		auth, err := authority.New(kp, roster)
		if err != nil {
			return err
		}
		ledgers[i] = ledger.NewLedger(auth)
		var ac client.AuthorityClient = client.NewLocalAuthorityClient(kp.PublicHex, ledgers[i])
		if i < faulty {
			ac = offlineAuthority{ac}
		}
		authorities[i] = ac
	}
	quorum, err := client.NewQuorumClient(authorities)
	if err != nil {
		return err
	}
	defer quorum.Close()

	senderKey, err := crypto.GenerateKeyPair()
	if err != nil {
		return err
	}
	recipientKey, err := crypto.GenerateKeyPair()
	if err != nil {
		return err
	}
	sender := client.NewPayer(senderKey, quorum)
	if _, err := sender.CreateAccount(ctx); err != nil {
		return err
	}
	if _, err := client.NewPayer(recipientKey, quorum).CreateAccount(ctx); err != nil {
		return err
	}

	receipt, err := sender.Transfer(ctx, recipientKey.PublicHex, amount)
	if err != nil {
		return err
	}
	report := receipt.Confirm.Wait()

	out := simulationOutput{
		Authorities:  n,
		Faulty:       faulty,
		Threshold:    quorum.Threshold(),
		Certificates: len(receipt.Certificates),
		Confirmed:    report.Succeeded(),
	}
	for i, l := range ledgers {
		row := simulatedBalance{Authority: utils.ShortenLog(keys[i].PublicHex), Offline: i < faulty}
		if view, err := l.GetAccount(senderKey.PublicHex); err == nil {
			row.Sender = utils.Uint256ToString(view.Balance)
			row.Sequence = view.NextSequence
		}
		if view, err := l.GetAccount(recipientKey.PublicHex); err == nil {
			row.Recipient = utils.Uint256ToString(view.Balance)
		}
		out.Balances = append(out.Balances, row)
	}
	return printJSON(out)
}
