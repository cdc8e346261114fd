package client

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/mezonai/fastpay/jsonrpc"
	"github.com/mezonai/fastpay/transaction"
	"github.com/mezonai/fastpay/types"
)

// Account is an authority's answer to an account read.
type Account struct {
	PublicKey          string
	Balance            *uint256.Int
	NextSequence       uint64
	Pending            *transaction.TransferOrder
	ConfirmedTransfers int
}

func accountFromView(view types.AccountView) Account {
	return Account{
		PublicKey:          view.PublicKey,
		Balance:            view.Balance,
		NextSequence:       view.NextSequence,
		Pending:            view.PendingOrder,
		ConfirmedTransfers: len(view.ConfirmedCertificates),
	}
}

func accountFromResult(res *jsonrpc.AccountResult) (Account, error) {
	balance, err := uint256.FromDecimal(res.Balance)
	if err != nil {
		return Account{}, fmt.Errorf("invalid balance %q from authority: %w", res.Balance, err)
	}
	return Account{
		PublicKey:          res.PublicKey,
		Balance:            balance,
		NextSequence:       res.NextSequence,
		Pending:            res.Pending,
		ConfirmedTransfers: res.Confirmed,
	}, nil
}

// ConfirmResult is one authority's answer to a confirmation.
type ConfirmResult struct {
	Authority string
	Err       error
}

// ConfirmReport collects the per-authority outcome of a confirmation broadcast.
type ConfirmReport struct {
	Results []ConfirmResult
}

func (r ConfirmReport) Succeeded() int {
	n := 0
	for _, res := range r.Results {
		if res.Err == nil {
			n++
		}
	}
	return n
}

func (r ConfirmReport) Failed() []ConfirmResult {
	var failed []ConfirmResult
	for _, res := range r.Results {
		if res.Err != nil {
			failed = append(failed, res)
		}
	}
	return failed
}

// TransferReceipt is returned once a transfer is certified. Confirmation continues in
// the background; Confirm.Wait blocks until every authority has answered.
type TransferReceipt struct {
	Order        *transaction.TransferOrder
	Certificates []transaction.TransferCertificate
	Confirm      *ConfirmBroadcast
}
