package jsonrpc

import (
	"github.com/mezonai/fastpay/transaction"
	"github.com/mezonai/fastpay/types"
	"github.com/mezonai/fastpay/utils"
)

// --- Params / results ---

type AccountParams struct {
	PublicKey string `json:"public_key"`
}

type AccountResult struct {
	PublicKey    string                     `json:"public_key"`
	Balance      string                     `json:"balance"`
	NextSequence uint64                     `json:"next_sequence"`
	Pending      *transaction.TransferOrder `json:"pending,omitempty"`
	Confirmed    int                        `json:"confirmed_transfers"`
}

// TransferParams carries the amount as a decimal string so that a malformed or
// non-positive amount is reported as a ledger validation error.
type TransferParams struct {
	Sender       string `json:"sender"`
	Recipient    string `json:"recipient"`
	Amount       string `json:"amount"`
	NextSequence uint64 `json:"next_sequence"`
	Signature    string `json:"signature"`
}

type ConfirmParams struct {
	PublicKey            string                            `json:"public_key"`
	TransferCertificates []transaction.TransferCertificate `json:"transfer_certificates"`
}

type ConfirmResult struct{}

type AuthorityInfoResult struct {
	PublicKey string   `json:"public_key"`
	Roster    []string `json:"roster"`
	Threshold int      `json:"threshold"`
}

type healthResponse struct {
	Status    string `json:"status"`
	PublicKey string `json:"public_key"`
	Accounts  int    `json:"accounts"`
}

func NewAccountResult(view types.AccountView) *AccountResult {
	return &AccountResult{
		PublicKey:    view.PublicKey,
		Balance:      utils.Uint256ToString(view.Balance),
		NextSequence: view.NextSequence,
		Pending:      view.PendingOrder,
		Confirmed:    len(view.ConfirmedCertificates),
	}
}

func NewTransferParams(order *transaction.TransferOrder) TransferParams {
	return TransferParams{
		Sender:       order.Sender,
		Recipient:    order.Recipient,
		Amount:       utils.Uint256ToString(order.Amount),
		NextSequence: order.NextSequence,
		Signature:    order.Signature,
	}
}
