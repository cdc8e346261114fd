package types

import (
	"github.com/holiman/uint256"
	"github.com/mezonai/fastpay/transaction"
)

// Account is the ledger record for one public key. It is only read or written while
// the owning ledger holds the account's lock.
type Account struct {
	PublicKey             string
	Balance               *uint256.Int
	NextSequence          uint64
	PendingOrder          *transaction.TransferOrder
	ConfirmedCertificates [][]transaction.TransferCertificate
}

// NewAccount creates a record with the given opening balance and sequence 0.
func NewAccount(publicKey string, balance *uint256.Int) *Account {
	return &Account{
		PublicKey: publicKey,
		Balance:   new(uint256.Int).Set(balance),
	}
}

// View returns a deep copy safe to hand out after the lock is released.
func (a *Account) View() AccountView {
	confirmed := make([][]transaction.TransferCertificate, len(a.ConfirmedCertificates))
	for i, certs := range a.ConfirmedCertificates {
		confirmed[i] = transaction.CloneCertificates(certs)
	}
	return AccountView{
		PublicKey:             a.PublicKey,
		Balance:               new(uint256.Int).Set(a.Balance),
		NextSequence:          a.NextSequence,
		PendingOrder:          a.PendingOrder.Clone(),
		ConfirmedCertificates: confirmed,
	}
}

// AccountView is a read-only snapshot of an Account.
type AccountView struct {
	PublicKey             string                              `json:"public_key"`
	Balance               *uint256.Int                        `json:"balance"`
	NextSequence          uint64                              `json:"next_sequence"`
	PendingOrder          *transaction.TransferOrder          `json:"pending_order,omitempty"`
	ConfirmedCertificates [][]transaction.TransferCertificate `json:"confirmed_certificates"`
}
