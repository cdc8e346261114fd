package interfaces

import (
	"github.com/mezonai/fastpay/transaction"
	"github.com/mezonai/fastpay/types"
)

// LedgerService is the per-authority account state machine served over RPC and used
// in-process by the local authority client.
type LedgerService interface {
	// InitAccount creates an account with the initial balance
	InitAccount(publicKey string) (types.AccountView, error)
	// GetAccount returns a snapshot of the account
	GetAccount(publicKey string) (types.AccountView, error)
	// ValidateAndSign locks order as the sender's pending order and returns a certificate
	ValidateAndSign(order *transaction.TransferOrder) (transaction.TransferCertificate, error)
	// Confirm applies the sender's pending order given a quorum of certificates
	Confirm(publicKey string, certs []transaction.TransferCertificate) (types.AccountView, error)
	// AccountCount returns the number of known accounts
	AccountCount() int
}

// AuthorityIdentity describes the authority behind a ledger.
type AuthorityIdentity interface {
	PublicKey() string
	Roster() []string
	QuorumSize() int
}
