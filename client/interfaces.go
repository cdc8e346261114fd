package client

import (
	"context"

	"github.com/mezonai/fastpay/transaction"
)

// AuthorityClient talks to one authority. PublicKey is the key the client was configured
// with, not one reported by the authority, so certificates can be checked against it.
type AuthorityClient interface {
	PublicKey() string
	Endpoint() string
	CreateAccount(ctx context.Context, publicKey string) (Account, error)
	GetAccount(ctx context.Context, publicKey string) (Account, error)
	SubmitTransfer(ctx context.Context, order *transaction.TransferOrder) (transaction.TransferCertificate, error)
	ConfirmTransfer(ctx context.Context, sender string, certs []transaction.TransferCertificate) error
	Close() error
}
