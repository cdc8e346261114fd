package client

import (
	"context"

	"github.com/mezonai/fastpay/interfaces"
	"github.com/mezonai/fastpay/transaction"
)

// LocalAuthorityClient calls a ledger in the same process. Like a request already on the
// wire, a dispatched write runs to completion on the ledger even if ctx is cancelled
// meanwhile; only the caller stops waiting for it.
type LocalAuthorityClient struct {
	publicKey string
	ledger    interfaces.LedgerService
}

func NewLocalAuthorityClient(publicKey string, ledger interfaces.LedgerService) *LocalAuthorityClient {
	return &LocalAuthorityClient{publicKey: publicKey, ledger: ledger}
}

func (c *LocalAuthorityClient) PublicKey() string {
	return c.publicKey
}

func (c *LocalAuthorityClient) Endpoint() string {
	return "local:" + c.publicKey
}

func (c *LocalAuthorityClient) CreateAccount(_ context.Context, publicKey string) (Account, error) {
	view, err := c.ledger.InitAccount(publicKey)
	if err != nil {
		return Account{}, err
	}
	return accountFromView(view), nil
}

func (c *LocalAuthorityClient) GetAccount(ctx context.Context, publicKey string) (Account, error) {
	if err := ctx.Err(); err != nil {
		return Account{}, err
	}
	view, err := c.ledger.GetAccount(publicKey)
	if err != nil {
		return Account{}, err
	}
	return accountFromView(view), nil
}

func (c *LocalAuthorityClient) SubmitTransfer(_ context.Context, order *transaction.TransferOrder) (transaction.TransferCertificate, error) {
	return c.ledger.ValidateAndSign(order.Clone())
}

func (c *LocalAuthorityClient) ConfirmTransfer(_ context.Context, sender string, certs []transaction.TransferCertificate) error {
	_, err := c.ledger.Confirm(sender, transaction.CloneCertificates(certs))
	return err
}

func (c *LocalAuthorityClient) Close() error {
	return nil
}
