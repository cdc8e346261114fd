package client

import (
	"context"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/mezonai/fastpay/crypto"
	"github.com/mezonai/fastpay/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayerScenario(t *testing.T) {
	c := newCommittee(t, 4)
	q := c.quorum(t)
	ctx := context.Background()

	kp, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	recipient, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	payer := NewPayer(kp, q)

	acc, err := payer.CreateAccount(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), acc.Balance.Uint64())

	receipt, err := payer.Transfer(ctx, recipient.PublicHex, uint256.NewInt(4))
	require.NoError(t, err)
	assert.Len(t, receipt.Certificates, 3)
	assert.Equal(t, uint64(0), receipt.Order.NextSequence)
	assert.Equal(t, 4, receipt.Confirm.Wait().Succeeded())

	for _, l := range c.ledgers {
		sender, err := l.GetAccount(kp.PublicHex)
		require.NoError(t, err)
		assert.Equal(t, uint64(6), sender.Balance.Uint64())
		assert.Equal(t, uint64(1), sender.NextSequence)

		rcpt, err := l.GetAccount(recipient.PublicHex)
		require.NoError(t, err)
		assert.Equal(t, uint64(14), rcpt.Balance.Uint64())
	}

	acc, err = payer.Account(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), acc.NextSequence)
	assert.Equal(t, 1, acc.ConfirmedTransfers)

	// the next transfer picks up the new sequence
	receipt, err = payer.Transfer(ctx, recipient.PublicHex, uint256.NewInt(6))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), receipt.Order.NextSequence)
	assert.Equal(t, 4, receipt.Confirm.Wait().Succeeded())

	acc, err = payer.Account(ctx)
	require.NoError(t, err)
	assert.True(t, acc.Balance.IsZero())

	_, err = payer.Transfer(ctx, recipient.PublicHex, uint256.NewInt(1))
	assert.True(t, errors.Is(err, errors.ErrQuorumNotReached))
}

func TestPayerTransferConfirmsOnEveryAuthority(t *testing.T) {
	c := newCommittee(t, 4)
	q := c.quorum(t)
	ctx := context.Background()

	for run := 0; run < 20; run++ {
		kp, err := crypto.GenerateKeyPair()
		require.NoError(t, err)
		recipient, err := crypto.GenerateKeyPair()
		require.NoError(t, err)
		payer := NewPayer(kp, q)
		_, err = payer.CreateAccount(ctx)
		require.NoError(t, err)

		receipt, err := payer.Transfer(ctx, recipient.PublicHex, uint256.NewInt(4))
		require.NoError(t, err)
		report := receipt.Confirm.Wait()
		require.Equal(t, 4, report.Succeeded(), "run %d: %v", run, report.Failed())

		for _, l := range c.ledgers {
			rcpt, err := l.GetAccount(recipient.PublicHex)
			require.NoError(t, err)
			assert.Equal(t, uint64(14), rcpt.Balance.Uint64())
		}
	}
}

func TestPayerConfirmWaitsForSlowAuthority(t *testing.T) {
	c := newCommittee(t, 4)
	c.clients[2].slowSubmit = 150 * time.Millisecond
	q := c.quorum(t)
	kp, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	payer := NewPayer(kp, q)
	_, err = payer.CreateAccount(context.Background())
	require.NoError(t, err)

	receipt, err := payer.Transfer(context.Background(), kp.PublicHex, uint256.NewInt(3))
	require.NoError(t, err)
	assert.Len(t, receipt.Certificates, 3)
	assert.Equal(t, 4, receipt.Confirm.Wait().Succeeded())

	slow, err := c.ledgers[2].GetAccount(kp.PublicHex)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), slow.NextSequence)
}

func TestPayerCreateAccountIsIdempotent(t *testing.T) {
	c := newCommittee(t, 4)
	q := c.quorum(t)
	kp, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	payer := NewPayer(kp, q)

	_, err = payer.CreateAccount(context.Background())
	require.NoError(t, err)

	acc, err := payer.CreateAccount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, kp.PublicHex, acc.PublicKey)
	assert.Equal(t, uint64(10), acc.Balance.Uint64())
}

func TestPayerAccountUsesFreshestAuthority(t *testing.T) {
	c := newCommittee(t, 4)
	c.clients[0].failConfirm = true
	q := c.quorum(t)
	kp, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	payer := NewPayer(kp, q)

	_, err = payer.CreateAccount(context.Background())
	require.NoError(t, err)
	receipt, err := payer.Transfer(context.Background(), kp.PublicHex, uint256.NewInt(1))
	require.NoError(t, err)
	assert.Equal(t, 3, receipt.Confirm.Wait().Succeeded())

	lagging, err := c.ledgers[0].GetAccount(kp.PublicHex)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), lagging.NextSequence)

	acc, err := payer.Account(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), acc.NextSequence)
}

func TestPayerCreateAccountNeedsQuorum(t *testing.T) {
	c := newCommittee(t, 4)
	c.clients[0].AuthorityClient = brokenAuthority{c.clients[0].AuthorityClient}
	c.clients[1].AuthorityClient = brokenAuthority{c.clients[1].AuthorityClient}
	q := c.quorum(t)
	kp, err := crypto.GenerateKeyPair()
	require.NoError(t, err)

	_, err = NewPayer(kp, q).CreateAccount(context.Background())
	assert.True(t, errors.Is(err, errors.ErrQuorumNotReached))
}

type brokenAuthority struct {
	AuthorityClient
}

func (brokenAuthority) CreateAccount(context.Context, string) (Account, error) {
	return Account{}, errors.New(errors.CodeInternal, "connection refused")
}
