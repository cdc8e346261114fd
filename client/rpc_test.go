package client

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/mezonai/fastpay/authority"
	"github.com/mezonai/fastpay/crypto"
	"github.com/mezonai/fastpay/errors"
	"github.com/mezonai/fastpay/jsonrpc"
	"github.com/mezonai/fastpay/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newRPCCommittee serves n authorities over HTTP and returns RPC clients for them.
func newRPCCommittee(t *testing.T, n int) ([]*ledger.Ledger, []AuthorityClient) {
	t.Helper()
	keys := make([]*crypto.KeyPair, n)
	roster := make([]string, n)
	for i := range keys {
		kp, err := crypto.GenerateKeyPair()
		require.NoError(t, err)
		keys[i] = kp
		roster[i] = kp.PublicHex
	}

	ledgers := make([]*ledger.Ledger, n)
	clients := make([]AuthorityClient, n)
	for i, kp := range keys {
		auth, err := authority.New(kp, roster)
		require.NoError(t, err)
		ledgers[i] = ledger.NewLedger(auth)

		srv := jsonrpc.NewServer("127.0.0.1:0", ledgers[i], auth)
		ts := httptest.NewServer(srv.Handler())
		rc := NewRPCAuthorityClient(kp.PublicHex, ts.URL, 2*time.Second)
		t.Cleanup(func() {
			_ = rc.Close()
			ts.Close()
			_ = srv.Shutdown(context.Background())
		})
		clients[i] = rc
	}
	return ledgers, clients
}

func TestRPCTransferEndToEnd(t *testing.T) {
	ledgers, clients := newRPCCommittee(t, 4)
	q, err := NewQuorumClient(clients)
	require.NoError(t, err)
	ctx := context.Background()

	kp, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	recipient, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	payer := NewPayer(kp, q)

	_, err = payer.CreateAccount(ctx)
	require.NoError(t, err)

	receipt, err := payer.Transfer(ctx, recipient.PublicHex, uint256.NewInt(4))
	require.NoError(t, err)
	require.Len(t, receipt.Certificates, 3)

	// the cancelled fourth submit may never reach its server; that authority then
	// refuses the confirmation and keeps the old state
	report := receipt.Confirm.Wait()
	assert.GreaterOrEqual(t, report.Succeeded(), 3)
	for _, res := range report.Failed() {
		assert.True(t, errors.Is(res.Err, errors.ErrNoPendingOrder), "authority %s: %v", res.Authority, res.Err)
	}

	for i, ac := range clients {
		sender, err := ac.GetAccount(ctx, kp.PublicHex)
		require.NoError(t, err)
		if report.Results[i].Err != nil {
			assert.Equal(t, uint64(10), sender.Balance.Uint64())
			assert.Equal(t, uint64(0), sender.NextSequence)
			continue
		}
		assert.Equal(t, uint64(6), sender.Balance.Uint64())
		assert.Equal(t, uint64(1), sender.NextSequence)
		assert.Nil(t, sender.Pending)

		rcpt, err := ac.GetAccount(ctx, recipient.PublicHex)
		require.NoError(t, err)
		assert.Equal(t, uint64(14), rcpt.Balance.Uint64())

		view, err := ledgers[i].GetAccount(kp.PublicHex)
		require.NoError(t, err)
		assert.Len(t, view.ConfirmedCertificates, 1)
	}
}

func TestRPCErrorsKeepTheirCode(t *testing.T) {
	_, clients := newRPCCommittee(t, 1)
	rc := clients[0]
	ctx := context.Background()

	stranger, err := crypto.GenerateKeyPair()
	require.NoError(t, err)

	_, err = rc.GetAccount(ctx, stranger.PublicHex)
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	err = rc.ConfirmTransfer(ctx, stranger.PublicHex, nil)
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	_, err = rc.CreateAccount(ctx, stranger.PublicHex)
	require.NoError(t, err)
	_, err = rc.CreateAccount(ctx, stranger.PublicHex)
	assert.True(t, errors.Is(err, errors.ErrAlreadyExists))

	info, err := rc.(*RPCAuthorityClient).Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, rc.PublicKey(), info.PublicKey)
	assert.Equal(t, 1, info.Threshold)
}

func TestRPCUnreachableAuthority(t *testing.T) {
	kp, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	rc := NewRPCAuthorityClient(kp.PublicHex, "http://127.0.0.1:1", 500*time.Millisecond)
	defer rc.Close()

	assert.Equal(t, "http://127.0.0.1:1/rpc", rc.Endpoint())
	_, err = rc.GetAccount(context.Background(), kp.PublicHex)
	require.Error(t, err)
	assert.Equal(t, errors.KindInternal, errors.KindOf(err))
}
