package authority

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/mezonai/fastpay/common"
	"github.com/mezonai/fastpay/crypto"
	"github.com/mezonai/fastpay/errors"
	"github.com/mezonai/fastpay/transaction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCommittee(t *testing.T, n int) []*Authority {
	t.Helper()
	keys := make([]*crypto.KeyPair, n)
	roster := make([]string, n)
	for i := range keys {
		kp, err := crypto.GenerateKeyPair()
		require.NoError(t, err)
		keys[i] = kp
		roster[i] = kp.PublicHex
	}
	auths := make([]*Authority, n)
	for i, kp := range keys {
		a, err := New(kp, roster)
		require.NoError(t, err)
		auths[i] = a
	}
	return auths
}

func newOrder(t *testing.T) *transaction.TransferOrder {
	t.Helper()
	sender, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	recipient, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	order, err := transaction.NewTransferOrder(sender.PublicHex, recipient.PublicHex, uint256.NewInt(4), 0)
	require.NoError(t, err)
	require.NoError(t, order.Sign(sender))
	return order
}

func signAll(auths []*Authority, order *transaction.TransferOrder) []transaction.TransferCertificate {
	certs := make([]transaction.TransferCertificate, len(auths))
	for i, a := range auths {
		certs[i] = a.Sign(order)
	}
	return certs
}

func TestThreshold(t *testing.T) {
	cases := map[int]int{1: 1, 2: 1, 3: 2, 4: 3, 5: 3, 7: 5, 10: 7, 13: 9, 100: 67}
	for n, want := range cases {
		assert.Equal(t, want, Threshold(n), "n=%d", n)
	}
	for f := 0; f < 10; f++ {
		assert.Equal(t, 2*f+1, Threshold(3*f+1))
	}
}

func TestNewValidatesRoster(t *testing.T) {
	kp, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	other, err := crypto.GenerateKeyPair()
	require.NoError(t, err)

	_, err = New(kp, nil)
	assert.Error(t, err)

	_, err = New(kp, []string{other.PublicHex})
	assert.ErrorContains(t, err, "not in the roster")

	_, err = New(kp, []string{kp.PublicHex, kp.PublicHex})
	assert.ErrorContains(t, err, "duplicate")

	_, err = New(kp, []string{kp.PublicHex, "zz"})
	assert.ErrorContains(t, err, "invalid public key")

	a, err := New(kp, []string{other.PublicHex, kp.PublicHex})
	require.NoError(t, err)
	assert.Equal(t, kp.PublicHex, a.PublicKey())
	assert.Equal(t, []string{other.PublicHex, kp.PublicHex}, a.Roster())
	assert.Equal(t, 1, a.QuorumSize())
	assert.True(t, a.IsMember(other.PublicHex))
}

func TestSignProducesVerifiableCertificate(t *testing.T) {
	auths := newCommittee(t, 4)
	order := newOrder(t)

	cert := auths[1].Sign(order)
	assert.Equal(t, auths[1].PublicKey(), cert.AuthorityPublicKey)

	sig, err := common.DecodeSignature(cert.Signature)
	require.NoError(t, err)
	pub, err := common.DecodePublicKey(cert.AuthorityPublicKey)
	require.NoError(t, err)
	assert.True(t, crypto.Verify(sig, order.Serialize(), pub))
}

func TestVerifyQuorum(t *testing.T) {
	auths := newCommittee(t, 4)
	verifier := auths[0]
	order := newOrder(t)
	certs := signAll(auths, order)

	t.Run("all four", func(t *testing.T) {
		assert.NoError(t, verifier.VerifyQuorum(order, certs))
	})

	t.Run("exactly threshold", func(t *testing.T) {
		assert.NoError(t, verifier.VerifyQuorum(order, certs[1:]))
	})

	t.Run("below threshold", func(t *testing.T) {
		err := verifier.VerifyQuorum(order, certs[:2])
		assert.True(t, errors.Is(err, errors.ErrInsufficientCertificates))
	})

	t.Run("duplicates count once", func(t *testing.T) {
		dup := []transaction.TransferCertificate{certs[0], certs[0], certs[1]}
		err := verifier.VerifyQuorum(order, dup)
		assert.True(t, errors.Is(err, errors.ErrInsufficientCertificates))

		padded := append([]transaction.TransferCertificate{certs[2]}, certs...)
		assert.NoError(t, verifier.VerifyQuorum(order, padded))
	})

	t.Run("unknown authority", func(t *testing.T) {
		outsider := newCommittee(t, 1)[0]
		mixed := []transaction.TransferCertificate{certs[0], certs[1], outsider.Sign(order)}
		err := verifier.VerifyQuorum(order, mixed)
		assert.True(t, errors.Is(err, errors.ErrUnknownAuthority))
	})

	t.Run("signature over another order", func(t *testing.T) {
		other := order.Clone()
		other.Amount = uint256.NewInt(5)
		mixed := []transaction.TransferCertificate{certs[0], certs[1], auths[2].Sign(other)}
		err := verifier.VerifyQuorum(order, mixed)
		assert.True(t, errors.Is(err, errors.ErrBadSignature))
	})

	t.Run("signature attributed to wrong authority", func(t *testing.T) {
		forged := transaction.TransferCertificate{AuthorityPublicKey: auths[3].PublicKey(), Signature: certs[2].Signature}
		err := verifier.VerifyQuorum(order, []transaction.TransferCertificate{certs[0], certs[1], forged})
		assert.True(t, errors.Is(err, errors.ErrBadSignature))
	})

	t.Run("malformed signature", func(t *testing.T) {
		broken := transaction.TransferCertificate{AuthorityPublicKey: auths[2].PublicKey(), Signature: "0OIl"}
		err := verifier.VerifyQuorum(order, []transaction.TransferCertificate{certs[0], certs[1], broken})
		assert.True(t, errors.Is(err, errors.ErrBadSignature))
	})

	t.Run("first offending certificate wins", func(t *testing.T) {
		outsider := newCommittee(t, 1)[0]
		other := order.Clone()
		other.NextSequence = 1
		mixed := []transaction.TransferCertificate{auths[0].Sign(other), outsider.Sign(order), certs[2]}
		err := verifier.VerifyQuorum(order, mixed)
		assert.True(t, errors.Is(err, errors.ErrBadSignature))
	})
}
