package transaction

import (
	"encoding/json"
	"testing"

	"github.com/holiman/uint256"
	"github.com/mezonai/fastpay/crypto"
	"github.com/mezonai/fastpay/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newKey(t *testing.T) *crypto.KeyPair {
	t.Helper()
	kp, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	return kp
}

func TestSerializeDistinguishesEveryField(t *testing.T) {
	a, b := newKey(t), newKey(t)
	base := &TransferOrder{Sender: a.PublicHex, Recipient: b.PublicHex, Amount: uint256.NewInt(4), NextSequence: 0}

	variants := []*TransferOrder{
		{Sender: b.PublicHex, Recipient: b.PublicHex, Amount: uint256.NewInt(4), NextSequence: 0},
		{Sender: a.PublicHex, Recipient: a.PublicHex, Amount: uint256.NewInt(4), NextSequence: 0},
		{Sender: a.PublicHex, Recipient: b.PublicHex, Amount: uint256.NewInt(40), NextSequence: 0},
		{Sender: a.PublicHex, Recipient: b.PublicHex, Amount: uint256.NewInt(4), NextSequence: 1},
	}
	for i, v := range variants {
		assert.NotEqual(t, string(base.Serialize()), string(v.Serialize()), "variant %d", i)
	}

	assert.Equal(t, a.PublicHex+"|"+b.PublicHex+"|4|0", string(base.Serialize()))
}

func TestValidate(t *testing.T) {
	a, b := newKey(t), newKey(t)

	cases := []struct {
		name  string
		order TransferOrder
		want  error
	}{
		{"empty sender", TransferOrder{Recipient: b.PublicHex, Amount: uint256.NewInt(1)}, errors.ErrEmptyPublicKey},
		{"bad sender", TransferOrder{Sender: "a|b", Recipient: b.PublicHex, Amount: uint256.NewInt(1)}, errors.ErrInvalidPublicKey},
		{"empty recipient", TransferOrder{Sender: a.PublicHex, Amount: uint256.NewInt(1)}, errors.ErrEmptyPublicKey},
		{"zero amount", TransferOrder{Sender: a.PublicHex, Recipient: b.PublicHex, Amount: uint256.NewInt(0)}, errors.ErrInvalidAmount},
		{"nil amount", TransferOrder{Sender: a.PublicHex, Recipient: b.PublicHex}, errors.ErrInvalidAmount},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.order.Validate()
			assert.ErrorIs(t, err, tc.want)
			assert.Equal(t, errors.KindValidation, errors.KindOf(err))
		})
	}

	_, err := NewTransferOrder(a.PublicHex, b.PublicHex, uint256.NewInt(3), 7)
	assert.NoError(t, err)
}

func TestSignAndVerify(t *testing.T) {
	a, b := newKey(t), newKey(t)
	order, err := NewTransferOrder(a.PublicHex, b.PublicHex, uint256.NewInt(4), 0)
	require.NoError(t, err)

	assert.ErrorIs(t, order.VerifySignature(), errors.ErrMissingSignature)
	assert.Error(t, order.Sign(b), "only the sender may sign")

	require.NoError(t, order.Sign(a))
	assert.NoError(t, order.VerifySignature())

	tampered := order.Clone()
	tampered.Amount = uint256.NewInt(5)
	assert.ErrorIs(t, tampered.VerifySignature(), errors.ErrInvalidSignature)

	garbage := order.Clone()
	garbage.Signature = "0OIl"
	assert.ErrorIs(t, garbage.VerifySignature(), errors.ErrInvalidSignature)
}

func TestJSONAmountIsDecimal(t *testing.T) {
	a, b := newKey(t), newKey(t)
	order, err := NewTransferOrder(a.PublicHex, b.PublicHex, uint256.NewInt(1234), 2)
	require.NoError(t, err)
	require.NoError(t, order.Sign(a))

	raw, err := json.Marshal(order)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"amount":"1234"`)

	var decoded TransferOrder
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, order.Serialize(), decoded.Serialize())
	assert.NoError(t, decoded.VerifySignature())

	assert.Error(t, json.Unmarshal([]byte(`{"amount":"-4"}`), &decoded))
}

func TestCloneDoesNotAlias(t *testing.T) {
	a, b := newKey(t), newKey(t)
	order, err := NewTransferOrder(a.PublicHex, b.PublicHex, uint256.NewInt(4), 0)
	require.NoError(t, err)

	cp := order.Clone()
	cp.Amount.SetUint64(9)
	assert.Equal(t, uint64(4), order.Amount.Uint64())
	assert.Nil(t, (*TransferOrder)(nil).Clone())
}
