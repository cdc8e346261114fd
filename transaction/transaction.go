package transaction

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/mezonai/fastpay/common"
	"github.com/mezonai/fastpay/crypto"
	"github.com/mezonai/fastpay/errors"
)

// TransferOrder moves Amount from Sender to Recipient. NextSequence must equal the sender
// account's sequence when an authority validates it. Sender and Recipient are hex
// encoded ed25519 public keys; Signature is the sender's base58 encoded signature over
// Serialize().
type TransferOrder struct {
	Sender       string       `json:"sender"`
	Recipient    string       `json:"recipient"`
	Amount       *uint256.Int `json:"amount"`
	NextSequence uint64       `json:"next_sequence"`
	Signature    string       `json:"signature,omitempty"`
}

// Amount travels as a decimal string
type transferOrderJSON struct {
	Sender       string `json:"sender"`
	Recipient    string `json:"recipient"`
	Amount       string `json:"amount"`
	NextSequence uint64 `json:"next_sequence"`
	Signature    string `json:"signature,omitempty"`
}

// NewTransferOrder builds an unsigned order and checks its shape.
func NewTransferOrder(sender, recipient string, amount *uint256.Int, nextSequence uint64) (*TransferOrder, error) {
	order := &TransferOrder{
		Sender:       sender,
		Recipient:    recipient,
		Amount:       amount,
		NextSequence: nextSequence,
	}
	if err := order.Validate(); err != nil {
		return nil, err
	}
	return order, nil
}

// Serialize is the canonical message signed by the sender and by every authority.
// Keys are fixed-length hex, so the delimiter cannot occur inside a field.
func (o *TransferOrder) Serialize() []byte {
	metadata := fmt.Sprintf(
		"%s|%s|%s|%d",
		o.Sender, o.Recipient, uint256ToString(o.Amount), o.NextSequence,
	)
	return []byte(metadata)
}

// Validate checks the order shape. It needs no ledger state.
func (o *TransferOrder) Validate() error {
	if o.Sender == "" {
		return errors.New(errors.CodeEmptyPublicKey, "Sender is required")
	}
	if !common.IsValidPublicKey(o.Sender) {
		return errors.New(errors.CodeInvalidPublicKey, "Sender is not a valid public key")
	}
	if o.Recipient == "" {
		return errors.New(errors.CodeEmptyPublicKey, "Recipient is required")
	}
	if !common.IsValidPublicKey(o.Recipient) {
		return errors.New(errors.CodeInvalidPublicKey, "Recipient is not a valid public key")
	}
	if o.Amount == nil || o.Amount.IsZero() {
		return errors.ErrInvalidAmount
	}
	return nil
}

// Sign sets the sender signature. kp must be the sender's key pair.
func (o *TransferOrder) Sign(kp *crypto.KeyPair) error {
	if kp.PublicHex != o.Sender {
		return fmt.Errorf("key %s cannot sign for sender %s", kp.PublicHex, o.Sender)
	}
	o.Signature = common.EncodeSignature(crypto.Sign(kp.Private, o.Serialize()))
	return nil
}

// VerifySignature checks the sender signature over the canonical message.
func (o *TransferOrder) VerifySignature() error {
	if o.Signature == "" {
		return errors.ErrMissingSignature
	}
	sig, err := common.DecodeSignature(o.Signature)
	if err != nil {
		return errors.Newf(errors.CodeInvalidSignature, "Transfer order signature is malformed: %v", err)
	}
	pub, err := common.DecodePublicKey(o.Sender)
	if err != nil {
		return errors.ErrInvalidPublicKey
	}
	if !crypto.Verify(sig, o.Serialize(), pub) {
		return errors.ErrInvalidSignature
	}
	return nil
}

// ID identifies the order content, independent of the signature.
func (o *TransferOrder) ID() string {
	sum256 := sha256.Sum256(o.Serialize())
	return hex.EncodeToString(sum256[:])
}

// Clone returns a deep copy.
func (o *TransferOrder) Clone() *TransferOrder {
	if o == nil {
		return nil
	}
	cp := *o
	if o.Amount != nil {
		cp.Amount = new(uint256.Int).Set(o.Amount)
	}
	return &cp
}

func (o *TransferOrder) MarshalJSON() ([]byte, error) {
	return json.Marshal(&transferOrderJSON{
		Sender:       o.Sender,
		Recipient:    o.Recipient,
		Amount:       uint256ToString(o.Amount),
		NextSequence: o.NextSequence,
		Signature:    o.Signature,
	})
}

func (o *TransferOrder) UnmarshalJSON(data []byte) error {
	var aux transferOrderJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	o.Sender = aux.Sender
	o.Recipient = aux.Recipient
	o.NextSequence = aux.NextSequence
	o.Signature = aux.Signature

	if aux.Amount == "" {
		o.Amount = nil
		return nil
	}
	amount, err := uint256.FromDecimal(aux.Amount)
	if err != nil {
		return fmt.Errorf("invalid amount format: %w", err)
	}
	o.Amount = amount
	return nil
}

// uint256ToString converts a *uint256.Int to string, returning "0" if nil
func uint256ToString(value *uint256.Int) string {
	if value == nil {
		return "0"
	}
	return value.Dec()
}
