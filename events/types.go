package events

import (
	"time"

	"github.com/mezonai/fastpay/transaction"
)

// EventType is an enum-like string type for ledger events
type EventType string

const (
	EventOrderLocked       EventType = "OrderLocked"
	EventOrderSuperseded   EventType = "OrderSuperseded"
	EventTransferConfirmed EventType = "TransferConfirmed"
)

// LedgerEvent is anything an authority's ledger reports about an account.
type LedgerEvent interface {
	Type() EventType
	Timestamp() time.Time
	Sender() string
	OrderID() string
}

// OrderLocked is published when an order becomes the sender's pending order.
type OrderLocked struct {
	order     *transaction.TransferOrder
	timestamp time.Time
}

func NewOrderLocked(order *transaction.TransferOrder) *OrderLocked {
	return &OrderLocked{
		order:     order.Clone(),
		timestamp: time.Now(),
	}
}

func (e *OrderLocked) Type() EventType {
	return EventOrderLocked
}

func (e *OrderLocked) Timestamp() time.Time {
	return e.timestamp
}

func (e *OrderLocked) Sender() string {
	return e.order.Sender
}

func (e *OrderLocked) OrderID() string {
	return e.order.ID()
}

func (e *OrderLocked) Order() *transaction.TransferOrder {
	return e.order
}

// OrderSuperseded is published when a newer valid order replaces a pending one. Any
// certificates already issued for the previous order can no longer be confirmed.
type OrderSuperseded struct {
	previous  *transaction.TransferOrder
	next      *transaction.TransferOrder
	timestamp time.Time
}

func NewOrderSuperseded(previous, next *transaction.TransferOrder) *OrderSuperseded {
	return &OrderSuperseded{
		previous:  previous.Clone(),
		next:      next.Clone(),
		timestamp: time.Now(),
	}
}

func (e *OrderSuperseded) Type() EventType {
	return EventOrderSuperseded
}

func (e *OrderSuperseded) Timestamp() time.Time {
	return e.timestamp
}

func (e *OrderSuperseded) Sender() string {
	return e.next.Sender
}

// OrderID identifies the replacement order.
func (e *OrderSuperseded) OrderID() string {
	return e.next.ID()
}

func (e *OrderSuperseded) Previous() *transaction.TransferOrder {
	return e.previous
}

func (e *OrderSuperseded) Next() *transaction.TransferOrder {
	return e.next
}

// TransferConfirmed is published after a certified order has moved funds.
type TransferConfirmed struct {
	order        *transaction.TransferOrder
	certificates []transaction.TransferCertificate
	timestamp    time.Time
}

func NewTransferConfirmed(order *transaction.TransferOrder, certs []transaction.TransferCertificate) *TransferConfirmed {
	return &TransferConfirmed{
		order:        order.Clone(),
		certificates: transaction.CloneCertificates(certs),
		timestamp:    time.Now(),
	}
}

func (e *TransferConfirmed) Type() EventType {
	return EventTransferConfirmed
}

func (e *TransferConfirmed) Timestamp() time.Time {
	return e.timestamp
}

func (e *TransferConfirmed) Sender() string {
	return e.order.Sender
}

func (e *TransferConfirmed) OrderID() string {
	return e.order.ID()
}

func (e *TransferConfirmed) Order() *transaction.TransferOrder {
	return e.order
}

func (e *TransferConfirmed) Certificates() []transaction.TransferCertificate {
	return e.certificates
}
