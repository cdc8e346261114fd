package ledger

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/mezonai/fastpay/authority"
	"github.com/mezonai/fastpay/common"
	"github.com/mezonai/fastpay/errors"
	"github.com/mezonai/fastpay/events"
	"github.com/mezonai/fastpay/logx"
	"github.com/mezonai/fastpay/monitoring"
	"github.com/mezonai/fastpay/store"
	"github.com/mezonai/fastpay/transaction"
	"github.com/mezonai/fastpay/types"
	"github.com/mezonai/fastpay/utils"
)

// DefaultInitialBalance is credited to every new account.
const DefaultInitialBalance = 10

// Ledger is one authority's view of all accounts. Operations on the same account are
// serialized by that account's lock; operations on different accounts run in parallel.
type Ledger struct {
	authority      *authority.Authority
	accountStore   store.AccountStore
	locks          *accountLocks
	initialBalance *uint256.Int
	eventBus       *events.EventBus
}

type Option func(*Ledger)

func WithInitialBalance(balance *uint256.Int) Option {
	return func(l *Ledger) {
		if balance != nil {
			l.initialBalance = new(uint256.Int).Set(balance)
		}
	}
}

func WithEventBus(bus *events.EventBus) Option {
	return func(l *Ledger) {
		l.eventBus = bus
	}
}

func NewLedger(auth *authority.Authority, opts ...Option) *Ledger {
	l := &Ledger{
		authority:      auth,
		accountStore:   store.NewMemoryAccountStore(),
		locks:          newAccountLocks(),
		initialBalance: uint256.NewInt(DefaultInitialBalance),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Ledger) Authority() *authority.Authority {
	return l.authority
}

func (l *Ledger) InitialBalance() *uint256.Int {
	return new(uint256.Int).Set(l.initialBalance)
}

// InitAccount creates an account holding the initial balance.
func (l *Ledger) InitAccount(publicKey string) (types.AccountView, error) {
	if err := checkPublicKey(publicKey); err != nil {
		return types.AccountView{}, err
	}

	unlock := l.locks.lock(publicKey)
	defer unlock()

	account, err := l.accountStore.Create(publicKey, l.initialBalance)
	if err != nil {
		return types.AccountView{}, err
	}
	monitoring.SetAccountCount(l.accountStore.Len())
	logx.Info("LEDGER", fmt.Sprintf("Account created | account=%s | balance=%s",
		utils.ShortenLog(publicKey), l.initialBalance.Dec()))
	return account.View(), nil
}

// GetAccount returns a snapshot of the account.
func (l *Ledger) GetAccount(publicKey string) (types.AccountView, error) {
	if publicKey == "" {
		return types.AccountView{}, errors.ErrEmptyPublicKey
	}
	account, ok := l.accountStore.GetByAddr(publicKey)
	if !ok {
		return types.AccountView{}, errors.ErrNotFound
	}

	unlock := l.locks.lock(publicKey)
	defer unlock()
	return account.View(), nil
}

// AccountCount is the number of known accounts.
func (l *Ledger) AccountCount() int {
	return l.accountStore.Len()
}

// ValidateAndSign checks order against the sender's current state and, if it is
// acceptable, records it as the sender's pending order and returns this authority's
// certificate. Balances are not touched. A newer acceptable order silently replaces an
// unconfirmed pending one.
func (l *Ledger) ValidateAndSign(order *transaction.TransferOrder) (transaction.TransferCertificate, error) {
	cert, err := l.validateAndSign(order)
	if err != nil {
		monitoring.RecordRejectedTransfer(string(errors.CodeOf(err)))
		logx.Debug("LEDGER", "Transfer rejected: ", err)
	}
	return cert, err
}

func (l *Ledger) validateAndSign(order *transaction.TransferOrder) (transaction.TransferCertificate, error) {
	if order == nil {
		return transaction.TransferCertificate{}, errors.New(errors.CodeInvalidRequest, "Transfer order is missing")
	}
	if err := order.Validate(); err != nil {
		return transaction.TransferCertificate{}, err
	}

	sender, ok := l.accountStore.GetByAddr(order.Sender)
	if !ok {
		return transaction.TransferCertificate{}, errors.ErrUnknownSender
	}
	if err := order.VerifySignature(); err != nil {
		return transaction.TransferCertificate{}, err
	}

	locked := order.Clone()
	var previous *transaction.TransferOrder

	unlock := l.locks.lock(order.Sender)
	if sender.Balance.Lt(locked.Amount) {
		unlock()
		return transaction.TransferCertificate{}, errors.Newf(errors.CodeInsufficientFunds,
			"Balance %s is lower than amount %s", sender.Balance.Dec(), locked.Amount.Dec())
	}
	if locked.NextSequence != sender.NextSequence {
		unlock()
		return transaction.TransferCertificate{}, errors.Newf(errors.CodeSequenceMismatch,
			"Expected sequence %d, got %d", sender.NextSequence, locked.NextSequence)
	}

	// A valid transfer onboards its recipient.
	if _, created := l.accountStore.GetOrCreate(locked.Recipient, l.initialBalance); created {
		monitoring.SetAccountCount(l.accountStore.Len())
	}

	if sender.PendingOrder != nil && sender.PendingOrder.ID() != locked.ID() {
		previous = sender.PendingOrder
	}
	if previous != nil || sender.PendingOrder == nil {
		sender.PendingOrder = locked
	}
	unlock()

	cert := l.authority.Sign(locked)
	monitoring.IncreaseLockedOrders()

	if previous != nil {
		monitoring.IncreaseSupersededOrders()
		logx.Warn("LEDGER", fmt.Sprintf("Pending order superseded | sender=%s | sequence=%d | previous=%s | next=%s",
			utils.ShortenLog(locked.Sender), locked.NextSequence, utils.ShortenLog(previous.ID()), utils.ShortenLog(locked.ID())))
		l.eventBus.Publish(events.NewOrderSuperseded(previous, locked))
	}
	logx.Debug("LEDGER", fmt.Sprintf("Order locked | sender=%s | recipient=%s | amount=%s | sequence=%d",
		utils.ShortenLog(locked.Sender), utils.ShortenLog(locked.Recipient), locked.Amount.Dec(), locked.NextSequence))
	l.eventBus.Publish(events.NewOrderLocked(locked))

	return cert, nil
}

// Confirm applies the sender's pending order once certs prove a quorum of authorities
// signed exactly that order. It returns the updated sender.
func (l *Ledger) Confirm(publicKey string, certs []transaction.TransferCertificate) (types.AccountView, error) {
	view, err := l.confirm(publicKey, certs)
	if err != nil {
		monitoring.RecordRejectedConfirm(string(errors.CodeOf(err)))
		logx.Debug("LEDGER", "Confirm rejected: ", err)
	}
	return view, err
}

func (l *Ledger) confirm(publicKey string, certs []transaction.TransferCertificate) (types.AccountView, error) {
	if publicKey == "" {
		return types.AccountView{}, errors.ErrEmptyPublicKey
	}
	sender, ok := l.accountStore.GetByAddr(publicKey)
	if !ok {
		return types.AccountView{}, errors.ErrNotFound
	}

	for {
		unlock := l.locks.lock(publicKey)
		pending := sender.PendingOrder
		unlock()
		if pending == nil {
			return types.AccountView{}, errors.ErrNoPendingOrder
		}

		// pending orders are never mutated in place, so verifying outside the lock is safe
		if err := l.authority.VerifyQuorum(pending, certs); err != nil {
			return types.AccountView{}, err
		}

		view, applied, err := l.apply(sender, pending, certs)
		if err != nil || applied {
			return view, err
		}
		// the pending order changed while certificates were checked
	}
}

// apply moves the funds for pending if it is still the sender's pending order.
func (l *Ledger) apply(sender *types.Account, pending *transaction.TransferOrder, certs []transaction.TransferCertificate) (types.AccountView, bool, error) {
	unlock := l.locks.lock(sender.PublicKey, pending.Recipient)
	defer unlock()

	if sender.PendingOrder != pending {
		if sender.PendingOrder == nil {
			return types.AccountView{}, false, errors.ErrNoPendingOrder
		}
		return types.AccountView{}, false, nil
	}

	debited, underflow := new(uint256.Int).SubOverflow(sender.Balance, pending.Amount)
	if underflow {
		return types.AccountView{}, false, errors.Newf(errors.CodeInsufficientFunds,
			"Balance %s is lower than amount %s", sender.Balance.Dec(), pending.Amount.Dec())
	}

	selfTransfer := pending.Recipient == sender.PublicKey
	var recipient *types.Account
	var credited *uint256.Int
	if !selfTransfer {
		base := l.initialBalance
		existing, ok := l.accountStore.GetByAddr(pending.Recipient)
		if ok {
			base = existing.Balance
		}
		var overflow bool
		credited, overflow = new(uint256.Int).AddOverflow(base, pending.Amount)
		if overflow {
			return types.AccountView{}, false, errors.Newf(errors.CodeBalanceOverflow,
				"Crediting %s to %s overflows", pending.Amount.Dec(), utils.ShortenLog(pending.Recipient))
		}
		recipient = existing
		if !ok {
			var created bool
			recipient, created = l.accountStore.GetOrCreate(pending.Recipient, l.initialBalance)
			if created {
				monitoring.SetAccountCount(l.accountStore.Len())
			}
		}
	}

	if !selfTransfer {
		sender.Balance = debited
		recipient.Balance = credited
	}
	sender.NextSequence++
	sender.PendingOrder = nil
	sender.ConfirmedCertificates = append(sender.ConfirmedCertificates, transaction.CloneCertificates(certs))

	monitoring.IncreaseConfirmedTransfers()
	logx.Info("LEDGER", fmt.Sprintf("Transfer confirmed | sender=%s | recipient=%s | amount=%s | sequence=%d",
		utils.ShortenLog(sender.PublicKey), utils.ShortenLog(pending.Recipient), pending.Amount.Dec(), pending.NextSequence))
	l.eventBus.Publish(events.NewTransferConfirmed(pending, certs))

	return sender.View(), true, nil
}

func checkPublicKey(publicKey string) error {
	if publicKey == "" {
		return errors.ErrEmptyPublicKey
	}
	if !common.IsValidPublicKey(publicKey) {
		return errors.ErrInvalidPublicKey
	}
	return nil
}
