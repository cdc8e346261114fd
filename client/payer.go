package client

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/holiman/uint256"
	"github.com/mezonai/fastpay/crypto"
	"github.com/mezonai/fastpay/errors"
	"github.com/mezonai/fastpay/logx"
	"github.com/mezonai/fastpay/transaction"
	"github.com/mezonai/fastpay/utils"
)

// Payer drives transfers for a single account key.
type Payer struct {
	keyPair *crypto.KeyPair
	quorum  *QuorumClient
}

func NewPayer(kp *crypto.KeyPair, quorum *QuorumClient) *Payer {
	return &Payer{keyPair: kp, quorum: quorum}
}

func (p *Payer) PublicKey() string {
	return p.keyPair.PublicHex
}

// CreateAccount opens the account on every authority. An authority that already knows
// the account counts as a success; at least a quorum must succeed.
func (p *Payer) CreateAccount(ctx context.Context) (Account, error) {
	var (
		mu       sync.Mutex
		ok       int
		created  Account
		failures []string
	)
	fanOut(ctx, p.quorum.authorities, func(ctx context.Context, _ int, ac AuthorityClient) {
		acc, err := ac.CreateAccount(ctx, p.PublicKey())
		mu.Lock()
		defer mu.Unlock()
		switch {
		case err == nil:
			ok++
			created = acc
		case errors.Is(err, errors.ErrAlreadyExists):
			ok++
		default:
			failures = append(failures, fmt.Sprintf("%s: %v", utils.ShortenLog(ac.PublicKey()), err))
		}
	})

	if ok < p.quorum.threshold {
		return Account{}, errors.Newf(errors.CodeQuorumNotReached,
			"Account opened on %d of %d required authorities: %s", ok, p.quorum.threshold, strings.Join(failures, "; "))
	}
	logx.Info("PAYER", fmt.Sprintf("Account %s opened on %d authorities", utils.ShortenLog(p.PublicKey()), ok))
	if created.PublicKey == "" {
		return p.Account(ctx)
	}
	return created, nil
}

// Account reads the payer's account from every authority; see FreshestAccount.
func (p *Payer) Account(ctx context.Context) (Account, error) {
	return FreshestAccount(ctx, p.quorum, p.PublicKey())
}

// FreshestAccount reads publicKey from every authority and returns the freshest answer,
// the one with the highest NextSequence.
func FreshestAccount(ctx context.Context, quorum *QuorumClient, publicKey string) (Account, error) {
	var (
		mu      sync.Mutex
		best    *Account
		lastErr error
	)
	fanOut(ctx, quorum.authorities, func(ctx context.Context, _ int, ac AuthorityClient) {
		acc, err := ac.GetAccount(ctx, publicKey)
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			lastErr = err
			return
		}
		if best == nil || acc.NextSequence > best.NextSequence {
			best = &acc
		}
	})

	if best == nil {
		if lastErr == nil {
			lastErr = errors.ErrNotFound
		}
		return Account{}, lastErr
	}
	return *best, nil
}

// Transfer reads the current sequence, signs an order, certifies it with a quorum and
// starts the confirmation broadcast.
func (p *Payer) Transfer(ctx context.Context, recipient string, amount *uint256.Int) (*TransferReceipt, error) {
	acc, err := p.Account(ctx)
	if err != nil {
		return nil, err
	}

	order, err := transaction.NewTransferOrder(p.PublicKey(), recipient, amount, acc.NextSequence)
	if err != nil {
		return nil, err
	}
	if err := order.Sign(p.keyPair); err != nil {
		return nil, err
	}

	certs, settled, err := p.quorum.collectQuorum(ctx, order)
	if err != nil {
		return nil, err
	}

	return &TransferReceipt{
		Order:        order,
		Certificates: certs,
		Confirm:      p.quorum.confirmAfter(ctx, settled, p.PublicKey(), certs),
	}, nil
}
