package client

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mezonai/fastpay/authority"
	"github.com/mezonai/fastpay/common"
	"github.com/mezonai/fastpay/crypto"
	"github.com/mezonai/fastpay/errors"
	"github.com/mezonai/fastpay/exception"
	"github.com/mezonai/fastpay/logx"
	"github.com/mezonai/fastpay/monitoring"
	"github.com/mezonai/fastpay/transaction"
	"github.com/mezonai/fastpay/utils"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultQuorumTimeout  = 10 * time.Second
	DefaultConfirmTimeout = 10 * time.Second
)

// QuorumClient fans requests out to every authority of one committee.
type QuorumClient struct {
	authorities    []AuthorityClient
	threshold      int
	quorumTimeout  time.Duration
	confirmTimeout time.Duration
}

type Option func(*QuorumClient)

// WithQuorumTimeout bounds how long CollectQuorum waits for certificates.
func WithQuorumTimeout(d time.Duration) Option {
	return func(q *QuorumClient) {
		if d > 0 {
			q.quorumTimeout = d
		}
	}
}

// WithConfirmTimeout bounds the background confirmation broadcast.
func WithConfirmTimeout(d time.Duration) Option {
	return func(q *QuorumClient) {
		if d > 0 {
			q.confirmTimeout = d
		}
	}
}

// NewQuorumClient requires one client per authority, each configured with a distinct
// valid public key.
func NewQuorumClient(authorities []AuthorityClient, opts ...Option) (*QuorumClient, error) {
	if len(authorities) == 0 {
		return nil, fmt.Errorf("no authorities configured")
	}
	seen := make(map[string]struct{}, len(authorities))
	for i, ac := range authorities {
		key := ac.PublicKey()
		if !common.IsValidPublicKey(key) {
			return nil, fmt.Errorf("authority %d: invalid public key %q", i, key)
		}
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("authority %d: duplicate public key %s", i, key)
		}
		seen[key] = struct{}{}
	}

	q := &QuorumClient{
		authorities:    append([]AuthorityClient(nil), authorities...),
		threshold:      authority.Threshold(len(authorities)),
		quorumTimeout:  DefaultQuorumTimeout,
		confirmTimeout: DefaultConfirmTimeout,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q, nil
}

func (q *QuorumClient) Threshold() int {
	return q.threshold
}

func (q *QuorumClient) Authorities() []AuthorityClient {
	return append([]AuthorityClient(nil), q.authorities...)
}

// Close closes every authority client.
func (q *QuorumClient) Close() error {
	var errs []error
	for _, ac := range q.authorities {
		if err := ac.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

type submitResult struct {
	authority string
	cert      transaction.TransferCertificate
	err       error
}

// CollectQuorum submits order to every authority concurrently and returns as soon as
// Threshold distinct authorities have returned a certificate that verifies over order.
// Outstanding requests are then cancelled; authorities that already locked the order
// keep it.
func (q *QuorumClient) CollectQuorum(ctx context.Context, order *transaction.TransferOrder) ([]transaction.TransferCertificate, error) {
	certs, _, err := q.collectQuorum(ctx, order)
	return certs, err
}

// collectQuorum is CollectQuorum that also returns a channel closed once every submit
// of the round has returned, late ones included.
func (q *QuorumClient) collectQuorum(ctx context.Context, order *transaction.TransferOrder) ([]transaction.TransferCertificate, <-chan struct{}, error) {
	round := uuid.NewString()
	start := time.Now()

	roundCtx, cancel := context.WithTimeout(ctx, q.quorumTimeout)
	defer cancel()

	var submits sync.WaitGroup
	settled := make(chan struct{})
	results := make(chan submitResult, len(q.authorities))
	for _, ac := range q.authorities {
		ac := ac
		submits.Add(1)
		exception.SafeGo("quorum-submit", func() {
			res := submitResult{
				authority: ac.PublicKey(),
				err:       errors.New(errors.CodeInternal, "submit panicked"),
			}
			defer submits.Done()
			defer func() { results <- res }()

			cert, err := ac.SubmitTransfer(roundCtx, order)
			if err == nil {
				err = verifyCertificate(ac.PublicKey(), order, cert)
			}
			res.cert, res.err = cert, err
		})
	}

	exception.SafeGo("quorum-settle", func() {
		submits.Wait()
		close(settled)
	})

	logx.Debug("QUORUM", fmt.Sprintf("round %s | order=%s | authorities=%d | threshold=%d",
		round, utils.ShortenLog(order.ID()), len(q.authorities), q.threshold))

	// authority keys are unique, so each success is a distinct signer
	certs := make([]transaction.TransferCertificate, 0, q.threshold)
	var failures []string
	for remaining := len(q.authorities); remaining > 0; remaining-- {
		select {
		case res := <-results:
			if res.err != nil {
				logx.Warn("QUORUM", fmt.Sprintf("round %s | authority %s refused: %v", round, utils.ShortenLog(res.authority), res.err))
				failures = append(failures, fmt.Sprintf("%s: %v", utils.ShortenLog(res.authority), res.err))
				continue
			}
			certs = append(certs, res.cert)
			if len(certs) >= q.threshold {
				cancel()
				monitoring.RecordQuorumLatency(time.Since(start))
				monitoring.RecordQuorumOutcome(monitoring.QuorumReached)
				logx.Info("QUORUM", fmt.Sprintf("round %s | quorum reached for order %s with %d certificates in %s",
					round, utils.ShortenLog(order.ID()), len(certs), time.Since(start)))
				return certs, settled, nil
			}
		case <-roundCtx.Done():
			if ctx.Err() != nil && !stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
				monitoring.RecordQuorumOutcome(monitoring.QuorumCancelled)
				return nil, settled, fmt.Errorf("quorum collection cancelled: %w", ctx.Err())
			}
			monitoring.RecordQuorumOutcome(monitoring.QuorumTimedOut)
			return nil, settled, errors.Newf(errors.CodeQuorumTimeout,
				"Collected %d of %d certificates before the deadline", len(certs), q.threshold)
		}
	}

	monitoring.RecordQuorumOutcome(monitoring.QuorumNotReached)
	return nil, settled, errors.Newf(errors.CodeQuorumNotReached,
		"Collected %d of %d certificates; refusals: %s", len(certs), q.threshold, strings.Join(failures, "; "))
}

// verifyCertificate checks that cert was produced by the expected authority over order.
func verifyCertificate(expected string, order *transaction.TransferOrder, cert transaction.TransferCertificate) error {
	if cert.AuthorityPublicKey != expected {
		return errors.Newf(errors.CodeUnknownAuthority,
			"Certificate signed by %s, expected %s", cert.AuthorityPublicKey, expected)
	}
	pub, err := common.DecodePublicKey(expected)
	if err != nil {
		return errors.ErrInvalidPublicKey
	}
	sig, err := common.DecodeSignature(cert.Signature)
	if err != nil || !crypto.Verify(sig, order.Serialize(), pub) {
		return errors.Newf(errors.CodeBadSignature, "Certificate from %s does not verify over the order", expected)
	}
	return nil
}

// ConfirmBroadcast tracks a confirmation sent to every authority.
type ConfirmBroadcast struct {
	done   chan struct{}
	report ConfirmReport
}

// Done is closed once every authority has answered or timed out.
func (b *ConfirmBroadcast) Done() <-chan struct{} {
	return b.done
}

// Wait blocks until the broadcast finishes.
func (b *ConfirmBroadcast) Wait() ConfirmReport {
	<-b.done
	return b.report
}

// ConfirmOrder sends certs to every authority in the background and returns at once.
// Failures are logged and reported, never retried. The broadcast outlives cancellation
// of ctx and is bounded by the confirm timeout.
func (q *QuorumClient) ConfirmOrder(ctx context.Context, sender string, certs []transaction.TransferCertificate) *ConfirmBroadcast {
	return q.confirmAfter(ctx, nil, sender, certs)
}

// confirmAfter is ConfirmOrder that holds the broadcast until settled is closed, so the
// confirmation never overtakes the round's own submit to an authority.
func (q *QuorumClient) confirmAfter(ctx context.Context, settled <-chan struct{}, sender string, certs []transaction.TransferCertificate) *ConfirmBroadcast {
	b := &ConfirmBroadcast{done: make(chan struct{})}
	bctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), q.confirmTimeout)

	exception.SafeGo("confirm-broadcast", func() {
		defer close(b.done)
		defer cancel()

		if settled != nil {
			select {
			case <-settled:
			case <-bctx.Done():
			}
		}

		results := make([]ConfirmResult, len(q.authorities))
		for i, ac := range q.authorities {
			results[i] = ConfirmResult{Authority: ac.PublicKey(), Err: errors.New(errors.CodeInternal, "confirm did not complete")}
		}
		fanOut(bctx, q.authorities, func(ctx context.Context, i int, ac AuthorityClient) {
			err := ac.ConfirmTransfer(ctx, sender, certs)
			results[i] = ConfirmResult{Authority: ac.PublicKey(), Err: err}
			monitoring.RecordConfirmResult(err == nil)
			if err != nil {
				logx.Warn("QUORUM", fmt.Sprintf("confirm for %s failed at authority %s: %v",
					utils.ShortenLog(sender), utils.ShortenLog(ac.PublicKey()), err))
			}
		})
		b.report = ConfirmReport{Results: results}
	})
	return b
}

// fanOut runs fn once per authority and waits for all of them. A panic in fn is logged
// and counted; fn's result slot keeps whatever the caller preset.
func fanOut(ctx context.Context, authorities []AuthorityClient, fn func(ctx context.Context, i int, ac AuthorityClient)) {
	var g errgroup.Group
	for i, ac := range authorities {
		i, ac := i, ac
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					monitoring.IncreasePanicCount()
					logx.Error("QUORUM", fmt.Sprintf("panic calling authority %s: %v", ac.PublicKey(), r))
				}
			}()
			fn(ctx, i, ac)
			return nil
		})
	}
	_ = g.Wait()
}
