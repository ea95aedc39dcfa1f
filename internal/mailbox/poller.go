// Package mailbox polls an IMAP folder and feeds unseen messages into
// the ingestion pipeline for a single tenant.
package mailbox

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/mailtriage/mailtriage/internal/apperr"
	"github.com/mailtriage/mailtriage/internal/metrics"
	"github.com/mailtriage/mailtriage/internal/model"
	"github.com/mailtriage/mailtriage/internal/service"
)

const (
	// DefaultPollInterval is the time between polls.
	DefaultPollInterval = time.Minute
	// DefaultBatchSize is the number of messages ingested per poll.
	DefaultBatchSize = 25
	// MaxAttempts is the number of failed ingestions after which a message
	// is left unseen and no longer fetched by this poller.
	MaxAttempts = 3
)

// Message outcomes recorded in metrics.
const (
	OutcomeIngested = "ingested"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
	OutcomeSkipped  = "skipped"
)

// Ingester is the ingestion entry point the poller feeds.
type Ingester interface {
	Ingest(ctx context.Context, source string, in model.NewEmail) (*model.Email, error)
}

// Config configures a Poller.
type Config struct {
	TenantID     string
	PollInterval time.Duration
	BatchSize    int
}

// Poller ingests unseen mailbox messages on a fixed interval.
type Poller struct {
	dialer   Dialer
	ingester Ingester
	metrics  metrics.Recorder
	logger   *slog.Logger

	tenantID     string
	pollInterval time.Duration
	batchSize    int

	mu       sync.Mutex
	cancel   context.CancelFunc
	done     chan struct{}
	failures int

	// attempts counts failed ingestions per UID. Only PollOnce touches it.
	attempts map[uint32]int
}

// NewPoller creates a Poller.
func NewPoller(cfg Config, dialer Dialer, ingester Ingester, recorder metrics.Recorder, logger *slog.Logger) *Poller {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	return &Poller{
		dialer:       dialer,
		ingester:     ingester,
		metrics:      recorder,
		logger:       logger.With("component", "mailbox.poller", "tenant_id", cfg.TenantID),
		tenantID:     cfg.TenantID,
		pollInterval: cfg.PollInterval,
		batchSize:    cfg.BatchSize,
		attempts:     make(map[uint32]int),
	}
}

// Start runs the poll loop in the background.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done != nil {
		return errors.New("poller already started")
	}

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})

	go func() {
		defer close(p.done)
		p.run(ctx)
	}()
	return nil
}

// Stop cancels the poll loop and waits for the current poll to finish
// or ctx to expire.
func (p *Poller) Stop(ctx context.Context) error {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.mu.Unlock()
	if done == nil {
		return nil
	}

	cancel()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Poller) run(ctx context.Context) {
	p.logger.Info("mailbox poller started", "interval", p.pollInterval)

	wait := time.Duration(0)
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("mailbox poller stopping")
			return
		case <-time.After(wait):
		}

		if err := p.PollOnce(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				continue
			}
			wait = NextReconnectDelay(p.failures)
			p.failures++
			p.logger.Error("mailbox poll failed",
				"error", err,
				"consecutive_failures", p.failures,
				"retry_in", wait,
			)
			continue
		}
		p.failures = 0
		wait = p.pollInterval
	}
}

// PollOnce opens a session, ingests one batch of unseen messages and
// closes the session. Per-message failures are logged and left unseen
// for the next poll; after MaxAttempts failures a message is skipped so
// newer mail is not starved. Only session errors are returned.
// PollOnce must not be called concurrently.
func (p *Poller) PollOnce(ctx context.Context) error {
	sess, err := p.dialer.Dial(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := sess.Close(); err != nil {
			p.logger.Warn("mailbox logout failed", "error", err)
		}
	}()

	msgs, err := sess.Unseen(ctx, p.batchSize, p.exhausted)
	if err != nil {
		return err
	}

	for _, msg := range msgs {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		p.handle(ctx, sess, msg)
	}
	return nil
}

func (p *Poller) handle(ctx context.Context, sess Session, msg Message) {
	in := p.toNewEmail(msg)

	email, err := p.ingester.Ingest(ctx, service.SourceMailbox, in)
	switch {
	case err == nil:
		p.metrics.IncMailboxMessage(OutcomeIngested)
		p.logger.Info("mailbox message ingested", "uid", msg.UID, "email_id", email.ID)
	case apperr.KindOf(err) == apperr.ValidationFailed:
		// Retrying cannot fix invalid content, so it is marked seen.
		p.metrics.IncMailboxMessage(OutcomeRejected)
		p.logger.Warn("mailbox message rejected", "uid", msg.UID, "error", err)
	default:
		p.attempts[msg.UID]++
		attempt := p.attempts[msg.UID]
		p.metrics.IncMailboxMessage(OutcomeFailed)
		p.logger.Error("mailbox message ingestion failed",
			"uid", msg.UID,
			"attempt", attempt,
			"error", err,
		)
		if attempt >= MaxAttempts {
			p.metrics.IncMailboxMessage(OutcomeSkipped)
			p.logger.Error("mailbox message skipped after repeated failures",
				"uid", msg.UID,
				"attempts", attempt,
			)
		}
		return
	}
	delete(p.attempts, msg.UID)

	if err := sess.MarkSeen(ctx, msg.UID); err != nil {
		p.logger.Warn("mark seen failed", "uid", msg.UID, "error", err)
	}
}

func (p *Poller) exhausted(uid uint32) bool {
	return p.attempts[uid] >= MaxAttempts
}

// toNewEmail prefers parsed headers and falls back to the envelope.
func (p *Poller) toNewEmail(msg Message) model.NewEmail {
	in := model.NewEmail{
		TenantID:  p.tenantID,
		Subject:   msg.Subject,
		Sender:    msg.From,
		Recipient: msg.To,
	}
	if len(msg.Raw) == 0 {
		return in
	}

	parsed, err := parseMessage(msg.Raw)
	if err != nil {
		p.logger.Warn("mailbox message parse failed", "uid", msg.UID, "error", err)
	}
	if parsed.Subject != "" {
		in.Subject = parsed.Subject
	}
	if parsed.From != "" {
		in.Sender = parsed.From
	}
	if parsed.To != "" {
		in.Recipient = parsed.To
	}
	in.Body = parsed.Body
	return in
}
