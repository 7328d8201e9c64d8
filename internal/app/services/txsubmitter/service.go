// Package txsubmitter is the gateway's single ledger write path.
//
// Every payment the gateway sends goes through Submit: autofill, sign locally,
// submit and wait for validation. Each attempt is journaled whether
// it validated or not.
package txsubmitter

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/R3E-Network/xrpl_service_layer/internal/app/domain/submission"
	"github.com/R3E-Network/xrpl_service_layer/internal/app/metrics"
	"github.com/R3E-Network/xrpl_service_layer/internal/app/storage"
	"github.com/R3E-Network/xrpl_service_layer/internal/xrpl"
	"github.com/R3E-Network/xrpl_service_layer/pkg/logger"
)

// Ledger is the part of the XRPL client the submitter drives.
type Ledger interface {
	Autofill(ctx context.Context, tx *xrpl.Transaction) error
	Sign(ctx context.Context, tx *xrpl.Transaction, wallet *xrpl.Wallet) (*xrpl.SignedTransaction, error)
	SubmitAndWait(ctx context.Context, signed *xrpl.SignedTransaction) (*xrpl.SubmitResult, error)
}

// Service submits transactions and journals the outcome.
type Service struct {
	ledger Ledger
	store  storage.SubmissionStore
	log    *logger.Logger

	mu       sync.Mutex
	accounts map[string]*sync.Mutex
}

// New creates a submitter. store may be nil to disable journaling.
func New(ledger Ledger, store storage.SubmissionStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("txsubmitter")
	}
	return &Service{
		ledger:   ledger,
		store:    store,
		log:      log,
		accounts: make(map[string]*sync.Mutex),
	}
}

// accountLock serializes submissions per sending account so autofilled
// sequences do not collide.
func (s *Service) accountLock(account string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.accounts[account]
	if !ok {
		lock = &sync.Mutex{}
		s.accounts[account] = lock
	}
	return lock
}

// Submit autofills, signs and submits tx from wallet, then waits for
// validation. A validated non-success result (tec) is returned without error.
func (s *Service) Submit(ctx context.Context, kind submission.Kind, wallet *xrpl.Wallet, tx *xrpl.Transaction) (*xrpl.SubmitResult, error) {
	if wallet == nil {
		return nil, xrpl.ErrMissingWallet
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction required")
	}
	if tx.Account == "" {
		tx.Account = wallet.ClassicAddress
	}

	lock := s.accountLock(tx.Account)
	lock.Lock()
	defer lock.Unlock()

	start := time.Now()
	result, err := s.submit(ctx, wallet, tx)
	duration := time.Since(start)

	record := submission.Submission{
		Kind:        kind,
		Account:     tx.Account,
		Destination: tx.Destination,
		Status:      submission.StatusValidated,
	}
	if amount, mErr := json.Marshal(tx.Amount); mErr == nil {
		record.Amount = amount
	}

	entry := s.log.WithContext(ctx).
		WithField("kind", kind).
		WithField("account", tx.Account).
		WithField("destination", tx.Destination)

	if err != nil {
		record.Status = submission.StatusFailed
		record.Error = err.Error()
		metrics.RecordSubmission(string(kind), "", duration)
		entry.WithError(err).Warn("ledger submission failed")
	} else {
		record.Hash = result.Hash
		record.EngineResult = result.EngineResult
		record.LedgerIndex = int64(result.LedgerIndex)
		metrics.RecordSubmission(string(kind), result.EngineResult, duration)
		entry.WithField("hash", result.Hash).
			WithField("engine_result", result.EngineResult).
			WithField("ledger_index", result.LedgerIndex).
			Info("ledger submission validated")
	}

	s.journal(ctx, record)
	return result, err
}

func (s *Service) submit(ctx context.Context, wallet *xrpl.Wallet, tx *xrpl.Transaction) (*xrpl.SubmitResult, error) {
	if err := s.ledger.Autofill(ctx, tx); err != nil {
		return nil, fmt.Errorf("autofill: %w", err)
	}
	signed, err := s.ledger.Sign(ctx, tx, wallet)
	if err != nil {
		return nil, fmt.Errorf("sign: %w", err)
	}
	result, err := s.ledger.SubmitAndWait(ctx, signed)
	if err != nil {
		return nil, fmt.Errorf("submit: %w", err)
	}
	return result, nil
}

// journal failures never fail the submission: the ledger already decided.
func (s *Service) journal(ctx context.Context, record submission.Submission) {
	if s.store == nil {
		return
	}
	// The request context may already be cancelled after a ledger timeout.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if _, err := s.store.CreateSubmission(ctx, record); err != nil {
		s.log.WithError(err).WithField("kind", record.Kind).Error("journal submission")
	}
}

// List returns the most recent journal entries.
func (s *Service) List(ctx context.Context, limit int) ([]submission.Submission, error) {
	if s.store == nil {
		return []submission.Submission{}, nil
	}
	return s.store.ListSubmissions(ctx, limit)
}

// Get returns one journal entry.
func (s *Service) Get(ctx context.Context, id string) (submission.Submission, error) {
	if s.store == nil {
		return submission.Submission{}, fmt.Errorf("submission %s: %w", id, storage.ErrNotFound)
	}
	return s.store.GetSubmission(ctx, id)
}
