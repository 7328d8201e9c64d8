// Package testutil provides common testing utilities and mock implementations.
package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/R3E-Network/xrpl_service_layer/internal/xrpl"
)

// MockLedger is an in-process stand-in for the XRPL client. It autofills
// deterministic fields, "signs" by remembering the transaction and validates
// every submission with EngineResult unless a failure is queued.
type MockLedger struct {
	mu           sync.Mutex
	sequences    map[string]uint32
	signed       map[string]xrpl.Transaction
	submitted    []xrpl.Transaction
	failures     map[int]error
	engineResult string
}

// NewMockLedger creates a ledger that validates everything with tesSUCCESS.
func NewMockLedger() *MockLedger {
	return &MockLedger{
		sequences:    make(map[string]uint32),
		signed:       make(map[string]xrpl.Transaction),
		failures:     make(map[int]error),
		engineResult: "tesSUCCESS",
	}
}

// SetEngineResult changes the result reported for validated submissions.
func (m *MockLedger) SetEngineResult(result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.engineResult = result
}

// FailSubmission makes the n-th submission (0-based, counted over the mock's
// lifetime) return err instead of validating.
func (m *MockLedger) FailSubmission(n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[n] = err
}

// Autofill implements the ledger's autofill with fixed values.
func (m *MockLedger) Autofill(_ context.Context, tx *xrpl.Transaction) error {
	if !xrpl.IsValidClassicAddress(tx.Account) {
		return fmt.Errorf("%w: account %q", xrpl.ErrInvalidAddress, tx.Account)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sequences[tx.Account]++
	if tx.Sequence == 0 {
		tx.Sequence = m.sequences[tx.Account]
	}
	if tx.Fee == "" {
		tx.Fee = "12"
	}
	if tx.LastLedgerSequence == 0 {
		tx.LastLedgerSequence = 100
	}
	return nil
}

// Sign records the transaction under a fresh hash.
func (m *MockLedger) Sign(_ context.Context, tx *xrpl.Transaction, wallet *xrpl.Wallet) (*xrpl.SignedTransaction, error) {
	if wallet == nil {
		return nil, xrpl.ErrMissingWallet
	}
	if tx.Account != wallet.ClassicAddress {
		return nil, fmt.Errorf("transaction account %s does not match wallet %s", tx.Account, wallet.ClassicAddress)
	}
	hash := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))

	m.mu.Lock()
	defer m.mu.Unlock()
	m.signed[hash] = *tx
	return &xrpl.SignedTransaction{TxBlob: "BLOB" + hash, Hash: hash, LastLedgerSequence: tx.LastLedgerSequence}, nil
}

// SubmitAndWait validates the signed transaction or returns a queued failure.
func (m *MockLedger) SubmitAndWait(ctx context.Context, signed *xrpl.SignedTransaction) (*xrpl.SubmitResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	tx, ok := m.signed[signed.Hash]
	if !ok {
		return nil, fmt.Errorf("unknown transaction %s", signed.Hash)
	}
	n := len(m.submitted)
	m.submitted = append(m.submitted, tx)
	if err, ok := m.failures[n]; ok {
		return nil, err
	}
	return &xrpl.SubmitResult{
		Hash:         signed.Hash,
		EngineResult: m.engineResult,
		Validated:    true,
		LedgerIndex:  uint32(90 + n),
	}, nil
}

// Submitted returns every transaction handed to SubmitAndWait, in order.
func (m *MockLedger) Submitted() []xrpl.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]xrpl.Transaction(nil), m.submitted...)
}

// Wallet derives a deterministic test wallet from a passphrase.
func Wallet(t testing.TB, passphrase string) *xrpl.Wallet {
	t.Helper()
	w, err := xrpl.WalletFromSeed(xrpl.SeedFromPassphrase(passphrase))
	if err != nil {
		t.Fatalf("derive wallet %q: %v", passphrase, err)
	}
	return w
}

// Seed returns the family seed behind Wallet(t, passphrase).
func Seed(passphrase string) string {
	return xrpl.SeedFromPassphrase(passphrase)
}
