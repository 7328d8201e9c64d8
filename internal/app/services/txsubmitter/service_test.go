package txsubmitter

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/R3E-Network/xrpl_service_layer/internal/app/domain/submission"
	"github.com/R3E-Network/xrpl_service_layer/internal/app/storage"
	"github.com/R3E-Network/xrpl_service_layer/internal/app/storage/memory"
	"github.com/R3E-Network/xrpl_service_layer/internal/xrpl"
	"github.com/R3E-Network/xrpl_service_layer/pkg/testutil"
)

func TestService_SubmitJournalsValidated(t *testing.T) {
	ledger := testutil.NewMockLedger()
	store := memory.New(10)
	svc := New(ledger, store, nil)

	alice := testutil.Wallet(t, "alice")
	bob := testutil.Wallet(t, "bob")

	tx := xrpl.NewPayment("", bob.ClassicAddress, xrpl.XRPAmount(25))
	res, err := svc.Submit(context.Background(), submission.KindStake, alice, tx)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !res.Succeeded() {
		t.Fatalf("expected tesSUCCESS, got %+v", res)
	}
	if tx.Account != alice.ClassicAddress {
		t.Fatalf("account not defaulted to wallet: %s", tx.Account)
	}

	subs, err := svc.List(context.Background(), 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(subs) != 1 {
		t.Fatalf("expected 1 journal entry, got %d", len(subs))
	}
	got := subs[0]
	if got.Kind != submission.KindStake || got.Status != submission.StatusValidated || got.Hash != res.Hash {
		t.Fatalf("unexpected journal entry: %+v", got)
	}
	if string(got.Amount) != `"25"` {
		t.Fatalf("amount = %s", got.Amount)
	}

	fetched, err := svc.Get(context.Background(), got.ID)
	if err != nil || fetched.ID != got.ID {
		t.Fatalf("get: %v %+v", err, fetched)
	}
}

func TestService_SubmitJournalsFailures(t *testing.T) {
	ledger := testutil.NewMockLedger()
	ledger.FailSubmission(0, errors.New("xrpl: transaction expired"))
	store := memory.New(10)
	svc := New(ledger, store, nil)

	alice := testutil.Wallet(t, "alice")
	_, err := svc.Submit(context.Background(), submission.KindVote, alice,
		xrpl.NewPayment(alice.ClassicAddress, alice.ClassicAddress, xrpl.XRPAmount(1)))
	if err == nil {
		t.Fatalf("expected submit error")
	}

	subs, _ := svc.List(context.Background(), 0)
	if len(subs) != 1 || subs[0].Status != submission.StatusFailed || subs[0].Error == "" {
		t.Fatalf("failure not journaled: %+v", subs)
	}
}

func TestService_TecResultIsNotAnError(t *testing.T) {
	ledger := testutil.NewMockLedger()
	ledger.SetEngineResult("tecUNFUNDED_PAYMENT")
	svc := New(ledger, nil, nil)

	alice := testutil.Wallet(t, "alice")
	res, err := svc.Submit(context.Background(), submission.KindLiquidity, alice,
		xrpl.NewPayment(alice.ClassicAddress, alice.ClassicAddress, xrpl.XRPAmount(1)))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Succeeded() || res.EngineResult != "tecUNFUNDED_PAYMENT" {
		t.Fatalf("unexpected result: %+v", res)
	}

	subs, err := svc.List(context.Background(), 5)
	if err != nil || len(subs) != 0 {
		t.Fatalf("journal disabled, got %v %v", subs, err)
	}
	if _, err := svc.Get(context.Background(), "x"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestService_SubmitValidation(t *testing.T) {
	svc := New(testutil.NewMockLedger(), nil, nil)
	alice := testutil.Wallet(t, "alice")

	if _, err := svc.Submit(context.Background(), submission.KindVote, nil, &xrpl.Transaction{}); !errors.Is(err, xrpl.ErrMissingWallet) {
		t.Fatalf("expected missing wallet, got %v", err)
	}
	if _, err := svc.Submit(context.Background(), submission.KindVote, alice, nil); err == nil {
		t.Fatalf("expected nil transaction error")
	}

	bob := testutil.Wallet(t, "bob")
	_, err := svc.Submit(context.Background(), submission.KindVote, alice,
		xrpl.NewPayment(bob.ClassicAddress, alice.ClassicAddress, xrpl.XRPAmount(1)))
	if err == nil {
		t.Fatalf("expected sign mismatch error")
	}
}

func TestService_SerializesPerAccount(t *testing.T) {
	ledger := testutil.NewMockLedger()
	svc := New(ledger, memory.New(100), nil)
	alice := testutil.Wallet(t, "alice")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tx := xrpl.NewPayment(alice.ClassicAddress, alice.ClassicAddress, xrpl.XRPAmount(1))
			if _, err := svc.Submit(context.Background(), submission.KindFeeDistribution, alice, tx); err != nil {
				t.Errorf("submit: %v", err)
			}
		}()
	}
	wg.Wait()

	seen := map[uint32]bool{}
	for _, tx := range ledger.Submitted() {
		if seen[tx.Sequence] {
			t.Fatalf("sequence %d reused", tx.Sequence)
		}
		seen[tx.Sequence] = true
	}
	if len(seen) != 8 {
		t.Fatalf("expected 8 distinct sequences, got %d", len(seen))
	}
}
