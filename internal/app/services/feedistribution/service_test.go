package feedistribution

import (
	"context"
	"errors"
	"testing"

	"github.com/R3E-Network/xrpl_service_layer/internal/app/services/txsubmitter"
	"github.com/R3E-Network/xrpl_service_layer/internal/fees"
	"github.com/R3E-Network/xrpl_service_layer/internal/xrpl"
	"github.com/R3E-Network/xrpl_service_layer/pkg/testutil"
)

func addressBook(t *testing.T) StaticAddressBook {
	t.Helper()
	return StaticAddressBook{
		fees.CategoryLiquidityPool: testutil.Wallet(t, "lp").ClassicAddress,
		fees.CategoryDevelopment:   testutil.Wallet(t, "dev").ClassicAddress,
		fees.CategoryGovernance:    testutil.Wallet(t, "gov").ClassicAddress,
		fees.CategoryBuybacks:      testutil.Wallet(t, "buy").ClassicAddress,
	}
}

func TestDistributeFlat_VoteFee(t *testing.T) {
	ledger := testutil.NewMockLedger()
	book := addressBook(t)
	svc := New(txsubmitter.New(ledger, nil, nil), book, nil, nil)
	voter := testutil.Wallet(t, "voter")

	receipt, err := svc.DistributeFlat(context.Background(), voter, fees.ScheduleGovernance, fees.VoteFeeDrops)
	if err != nil {
		t.Fatalf("distribute: %v", err)
	}
	if receipt.FeeDrops != fees.VoteFeeDrops || len(receipt.Payments) != 4 {
		t.Fatalf("unexpected receipt %+v", receipt)
	}

	txs := ledger.Submitted()
	want := []struct {
		category string
		drops    int64
	}{
		{fees.CategoryLiquidityPool, 400_000},
		{fees.CategoryGovernance, 300_000},
		{fees.CategoryDevelopment, 200_000},
		{fees.CategoryBuybacks, 100_000},
	}
	for i, w := range want {
		if txs[i].Destination != book[w.category] || txs[i].Amount.Drops() != w.drops {
			t.Fatalf("payment %d: got %s/%d want %s/%d", i, txs[i].Destination, txs[i].Amount.Drops(), book[w.category], w.drops)
		}
		if txs[i].Account != voter.ClassicAddress {
			t.Fatalf("payment %d paid from %s", i, txs[i].Account)
		}
	}
	if receipt.Payments[0].XRP != "0.4" {
		t.Fatalf("xrp = %s", receipt.Payments[0].XRP)
	}
}

func TestDistribute_SkipsZeroAllocations(t *testing.T) {
	ledger := testutil.NewMockLedger()
	svc := New(txsubmitter.New(ledger, nil, nil), addressBook(t), nil, nil)

	receipt, err := svc.Distribute(context.Background(), testutil.Wallet(t, "payer"), fees.ScheduleDeposit, []fees.Allocation{
		{Category: fees.CategoryLiquidityPool, Drops: 2},
		{Category: fees.CategoryDevelopment, Drops: 0},
	})
	if err != nil {
		t.Fatalf("distribute: %v", err)
	}
	if len(ledger.Submitted()) != 1 || len(receipt.Payments) != 1 {
		t.Fatalf("zero allocation was paid: %+v", receipt)
	}
}

func TestDistribute_StopsAtFirstFailure(t *testing.T) {
	ledger := testutil.NewMockLedger()
	ledger.FailSubmission(1, xrpl.ErrTransactionExpired)
	svc := New(txsubmitter.New(ledger, nil, nil), addressBook(t), nil, nil)

	receipt, err := svc.DistributeFlat(context.Background(), testutil.Wallet(t, "payer"), fees.ScheduleGovernance, fees.VoteFeeDrops)
	var distErr *DistributionError
	if !errors.As(err, &distErr) {
		t.Fatalf("expected distribution error, got %v", err)
	}
	if distErr.Category != fees.CategoryGovernance || !errors.Is(err, xrpl.ErrTransactionExpired) {
		t.Fatalf("unexpected failure %+v", distErr)
	}
	if len(receipt.Payments) != 1 || len(ledger.Submitted()) != 2 {
		t.Fatalf("expected one completed payment, got %+v", receipt.Payments)
	}
}

func TestDistribute_NonSuccessResultFails(t *testing.T) {
	ledger := testutil.NewMockLedger()
	ledger.SetEngineResult("tecUNFUNDED_PAYMENT")
	svc := New(txsubmitter.New(ledger, nil, nil), addressBook(t), nil, nil)

	_, err := svc.DistributeFlat(context.Background(), testutil.Wallet(t, "payer"), fees.ScheduleGovernance, fees.VoteFeeDrops)
	var distErr *DistributionError
	if !errors.As(err, &distErr) || distErr.Category != fees.CategoryLiquidityPool {
		t.Fatalf("expected failure on first category, got %v", err)
	}
}

func TestDistribute_MissingAddressPaysNothing(t *testing.T) {
	ledger := testutil.NewMockLedger()
	book := addressBook(t)
	delete(book, fees.CategoryBuybacks)
	svc := New(txsubmitter.New(ledger, nil, nil), book, nil, nil)

	_, err := svc.DistributeFlat(context.Background(), testutil.Wallet(t, "payer"), fees.ScheduleGovernance, fees.VoteFeeDrops)
	if !errors.Is(err, ErrMissingAddress) {
		t.Fatalf("expected missing address, got %v", err)
	}
	if len(ledger.Submitted()) != 0 {
		t.Fatalf("payments sent despite missing address")
	}
	if err := svc.Validate(); !errors.Is(err, ErrMissingAddress) {
		t.Fatalf("validate: %v", err)
	}
}

func TestSchedules(t *testing.T) {
	svc := New(nil, addressBook(t), nil, nil)
	if err := svc.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	names := []string{}
	for _, s := range svc.Schedules() {
		names = append(names, s.Name)
	}
	if len(names) != 3 || names[0] != fees.ScheduleDeposit || names[1] != fees.ScheduleGovernance || names[2] != fees.ScheduleWithdrawal {
		t.Fatalf("schedules = %v", names)
	}
	if _, err := svc.Schedule("nope"); !errors.Is(err, fees.ErrUnknownSchedule) {
		t.Fatalf("expected unknown schedule, got %v", err)
	}
}
