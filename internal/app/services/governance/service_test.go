package governance

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/R3E-Network/xrpl_service_layer/internal/app/services/feedistribution"
	"github.com/R3E-Network/xrpl_service_layer/internal/app/services/txsubmitter"
	"github.com/R3E-Network/xrpl_service_layer/internal/fees"
	"github.com/R3E-Network/xrpl_service_layer/internal/xrpl"
	"github.com/R3E-Network/xrpl_service_layer/pkg/testutil"
)

type fakeCharger struct {
	mu      sync.Mutex
	charged []string
	err     error
}

func (f *fakeCharger) DistributeFlat(_ context.Context, wallet *xrpl.Wallet, schedule string, feeDrops int64) (*feedistribution.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.charged = append(f.charged, wallet.ClassicAddress)
	return &feedistribution.Receipt{Schedule: schedule, From: wallet.ClassicAddress, FeeDrops: feeDrops}, nil
}

func (f *fakeCharger) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.charged)
}

type clock struct{ now time.Time }

func (c *clock) Now() time.Time          { return c.now }
func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newService(t *testing.T, balance int, approval float64) (*Service, *fakeCharger, *clock) {
	t.Helper()
	charger := &fakeCharger{}
	clk := &clock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	svc := New(charger, Config{
		AdminAddresses: []string{testutil.Wallet(t, "admin").ClassicAddress},
		Balances:       FixedBalance(balance),
		Weigher:        FixedApproval(approval),
		Now:            clk.Now,
	}, nil)
	return svc, charger, clk
}

var allocation = json.RawMessage(`{"XRP":60,"USD":40}`)

func TestProposeETFChange_Approved(t *testing.T) {
	svc, charger, clk := newService(t, 5, 70)

	res, err := svc.ProposeETFChange(context.Background(), testutil.Seed("proposer"), "etf-1", allocation)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "ETF change approved and applied. Cooldown started.", res.Message)
	require.NotNil(t, res.CooldownUntil)
	assert.Equal(t, clk.now.Add(DefaultCooldownPeriod), *res.CooldownUntil)
	assert.Equal(t, 1, charger.count())

	status := svc.ETFStatus("etf-1")
	assert.True(t, status.InCooldown)
	assert.JSONEq(t, string(allocation), string(status.Allocation))
}

func TestProposeETFChange_CooldownBlocksUntilExpiry(t *testing.T) {
	svc, charger, clk := newService(t, 5, 70)
	ctx := context.Background()

	_, err := svc.ProposeETFChange(ctx, testutil.Seed("proposer"), "etf-1", allocation)
	require.NoError(t, err)

	_, err = svc.ProposeETFChange(ctx, testutil.Seed("other"), "etf-1", allocation)
	require.ErrorIs(t, err, ErrCooldownActive)
	assert.Equal(t, "ETF is in cooldown period. New proposals are blocked.", err.Error())
	assert.Equal(t, 1, charger.count(), "blocked proposal must not charge a vote fee")

	// Other ETFs are unaffected.
	_, err = svc.ProposeETFChange(ctx, testutil.Seed("other"), "etf-2", allocation)
	require.NoError(t, err)

	clk.Advance(DefaultCooldownPeriod)
	res, err := svc.ProposeETFChange(ctx, testutil.Seed("other"), "etf-1", allocation)
	require.NoError(t, err)
	assert.True(t, res.Success)
}

func TestProposeETFChange_RejectedBelowThreshold(t *testing.T) {
	svc, _, _ := newService(t, 5, 61.9)

	res, err := svc.ProposeETFChange(context.Background(), testutil.Seed("proposer"), "etf-1", allocation)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "Proposal did not reach 62% approval.", res.Message)
	assert.Nil(t, res.CooldownUntil)
	assert.False(t, svc.ETFStatus("etf-1").InCooldown)
}

func TestProposeETFChange_ExactThresholdPasses(t *testing.T) {
	svc, _, _ := newService(t, 5, 62)

	res, err := svc.ProposeETFChange(context.Background(), testutil.Seed("proposer"), "etf-1", allocation)
	require.NoError(t, err)
	assert.True(t, res.Success)
}

func TestProposeETFChange_InvalidInput(t *testing.T) {
	svc, _, _ := newService(t, 5, 70)
	ctx := context.Background()

	_, err := svc.ProposeETFChange(ctx, testutil.Seed("proposer"), " ", allocation)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = svc.ProposeETFChange(ctx, "not-a-seed", "etf-1", allocation)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestGovernanceVote_LimitedByTokenBalance(t *testing.T) {
	svc, charger, _ := newService(t, 2, 50)
	ctx := context.Background()
	seed := testutil.Seed("voter")

	for i := 1; i <= 2; i++ {
		res, err := svc.GovernanceVote(ctx, "etf-1", nil, seed)
		require.NoError(t, err)
		assert.Equal(t, i, res.VotesCast)
		assert.Equal(t, 2, res.TokenLimit)
	}

	_, err := svc.GovernanceVote(ctx, "etf-1", nil, seed)
	require.ErrorIs(t, err, ErrVoteLimit)
	assert.Equal(t, "You can only vote once per governance token you hold.", err.Error())
	assert.Equal(t, 2, charger.count())
}

func TestGovernanceVote_FeeFailureDoesNotCount(t *testing.T) {
	svc, charger, _ := newService(t, 1, 50)
	charger.err = errors.New("payment failed")
	seed := testutil.Seed("voter")

	_, err := svc.GovernanceVote(context.Background(), "etf-1", nil, seed)
	require.Error(t, err)

	wallet, err := xrpl.WalletFromSeed(seed)
	require.NoError(t, err)
	assert.Zero(t, svc.VotesCast(wallet.ClassicAddress))

	charger.err = nil
	_, err = svc.GovernanceVote(context.Background(), "etf-1", nil, seed)
	require.NoError(t, err)
}

func TestGovernanceVote_ConcurrentVotesRespectLimit(t *testing.T) {
	svc, charger, _ := newService(t, 3, 50)
	seed := testutil.Seed("voter")

	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.GovernanceVote(context.Background(), "etf-1", nil, seed); err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, accepted)
	assert.Equal(t, 3, charger.count())
}

func TestGovernanceVote_ChargesGovernanceSchedule(t *testing.T) {
	ledger := testutil.NewMockLedger()
	book := feedistribution.StaticAddressBook{
		fees.CategoryLiquidityPool: testutil.Wallet(t, "lp").ClassicAddress,
		fees.CategoryDevelopment:   testutil.Wallet(t, "dev").ClassicAddress,
		fees.CategoryGovernance:    testutil.Wallet(t, "gov").ClassicAddress,
		fees.CategoryBuybacks:      testutil.Wallet(t, "buy").ClassicAddress,
	}
	dist := feedistribution.New(txsubmitter.New(ledger, nil, nil), book, nil, nil)
	svc := New(dist, Config{Balances: FixedBalance(1), Weigher: FixedApproval(10)}, nil)

	_, err := svc.GovernanceVote(context.Background(), "etf-1", nil, testutil.Seed("voter"))
	require.NoError(t, err)

	var total int64
	for _, tx := range ledger.Submitted() {
		total += tx.Amount.Drops()
	}
	assert.Equal(t, int64(fees.VoteFeeDrops), total)
}

func TestAdminOverride_Lifecycle(t *testing.T) {
	svc, _, clk := newService(t, 5, 70)
	ctx := context.Background()
	admin := testutil.Seed("admin")

	_, err := svc.ProposeETFChange(ctx, testutil.Seed("proposer"), "etf-1", allocation)
	require.NoError(t, err)

	_, err = svc.ApplyAdminOverride(ctx, admin, "etf-1", false)
	require.ErrorIs(t, err, ErrOverridePending, "no request yet")

	out, err := svc.RequestAdminOverride(ctx, admin, "etf-1", false)
	require.NoError(t, err)
	assert.Equal(t, "Override request accepted. It will take effect in 6 hours.", out.Message)
	assert.True(t, svc.ETFStatus("etf-1").OverridePending)

	clk.Advance(DefaultOverrideDelay - time.Minute)
	_, err = svc.ApplyAdminOverride(ctx, admin, "etf-1", false)
	require.ErrorIs(t, err, ErrOverridePending)
	assert.Equal(t, "Override delay not reached yet.", err.Error())

	clk.Advance(time.Minute)
	out, err = svc.ApplyAdminOverride(ctx, admin, "etf-1", false)
	require.NoError(t, err)
	assert.Equal(t, "Admin override applied. ETF etf-1 unlocked for new proposals.", out.Message)

	status := svc.ETFStatus("etf-1")
	assert.False(t, status.InCooldown)
	assert.False(t, status.OverridePending)

	res, err := svc.ProposeETFChange(ctx, testutil.Seed("proposer"), "etf-1", allocation)
	require.NoError(t, err)
	assert.True(t, res.Success)
}

func TestAdminOverride_GlobalClearsAllCooldowns(t *testing.T) {
	svc, _, clk := newService(t, 5, 70)
	ctx := context.Background()
	admin := testutil.Seed("admin")

	for _, id := range []string{"etf-1", "etf-2"} {
		_, err := svc.ProposeETFChange(ctx, testutil.Seed("proposer-"+id), id, allocation)
		require.NoError(t, err)
	}

	_, err := svc.RequestAdminOverride(ctx, admin, "etf-1", true)
	require.NoError(t, err)
	clk.Advance(DefaultOverrideDelay)

	out, err := svc.ApplyAdminOverride(ctx, admin, "etf-1", true)
	require.NoError(t, err)
	assert.Equal(t, "Admin override applied. All ETFs unlocked for new proposals.", out.Message)
	assert.False(t, svc.ETFStatus("etf-1").InCooldown)
	assert.False(t, svc.ETFStatus("etf-2").InCooldown)
}

func TestAdminOverride_Unauthorized(t *testing.T) {
	svc, _, _ := newService(t, 5, 70)
	ctx := context.Background()

	_, err := svc.RequestAdminOverride(ctx, testutil.Seed("mallory"), "etf-1", false)
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, "Unauthorized admin.", err.Error())

	_, err = svc.ApplyAdminOverride(ctx, testutil.Seed("mallory"), "etf-1", false)
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestSweep_RemovesExpiredCooldowns(t *testing.T) {
	svc, _, clk := newService(t, 5, 70)
	ctx := context.Background()

	_, err := svc.ProposeETFChange(ctx, testutil.Seed("proposer"), "etf-1", allocation)
	require.NoError(t, err)
	assert.Zero(t, svc.Sweep())

	clk.Advance(DefaultCooldownPeriod)
	assert.Equal(t, 1, svc.Sweep())
	assert.False(t, svc.ETFStatus("etf-1").InCooldown)
}

func TestFormatDelay(t *testing.T) {
	assert.Equal(t, "6 hours", formatDelay(6*time.Hour))
	assert.Equal(t, "1 hour", formatDelay(time.Hour))
	assert.Equal(t, "1m30s", formatDelay(90*time.Second))
}

func TestRandomProvidersStayInRange(t *testing.T) {
	ctx := context.Background()
	for i := 0; i < 200; i++ {
		b, err := RandomBalances{}.GovernanceTokenBalance(ctx, "r")
		require.NoError(t, err)
		assert.True(t, b >= 1 && b <= 10, "balance %d", b)

		a, err := RandomWeigher{}.Approval(ctx, "etf", nil)
		require.NoError(t, err)
		assert.True(t, a >= 0 && a < 100, "approval %f", a)
	}
}
