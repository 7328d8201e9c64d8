package governance

import (
	"context"
	"encoding/json"
	"math/rand/v2"
)

// BalanceProvider reports how many governance tokens an address holds. The
// holder may cast one vote per token.
type BalanceProvider interface {
	GovernanceTokenBalance(ctx context.Context, address string) (int, error)
}

// VoteWeigher returns the approval percentage (0..100) a proposal receives.
type VoteWeigher interface {
	Approval(ctx context.Context, etfID string, allocation json.RawMessage) (float64, error)
}

// RandomBalances is a placeholder balance source: every lookup returns a
// fresh value in 1..10.
type RandomBalances struct{}

func (RandomBalances) GovernanceTokenBalance(context.Context, string) (int, error) {
	return rand.IntN(10) + 1, nil
}

// RandomWeigher is a placeholder tally: a uniform approval in [0, 100).
type RandomWeigher struct{}

func (RandomWeigher) Approval(context.Context, string, json.RawMessage) (float64, error) {
	return rand.Float64() * 100, nil
}

// FixedBalance always reports the same balance.
type FixedBalance int

func (b FixedBalance) GovernanceTokenBalance(context.Context, string) (int, error) {
	return int(b), nil
}

// FixedApproval always reports the same approval.
type FixedApproval float64

func (a FixedApproval) Approval(context.Context, string, json.RawMessage) (float64, error) {
	return float64(a), nil
}
