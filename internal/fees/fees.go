// Package fees holds the ETF fee schedules and the basis-point arithmetic that
// splits a fee across destination categories.
//
// All amounts are XRP drops. Every allocation is computed from the gross amount
// and rounded half-up on its own, so allocations may differ from the rounded
// fee by a drop.
package fees

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// BpsDenominator is 100% in basis points.
const BpsDenominator = 10_000

// Fee categories. The destination of a category is read from
// <CATEGORY upper-cased>_ADDRESS.
const (
	CategoryLiquidityPool = "liquidityPool"
	CategoryDevelopment   = "development"
	CategoryGovernance    = "governance"
	CategoryBuybacks      = "buybacks"
)

// Schedule names.
const (
	ScheduleDeposit    = "deposit"
	ScheduleWithdrawal = "withdrawal"
	ScheduleGovernance = "governance"
)

// Default rates.
const (
	DepositFeeBps    = 50  // 0.5%
	WithdrawalFeeBps = 100 // 1%
	VoteFeeDrops     = 1_000_000
)

var (
	ErrInvalidSchedule = errors.New("fees: invalid schedule")
	ErrUnknownSchedule = errors.New("fees: unknown schedule")
	ErrInvalidAmount   = errors.New("fees: invalid amount")
)

// Share is one category's portion of a fee.
type Share struct {
	Category string `json:"category" yaml:"category"`
	Bps      int64  `json:"bps" yaml:"bps"`
}

// Schedule is an ordered list of shares; payments go out in this order.
type Schedule struct {
	Name   string  `json:"name" yaml:"name"`
	Shares []Share `json:"shares" yaml:"shares"`
}

// Validate checks that every share is positive, categories are unique and the
// shares add up to 100%.
func (s Schedule) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: name required", ErrInvalidSchedule)
	}
	if len(s.Shares) == 0 {
		return fmt.Errorf("%w: %s has no shares", ErrInvalidSchedule, s.Name)
	}
	seen := make(map[string]bool, len(s.Shares))
	var total int64
	for _, share := range s.Shares {
		if share.Category == "" {
			return fmt.Errorf("%w: %s has a share without category", ErrInvalidSchedule, s.Name)
		}
		if seen[share.Category] {
			return fmt.Errorf("%w: %s lists %s twice", ErrInvalidSchedule, s.Name, share.Category)
		}
		seen[share.Category] = true
		if share.Bps <= 0 {
			return fmt.Errorf("%w: %s/%s must be positive", ErrInvalidSchedule, s.Name, share.Category)
		}
		total += share.Bps
	}
	if total != BpsDenominator {
		return fmt.Errorf("%w: %s shares sum to %d bps, want %d", ErrInvalidSchedule, s.Name, total, BpsDenominator)
	}
	return nil
}

// Categories returns the categories in payment order.
func (s Schedule) Categories() []string {
	out := make([]string, len(s.Shares))
	for i, share := range s.Shares {
		out[i] = share.Category
	}
	return out
}

// DefaultSchedules returns the built-in deposit, withdrawal and governance
// schedules.
func DefaultSchedules() map[string]Schedule {
	return map[string]Schedule{
		ScheduleDeposit: {Name: ScheduleDeposit, Shares: []Share{
			{CategoryLiquidityPool, 3000},
			{CategoryDevelopment, 3000},
			{CategoryGovernance, 2000},
			{CategoryBuybacks, 2000},
		}},
		ScheduleWithdrawal: {Name: ScheduleWithdrawal, Shares: []Share{
			{CategoryLiquidityPool, 4000},
			{CategoryGovernance, 3000},
			{CategoryDevelopment, 2000},
			{CategoryBuybacks, 1000},
		}},
		ScheduleGovernance: {Name: ScheduleGovernance, Shares: []Share{
			{CategoryLiquidityPool, 4000},
			{CategoryGovernance, 3000},
			{CategoryDevelopment, 2000},
			{CategoryBuybacks, 1000},
		}},
	}
}

// AddressEnvKey returns the environment variable holding a category's address.
func AddressEnvKey(category string) string {
	return strings.ToUpper(category) + "_ADDRESS"
}

// Allocation is the amount owed to one category.
type Allocation struct {
	Category string `json:"category"`
	Drops    int64  `json:"drops"`
}

// Breakdown is the result of charging a percentage fee on an amount.
type Breakdown struct {
	AmountDrops int64        `json:"amount_drops"`
	FeeBps      int64        `json:"fee_bps"`
	FeeDrops    int64        `json:"fee_drops"`
	NetDrops    int64        `json:"net_drops"`
	Allocations []Allocation `json:"allocations"`
}

// Split charges feeBps on amountDrops and divides the fee per schedule.
func Split(amountDrops, feeBps int64, schedule Schedule) (*Breakdown, error) {
	if amountDrops <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidAmount)
	}
	if feeBps < 0 || feeBps > BpsDenominator {
		return nil, fmt.Errorf("%w: fee %d bps out of range", ErrInvalidAmount, feeBps)
	}
	if err := schedule.Validate(); err != nil {
		return nil, err
	}

	fee := mulDivRound(amountDrops, feeBps, BpsDenominator)
	out := &Breakdown{
		AmountDrops: amountDrops,
		FeeBps:      feeBps,
		FeeDrops:    fee,
		NetDrops:    amountDrops - fee,
		Allocations: make([]Allocation, 0, len(schedule.Shares)),
	}
	for _, share := range schedule.Shares {
		out.Allocations = append(out.Allocations, Allocation{
			Category: share.Category,
			Drops:    mulDivRound(amountDrops, feeBps*share.Bps, BpsDenominator*BpsDenominator),
		})
	}
	return out, nil
}

// Allocate divides a flat fee per schedule.
func Allocate(feeDrops int64, schedule Schedule) ([]Allocation, error) {
	if feeDrops <= 0 {
		return nil, fmt.Errorf("%w: fee must be positive", ErrInvalidAmount)
	}
	if err := schedule.Validate(); err != nil {
		return nil, err
	}
	out := make([]Allocation, 0, len(schedule.Shares))
	for _, share := range schedule.Shares {
		out = append(out, Allocation{
			Category: share.Category,
			Drops:    mulDivRound(feeDrops, share.Bps, BpsDenominator),
		})
	}
	return out, nil
}

// Total sums allocations.
func Total(allocs []Allocation) int64 {
	var sum int64
	for _, a := range allocs {
		sum += a.Drops
	}
	return sum
}

// mulDivRound returns round(a*b/d) with halves rounded up, without overflow.
func mulDivRound(a, b, d int64) int64 {
	num := new(big.Int).Mul(big.NewInt(a), big.NewInt(b))
	num.Mul(num, big.NewInt(2))
	num.Add(num, big.NewInt(d))
	den := big.NewInt(2 * d)
	return num.Quo(num, den).Int64()
}
