// Package etf charges the deposit and withdrawal fees of the ETF and pays them
// out from the governance wallet.
package etf

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/R3E-Network/xrpl_service_layer/internal/app/services/feedistribution"
	"github.com/R3E-Network/xrpl_service_layer/internal/fees"
	"github.com/R3E-Network/xrpl_service_layer/internal/xrpl"
	"github.com/R3E-Network/xrpl_service_layer/pkg/logger"
)

var (
	ErrInvalidRequest = errors.New("invalid request")
	// ErrTreasuryUnavailable means GOVERNANCE_WALLET_SEED is missing or invalid.
	ErrTreasuryUnavailable = errors.New("governance wallet not configured")
)

// Distributor pays allocations from a wallet.
type Distributor interface {
	Schedule(name string) (fees.Schedule, error)
	Distribute(ctx context.Context, wallet *xrpl.Wallet, schedule string, allocations []fees.Allocation) (*feedistribution.Receipt, error)
}

// Config holds fee rates and the paying wallet.
type Config struct {
	DepositFeeBps    int64
	WithdrawalFeeBps int64
	// Treasury pays every distribution; nil disables the service.
	Treasury *xrpl.Wallet
}

// Result describes a charged deposit or withdrawal.
type Result struct {
	Account      string                   `json:"account"`
	Amount       string                   `json:"amount"`
	Fee          string                   `json:"fee"`
	NetAmount    string                   `json:"netAmount"`
	NetDrops     int64                    `json:"netDrops"`
	Breakdown    *fees.Breakdown          `json:"breakdown"`
	Distribution *feedistribution.Receipt `json:"distribution"`
}

// Service handles ETF deposits and withdrawals.
type Service struct {
	distributor Distributor
	cfg         Config
	log         *logger.Logger
}

// New creates the service, filling default fee rates.
func New(distributor Distributor, cfg Config, log *logger.Logger) *Service {
	if cfg.DepositFeeBps == 0 {
		cfg.DepositFeeBps = fees.DepositFeeBps
	}
	if cfg.WithdrawalFeeBps == 0 {
		cfg.WithdrawalFeeBps = fees.WithdrawalFeeBps
	}
	if log == nil {
		log = logger.NewDefault("etf")
	}
	return &Service{distributor: distributor, cfg: cfg, log: log}
}

// TreasuryFromSeed derives the paying wallet, reporting a missing seed as
// ErrTreasuryUnavailable.
func TreasuryFromSeed(seed string) (*xrpl.Wallet, error) {
	if strings.TrimSpace(seed) == "" {
		return nil, fmt.Errorf("%w: GOVERNANCE_WALLET_SEED is empty", ErrTreasuryUnavailable)
	}
	w, err := xrpl.WalletFromSeed(seed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTreasuryUnavailable, err)
	}
	return w, nil
}

// HandleDeposit charges the deposit fee on amount (XRP) and distributes it.
func (s *Service) HandleDeposit(ctx context.Context, userSeed, amount string) (*Result, error) {
	return s.handle(ctx, userSeed, amount, s.cfg.DepositFeeBps, fees.ScheduleDeposit)
}

// HandleWithdrawal charges the withdrawal fee on amount (XRP) and distributes it.
func (s *Service) HandleWithdrawal(ctx context.Context, userSeed, amount string) (*Result, error) {
	return s.handle(ctx, userSeed, amount, s.cfg.WithdrawalFeeBps, fees.ScheduleWithdrawal)
}

func (s *Service) handle(ctx context.Context, userSeed, amount string, feeBps int64, scheduleName string) (*Result, error) {
	if strings.TrimSpace(userSeed) == "" {
		return nil, fmt.Errorf("%w: userSeed is required", ErrInvalidRequest)
	}
	user, err := xrpl.WalletFromSeed(userSeed)
	if err != nil {
		return nil, fmt.Errorf("%w: userSeed: %v", ErrInvalidRequest, err)
	}
	drops, err := xrpl.XRPToDrops(amount)
	if err != nil {
		return nil, fmt.Errorf("%w: amount: %v", ErrInvalidRequest, err)
	}
	if drops <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidRequest)
	}
	if s.cfg.Treasury == nil {
		return nil, ErrTreasuryUnavailable
	}

	schedule, err := s.distributor.Schedule(scheduleName)
	if err != nil {
		return nil, err
	}
	breakdown, err := fees.Split(drops, feeBps, schedule)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Account:   user.ClassicAddress,
		Amount:    xrpl.DropsToXRP(drops),
		Fee:       xrpl.DropsToXRP(breakdown.FeeDrops),
		NetAmount: xrpl.DropsToXRP(breakdown.NetDrops),
		NetDrops:  breakdown.NetDrops,
		Breakdown: breakdown,
	}

	receipt, err := s.distributor.Distribute(ctx, s.cfg.Treasury, scheduleName, breakdown.Allocations)
	result.Distribution = receipt
	if err != nil {
		return result, fmt.Errorf("distribute %s fee: %w", scheduleName, err)
	}

	s.log.WithContext(ctx).
		WithField("schedule", scheduleName).
		WithField("account", user.ClassicAddress).
		WithField("amount_drops", drops).
		WithField("fee_drops", breakdown.FeeDrops).
		Info("etf fee charged")
	return result, nil
}
