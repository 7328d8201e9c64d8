// Package governance runs the ETF allocation governance: proposals gated by a
// cooldown, fee-charged token-limited votes and delayed admin overrides.
//
// State lives in memory for the process lifetime only.
package governance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	domain "github.com/R3E-Network/xrpl_service_layer/internal/app/domain/governance"
	"github.com/R3E-Network/xrpl_service_layer/internal/app/metrics"
	"github.com/R3E-Network/xrpl_service_layer/internal/app/services/feedistribution"
	"github.com/R3E-Network/xrpl_service_layer/internal/fees"
	"github.com/R3E-Network/xrpl_service_layer/internal/xrpl"
	"github.com/R3E-Network/xrpl_service_layer/pkg/logger"
)

// User-facing messages are part of the API contract.
var (
	ErrCooldownActive  = errors.New("ETF is in cooldown period. New proposals are blocked.")
	ErrUnauthorized    = errors.New("Unauthorized admin.")
	ErrOverridePending = errors.New("Override delay not reached yet.")
	ErrVoteLimit       = errors.New("You can only vote once per governance token you hold.")
	ErrInvalidRequest  = errors.New("invalid request")
)

// Defaults.
const (
	DefaultCooldownPeriod    = 60 * 24 * time.Hour
	DefaultOverrideDelay     = 6 * time.Hour
	DefaultApprovalThreshold = 62.0
)

// FeeCharger collects the vote fee from the voter.
type FeeCharger interface {
	DistributeFlat(ctx context.Context, wallet *xrpl.Wallet, schedule string, feeDrops int64) (*feedistribution.Receipt, error)
}

// Config configures the service. Zero values select the defaults.
type Config struct {
	CooldownPeriod    time.Duration
	OverrideDelay     time.Duration
	ApprovalThreshold float64
	VoteFeeDrops      int64
	AdminAddresses    []string
	Balances          BalanceProvider
	Weigher           VoteWeigher
	Now               func() time.Time
}

// Service holds governance state.
type Service struct {
	cfg    Config
	fees   FeeCharger
	admins map[string]bool
	log    *logger.Logger

	mu          sync.Mutex
	cooldowns   map[string]time.Time
	overrides   map[string]time.Time
	votes       map[string]int
	inflight    map[string]int
	allocations map[string]json.RawMessage
	etfLocks    map[string]*sync.Mutex
}

// New creates the service with defaults for zero config values.
func New(charger FeeCharger, cfg Config, log *logger.Logger) *Service {
	if cfg.CooldownPeriod == 0 {
		cfg.CooldownPeriod = DefaultCooldownPeriod
	}
	if cfg.OverrideDelay == 0 {
		cfg.OverrideDelay = DefaultOverrideDelay
	}
	if cfg.ApprovalThreshold == 0 {
		cfg.ApprovalThreshold = DefaultApprovalThreshold
	}
	if cfg.VoteFeeDrops == 0 {
		cfg.VoteFeeDrops = fees.VoteFeeDrops
	}
	if cfg.Balances == nil {
		cfg.Balances = RandomBalances{}
	}
	if cfg.Weigher == nil {
		cfg.Weigher = RandomWeigher{}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if log == nil {
		log = logger.NewDefault("governance")
	}

	admins := make(map[string]bool, len(cfg.AdminAddresses))
	for _, addr := range cfg.AdminAddresses {
		if addr = strings.TrimSpace(addr); addr != "" {
			admins[addr] = true
		}
	}

	return &Service{
		cfg:         cfg,
		fees:        charger,
		admins:      admins,
		log:         log,
		cooldowns:   make(map[string]time.Time),
		overrides:   make(map[string]time.Time),
		votes:       make(map[string]int),
		inflight:    make(map[string]int),
		allocations: make(map[string]json.RawMessage),
		etfLocks:    make(map[string]*sync.Mutex),
	}
}

// =============================================================================
// Proposals and Votes
// =============================================================================

// ProposeETFChange puts a new allocation to a vote. An approved change is
// applied and starts the ETF's cooldown. The proposer's vote is the tally.
func (s *Service) ProposeETFChange(ctx context.Context, proposerSeed, etfID string, allocation json.RawMessage) (*domain.ProposalResult, error) {
	etfID = strings.TrimSpace(etfID)
	if etfID == "" {
		return nil, fmt.Errorf("%w: etfId is required", ErrInvalidRequest)
	}

	lock := s.etfLock(etfID)
	lock.Lock()
	defer lock.Unlock()

	if until, ok := s.cooldownUntil(etfID); ok {
		metrics.RecordGovernance("proposal", "cooldown")
		s.log.WithField("etf_id", etfID).WithField("cooldown_until", until).Info("proposal blocked by cooldown")
		return nil, ErrCooldownActive
	}

	vote, err := s.GovernanceVote(ctx, etfID, allocation, proposerSeed)
	if err != nil {
		return nil, err
	}

	result := &domain.ProposalResult{ETFID: etfID, Approval: vote.Approval}
	if vote.Approval < s.cfg.ApprovalThreshold {
		result.Outcome = domain.Outcome{
			Success: false,
			Message: fmt.Sprintf("Proposal did not reach %s%% approval.", formatPercent(s.cfg.ApprovalThreshold)),
		}
		metrics.RecordGovernance("proposal", "rejected")
		return result, nil
	}

	until := s.cfg.Now().Add(s.cfg.CooldownPeriod)
	s.mu.Lock()
	s.cooldowns[etfID] = until
	if len(allocation) > 0 {
		s.allocations[etfID] = append(json.RawMessage(nil), allocation...)
	}
	active := s.activeCooldownsLocked()
	s.mu.Unlock()
	metrics.SetActiveCooldowns(active)
	metrics.RecordGovernance("proposal", "approved")

	result.Outcome = domain.Outcome{Success: true, Message: "ETF change approved and applied. Cooldown started."}
	result.CooldownUntil = &until
	s.log.WithContext(ctx).
		WithField("etf_id", etfID).
		WithField("approval", vote.Approval).
		WithField("cooldown_until", until).
		Info("etf change approved")
	return result, nil
}

// GovernanceVote casts one vote for voterSeed's address. Each address may vote
// as many times as it holds governance tokens; every vote pays the vote fee.
func (s *Service) GovernanceVote(ctx context.Context, etfID string, allocation json.RawMessage, voterSeed string) (*domain.VoteResult, error) {
	if strings.TrimSpace(voterSeed) == "" {
		return nil, fmt.Errorf("%w: voterSeed is required", ErrInvalidRequest)
	}
	wallet, err := xrpl.WalletFromSeed(voterSeed)
	if err != nil {
		return nil, fmt.Errorf("%w: voterSeed: %v", ErrInvalidRequest, err)
	}
	voter := wallet.ClassicAddress

	balance, err := s.cfg.Balances.GovernanceTokenBalance(ctx, voter)
	if err != nil {
		return nil, fmt.Errorf("governance token balance: %w", err)
	}

	// Reserve the vote before paying so concurrent votes cannot overshoot.
	s.mu.Lock()
	if s.votes[voter]+s.inflight[voter] >= balance {
		s.mu.Unlock()
		metrics.RecordGovernance("vote", "limit")
		return nil, ErrVoteLimit
	}
	s.inflight[voter]++
	s.mu.Unlock()

	_, feeErr := s.fees.DistributeFlat(ctx, wallet, fees.ScheduleGovernance, s.cfg.VoteFeeDrops)

	s.mu.Lock()
	s.inflight[voter]--
	if s.inflight[voter] <= 0 {
		delete(s.inflight, voter)
	}
	if feeErr == nil {
		s.votes[voter]++
	}
	cast := s.votes[voter]
	s.mu.Unlock()

	if feeErr != nil {
		metrics.RecordGovernance("vote", "fee_failed")
		return nil, fmt.Errorf("vote fee: %w", feeErr)
	}

	approval, err := s.cfg.Weigher.Approval(ctx, etfID, allocation)
	if err != nil {
		return nil, fmt.Errorf("tally vote: %w", err)
	}
	metrics.RecordGovernance("vote", "accepted")

	return &domain.VoteResult{
		ETFID:      etfID,
		Voter:      voter,
		Approval:   approval,
		VotesCast:  cast,
		TokenLimit: balance,
	}, nil
}

// =============================================================================
// Admin Overrides
// =============================================================================

// RequestAdminOverride schedules an override for etfID after the override delay.
// The global flag only matters when the override is applied.
func (s *Service) RequestAdminOverride(ctx context.Context, adminSeed, etfID string, global bool) (*domain.Outcome, error) {
	admin, err := s.authorize(adminSeed)
	if err != nil {
		metrics.RecordGovernance("override_request", "unauthorized")
		return nil, err
	}
	etfID = strings.TrimSpace(etfID)
	if etfID == "" && !global {
		return nil, fmt.Errorf("%w: etfId is required", ErrInvalidRequest)
	}

	effective := s.cfg.Now().Add(s.cfg.OverrideDelay)
	s.mu.Lock()
	s.overrides[etfID] = effective
	s.mu.Unlock()
	metrics.RecordGovernance("override_request", "accepted")

	s.log.WithContext(ctx).
		WithField("admin", admin).
		WithField("etf_id", etfID).
		WithField("global", global).
		WithField("effective_at", effective).
		Info("admin override requested")
	return &domain.Outcome{
		Success: true,
		Message: fmt.Sprintf("Override request accepted. It will take effect in %s.", formatDelay(s.cfg.OverrideDelay)),
	}, nil
}

// ApplyAdminOverride clears the cooldown of etfID, or of every ETF when
// global is set, once the pending request for etfID is due.
func (s *Service) ApplyAdminOverride(ctx context.Context, adminSeed, etfID string, global bool) (*domain.Outcome, error) {
	admin, err := s.authorize(adminSeed)
	if err != nil {
		metrics.RecordGovernance("override_apply", "unauthorized")
		return nil, err
	}
	etfID = strings.TrimSpace(etfID)

	now := s.cfg.Now()
	s.mu.Lock()
	effective, ok := s.overrides[etfID]
	if !ok || now.Before(effective) {
		s.mu.Unlock()
		metrics.RecordGovernance("override_apply", "not_ready")
		return nil, ErrOverridePending
	}
	if global {
		s.cooldowns = make(map[string]time.Time)
	} else {
		delete(s.cooldowns, etfID)
	}
	delete(s.overrides, etfID)
	active := s.activeCooldownsLocked()
	s.mu.Unlock()
	metrics.SetActiveCooldowns(active)
	metrics.RecordGovernance("override_apply", "applied")

	target := "ETF " + etfID
	if global {
		target = "All ETFs"
	}
	s.log.WithContext(ctx).
		WithField("admin", admin).
		WithField("etf_id", etfID).
		WithField("global", global).
		Info("admin override applied")
	return &domain.Outcome{
		Success: true,
		Message: fmt.Sprintf("Admin override applied. %s unlocked for new proposals.", target),
	}, nil
}

func (s *Service) authorize(adminSeed string) (string, error) {
	if strings.TrimSpace(adminSeed) == "" {
		return "", fmt.Errorf("%w: adminSeed is required", ErrInvalidRequest)
	}
	wallet, err := xrpl.WalletFromSeed(adminSeed)
	if err != nil {
		return "", fmt.Errorf("%w: adminSeed: %v", ErrInvalidRequest, err)
	}
	if !s.admins[wallet.ClassicAddress] {
		s.log.WithField("address", wallet.ClassicAddress).Warn("unauthorized admin override attempt")
		return "", ErrUnauthorized
	}
	return wallet.ClassicAddress, nil
}

// =============================================================================
// State
// =============================================================================

// ETFStatus reports the governance state of one ETF.
func (s *Service) ETFStatus(etfID string) domain.ETFStatus {
	now := s.cfg.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	status := domain.ETFStatus{ETFID: etfID}
	if until, ok := s.cooldowns[etfID]; ok && now.Before(until) {
		u := until
		status.InCooldown = true
		status.CooldownUntil = &u
	}
	if at, ok := s.overrides[etfID]; ok {
		a := at
		status.OverridePending = true
		status.OverrideAt = &a
	}
	if alloc, ok := s.allocations[etfID]; ok {
		status.Allocation = append(json.RawMessage(nil), alloc...)
	}
	return status
}

// VotesCast returns how many paid votes an address has cast.
func (s *Service) VotesCast(address string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.votes[address]
}

// Sweep drops expired cooldowns and returns how many were removed. An expired
// cooldown and a missing one behave the same; this only bounds memory.
func (s *Service) Sweep() int {
	now := s.cfg.Now()
	s.mu.Lock()
	removed := 0
	for id, until := range s.cooldowns {
		if !now.Before(until) {
			delete(s.cooldowns, id)
			removed++
		}
	}
	active := len(s.cooldowns)
	s.mu.Unlock()

	metrics.SetActiveCooldowns(active)
	if removed > 0 {
		s.log.WithField("removed", removed).WithField("active", active).Debug("expired cooldowns swept")
	}
	return removed
}

func (s *Service) cooldownUntil(etfID string) (time.Time, bool) {
	now := s.cfg.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	until, ok := s.cooldowns[etfID]
	if !ok || !now.Before(until) {
		return time.Time{}, false
	}
	return until, true
}

func (s *Service) activeCooldownsLocked() int {
	now := s.cfg.Now()
	n := 0
	for _, until := range s.cooldowns {
		if now.Before(until) {
			n++
		}
	}
	return n
}

func (s *Service) etfLock(etfID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.etfLocks[etfID]
	if !ok {
		lock = &sync.Mutex{}
		s.etfLocks[etfID] = lock
	}
	return lock
}

func formatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// formatDelay renders whole hours as "6 hours"; anything else uses Duration.String.
func formatDelay(d time.Duration) string {
	if d > 0 && d%time.Hour == 0 {
		hours := int(d / time.Hour)
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	}
	return d.String()
}
