// Package feedistribution pays a fee out to its schedule's categories, one
// XRP payment per category, in schedule order.
package feedistribution

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/R3E-Network/xrpl_service_layer/internal/app/domain/submission"
	"github.com/R3E-Network/xrpl_service_layer/internal/app/metrics"
	"github.com/R3E-Network/xrpl_service_layer/internal/fees"
	"github.com/R3E-Network/xrpl_service_layer/internal/xrpl"
	"github.com/R3E-Network/xrpl_service_layer/pkg/logger"
)

// ErrMissingAddress means a category has no configured destination.
var ErrMissingAddress = errors.New("fee category address not configured")

// Submitter sends a transaction to the ledger and waits for validation.
type Submitter interface {
	Submit(ctx context.Context, kind submission.Kind, wallet *xrpl.Wallet, tx *xrpl.Transaction) (*xrpl.SubmitResult, error)
}

// AddressBook resolves a fee category to its destination address.
type AddressBook interface {
	FeeAddress(category string) string
}

// StaticAddressBook is an AddressBook backed by a map.
type StaticAddressBook map[string]string

func (b StaticAddressBook) FeeAddress(category string) string { return b[category] }

// Payment is one category payout.
type Payment struct {
	Category     string `json:"category"`
	Destination  string `json:"destination"`
	Drops        int64  `json:"drops"`
	XRP          string `json:"xrp"`
	Hash         string `json:"hash,omitempty"`
	EngineResult string `json:"engineResult,omitempty"`
}

// Receipt lists the payments made for one distribution.
type Receipt struct {
	Schedule string    `json:"schedule"`
	From     string    `json:"from"`
	FeeDrops int64     `json:"feeDrops"`
	Payments []Payment `json:"payments"`
}

// DistributionError reports the category whose payment failed. Payments before
// it in schedule order were already made and are listed in the receipt.
type DistributionError struct {
	Category string
	Err      error
}

func (e *DistributionError) Error() string {
	return fmt.Sprintf("fee payment to %s failed: %v", e.Category, e.Err)
}

func (e *DistributionError) Unwrap() error { return e.Err }

// Service distributes fees.
type Service struct {
	submitter Submitter
	addresses AddressBook
	schedules map[string]fees.Schedule
	log       *logger.Logger
}

// New creates the service. A nil schedules map selects the defaults.
func New(submitter Submitter, addresses AddressBook, schedules map[string]fees.Schedule, log *logger.Logger) *Service {
	if schedules == nil {
		schedules = fees.DefaultSchedules()
	}
	if log == nil {
		log = logger.NewDefault("feedistribution")
	}
	return &Service{submitter: submitter, addresses: addresses, schedules: schedules, log: log}
}

// Schedule returns a schedule by name.
func (s *Service) Schedule(name string) (fees.Schedule, error) {
	schedule, ok := s.schedules[name]
	if !ok {
		return fees.Schedule{}, fmt.Errorf("%w: %s", fees.ErrUnknownSchedule, name)
	}
	return schedule, nil
}

// Schedules returns every schedule sorted by name.
func (s *Service) Schedules() []fees.Schedule {
	out := make([]fees.Schedule, 0, len(s.schedules))
	for _, schedule := range s.schedules {
		out = append(out, schedule)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Validate checks that every category of every schedule has an address.
func (s *Service) Validate() error {
	var missing []string
	for _, schedule := range s.Schedules() {
		for _, category := range schedule.Categories() {
			if strings.TrimSpace(s.addresses.FeeAddress(category)) == "" {
				missing = append(missing, fees.AddressEnvKey(category))
			}
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingAddress, strings.Join(dedupe(missing), ", "))
	}
	return nil
}

// DistributeFlat splits a fixed fee per schedule and pays it from wallet.
func (s *Service) DistributeFlat(ctx context.Context, wallet *xrpl.Wallet, scheduleName string, feeDrops int64) (*Receipt, error) {
	schedule, err := s.Schedule(scheduleName)
	if err != nil {
		return nil, err
	}
	allocations, err := fees.Allocate(feeDrops, schedule)
	if err != nil {
		return nil, err
	}
	return s.Distribute(ctx, wallet, scheduleName, allocations)
}

// Distribute pays each allocation from wallet in order. Zero allocations are
// skipped. It stops at the first failed or non-successful payment.
func (s *Service) Distribute(ctx context.Context, wallet *xrpl.Wallet, scheduleName string, allocations []fees.Allocation) (*Receipt, error) {
	if wallet == nil {
		return nil, xrpl.ErrMissingWallet
	}

	// Resolve every destination before paying anything.
	destinations := make(map[string]string, len(allocations))
	for _, alloc := range allocations {
		if alloc.Drops <= 0 {
			continue
		}
		addr := strings.TrimSpace(s.addresses.FeeAddress(alloc.Category))
		if addr == "" {
			return nil, fmt.Errorf("%w: %s", ErrMissingAddress, fees.AddressEnvKey(alloc.Category))
		}
		destinations[alloc.Category] = addr
	}

	receipt := &Receipt{
		Schedule: scheduleName,
		From:     wallet.ClassicAddress,
		FeeDrops: fees.Total(allocations),
		Payments: make([]Payment, 0, len(destinations)),
	}

	for _, alloc := range allocations {
		if alloc.Drops <= 0 {
			continue
		}
		dest := destinations[alloc.Category]
		tx := xrpl.NewPayment(wallet.ClassicAddress, dest, xrpl.XRPAmount(alloc.Drops))
		res, err := s.submitter.Submit(ctx, submission.KindFeeDistribution, wallet, tx)
		if err != nil {
			return receipt, &DistributionError{Category: alloc.Category, Err: err}
		}
		if !res.Succeeded() {
			return receipt, &DistributionError{Category: alloc.Category, Err: fmt.Errorf("engine result %s", res.EngineResult)}
		}

		metrics.RecordFeePayment(scheduleName, alloc.Category, alloc.Drops)
		receipt.Payments = append(receipt.Payments, Payment{
			Category:     alloc.Category,
			Destination:  dest,
			Drops:        alloc.Drops,
			XRP:          xrpl.DropsToXRP(alloc.Drops),
			Hash:         res.Hash,
			EngineResult: res.EngineResult,
		})
	}

	s.log.WithContext(ctx).
		WithField("schedule", scheduleName).
		WithField("from", wallet.ClassicAddress).
		WithField("fee_drops", receipt.FeeDrops).
		WithField("payments", len(receipt.Payments)).
		Info("fees distributed successfully")
	return receipt, nil
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, v := range in {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
