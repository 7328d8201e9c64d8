// Package ledgerops implements the four ledger operations exposed by the
// gateway: token issuance, staking, liquidity contribution and proposal voting.
// Each one builds a single Payment and hands it to the submitter.
package ledgerops

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/R3E-Network/xrpl_service_layer/internal/app/domain/submission"
	"github.com/R3E-Network/xrpl_service_layer/internal/xrpl"
	"github.com/R3E-Network/xrpl_service_layer/pkg/logger"
)

var (
	// ErrInvalidRequest marks caller mistakes; the HTTP layer answers 400.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrNotConfigured means a destination address is missing from the environment.
	ErrNotConfigured = errors.New("destination not configured")
)

// Submitter sends a transaction to the ledger and waits for validation.
type Submitter interface {
	Submit(ctx context.Context, kind submission.Kind, wallet *xrpl.Wallet, tx *xrpl.Transaction) (*xrpl.SubmitResult, error)
}

// Config holds the fixed destinations.
type Config struct {
	StakingPoolAddress      string
	LiquidityPoolAddress    string
	GovernanceWalletAddress string
}

// Service implements the ledger operations.
type Service struct {
	submitter Submitter
	cfg       Config
	log       *logger.Logger
}

// New creates the service.
func New(submitter Submitter, cfg Config, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("ledgerops")
	}
	return &Service{submitter: submitter, cfg: cfg, log: log}
}

// CreateTokenRequest issues TotalSupply units of TokenSymbol from the issuer.
type CreateTokenRequest struct {
	IssuerSeed  string
	TokenName   string
	TokenSymbol string
	TotalSupply string
	// Destination receives the supply; the issuer itself when empty.
	Destination string
}

// StakeRequest moves Amount of the staker's TokenSymbol to the staking pool.
type StakeRequest struct {
	StakerSeed  string
	TokenSymbol string
	Amount      string
}

// LiquidityRequest moves Amount of the provider's TokenSymbol to the liquidity pool.
type LiquidityRequest struct {
	ProviderSeed string
	TokenSymbol  string
	Amount       string
}

// VoteRequest records a vote on ProposalID by paying the governance wallet.
type VoteRequest struct {
	VoterSeed  string
	ProposalID string
	Vote       string
}

// CreateToken sends an issued-currency Payment of the full supply.
func (s *Service) CreateToken(ctx context.Context, req CreateTokenRequest) (*xrpl.SubmitResult, error) {
	wallet, err := walletFor("issuerSeed", req.IssuerSeed)
	if err != nil {
		return nil, err
	}
	amount, err := issuedAmount(req.TokenSymbol, wallet.ClassicAddress, "totalSupply", req.TotalSupply)
	if err != nil {
		return nil, err
	}

	destination := strings.TrimSpace(req.Destination)
	if destination == "" {
		destination = wallet.ClassicAddress
	} else if !xrpl.IsValidClassicAddress(destination) {
		return nil, fmt.Errorf("%w: destination %q is not a classic address", ErrInvalidRequest, destination)
	}

	s.log.WithContext(ctx).
		WithField("issuer", wallet.ClassicAddress).
		WithField("token_name", req.TokenName).
		WithField("token_symbol", req.TokenSymbol).
		Info("creating token")

	tx := xrpl.NewPayment(wallet.ClassicAddress, destination, amount)
	return s.submitter.Submit(ctx, submission.KindCreateToken, wallet, tx)
}

// Stake pays the staker's tokens into the staking pool.
func (s *Service) Stake(ctx context.Context, req StakeRequest) (*xrpl.SubmitResult, error) {
	wallet, err := walletFor("stakerSeed", req.StakerSeed)
	if err != nil {
		return nil, err
	}
	amount, err := issuedAmount(req.TokenSymbol, wallet.ClassicAddress, "amount", req.Amount)
	if err != nil {
		return nil, err
	}
	destination, err := configured("STAKING_POOL_ADDRESS", s.cfg.StakingPoolAddress)
	if err != nil {
		return nil, err
	}

	tx := xrpl.NewPayment(wallet.ClassicAddress, destination, amount)
	return s.submitter.Submit(ctx, submission.KindStake, wallet, tx)
}

// ContributeLiquidity pays the provider's tokens into the liquidity pool.
func (s *Service) ContributeLiquidity(ctx context.Context, req LiquidityRequest) (*xrpl.SubmitResult, error) {
	wallet, err := walletFor("providerSeed", req.ProviderSeed)
	if err != nil {
		return nil, err
	}
	amount, err := issuedAmount(req.TokenSymbol, wallet.ClassicAddress, "amount", req.Amount)
	if err != nil {
		return nil, err
	}
	destination, err := configured("LIQUIDITY_POOL_ADDRESS", s.cfg.LiquidityPoolAddress)
	if err != nil {
		return nil, err
	}

	tx := xrpl.NewPayment(wallet.ClassicAddress, destination, amount)
	return s.submitter.Submit(ctx, submission.KindLiquidity, wallet, tx)
}

// Vote pays one drop for "yes" and zero drops otherwise, with the proposal id
// as memo. The ledger rejects zero-drop payments; that rejection is returned
// as is.
func (s *Service) Vote(ctx context.Context, req VoteRequest) (*xrpl.SubmitResult, error) {
	wallet, err := walletFor("voterSeed", req.VoterSeed)
	if err != nil {
		return nil, err
	}
	proposalID := strings.TrimSpace(req.ProposalID)
	if proposalID == "" {
		return nil, fmt.Errorf("%w: proposalId is required", ErrInvalidRequest)
	}
	destination, err := configured("GOVERNANCE_WALLET_ADDRESS", s.cfg.GovernanceWalletAddress)
	if err != nil {
		return nil, err
	}

	var drops int64
	if req.Vote == "yes" {
		drops = 1
	}
	tx := xrpl.NewPayment(wallet.ClassicAddress, destination, xrpl.XRPAmount(drops)).
		WithMemo(xrpl.NewMemo(proposalID))
	return s.submitter.Submit(ctx, submission.KindVote, wallet, tx)
}

func walletFor(field, seed string) (*xrpl.Wallet, error) {
	if strings.TrimSpace(seed) == "" {
		return nil, fmt.Errorf("%w: %s is required", ErrInvalidRequest, field)
	}
	wallet, err := xrpl.WalletFromSeed(seed)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidRequest, field, err)
	}
	return wallet, nil
}

func issuedAmount(symbol, issuer, field, value string) (xrpl.Amount, error) {
	currency, err := xrpl.EncodeCurrency(symbol)
	if err != nil {
		return xrpl.Amount{}, fmt.Errorf("%w: tokenSymbol: %v", ErrInvalidRequest, err)
	}
	v, err := xrpl.ValidateIssuedValue(value)
	if err != nil {
		return xrpl.Amount{}, fmt.Errorf("%w: %s: %v", ErrInvalidRequest, field, err)
	}
	return xrpl.IssuedCurrencyAmount(currency, issuer, v), nil
}

func configured(name, address string) (string, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return "", fmt.Errorf("%w: %s is not set", ErrNotConfigured, name)
	}
	return address, nil
}
