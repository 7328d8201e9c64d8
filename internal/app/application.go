package app

import (
	"context"
	"fmt"

	"github.com/R3E-Network/xrpl_service_layer/internal/app/services/etf"
	"github.com/R3E-Network/xrpl_service_layer/internal/app/services/feedistribution"
	"github.com/R3E-Network/xrpl_service_layer/internal/app/services/governance"
	"github.com/R3E-Network/xrpl_service_layer/internal/app/services/ledgerops"
	"github.com/R3E-Network/xrpl_service_layer/internal/app/services/txsubmitter"
	"github.com/R3E-Network/xrpl_service_layer/internal/app/storage"
	"github.com/R3E-Network/xrpl_service_layer/internal/app/storage/memory"
	"github.com/R3E-Network/xrpl_service_layer/internal/app/system"
	"github.com/R3E-Network/xrpl_service_layer/internal/config"
	"github.com/R3E-Network/xrpl_service_layer/internal/xrpl"
	"github.com/R3E-Network/xrpl_service_layer/pkg/logger"
)

// Dependencies are the external collaborators of the application. A nil
// Store defaults to the in-memory journal; nil governance providers default
// to the random placeholders.
type Dependencies struct {
	Ledger   txsubmitter.Ledger
	Store    storage.SubmissionStore
	Balances governance.BalanceProvider
	Weigher  governance.VoteWeigher
}

// Application ties domain services together and manages their lifecycle.
type Application struct {
	manager *system.Manager
	log     *logger.Logger
	cfg     *config.Config

	Submissions *txsubmitter.Service
	Ledger      *ledgerops.Service
	Fees        *feedistribution.Service
	ETF         *etf.Service
	Governance  *governance.Service
}

// New builds a fully initialised application.
func New(cfg *config.Config, deps Dependencies, log *logger.Logger) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app: config required")
	}
	if deps.Ledger == nil {
		return nil, fmt.Errorf("app: ledger required")
	}
	if log == nil {
		log = logger.NewDefault("app")
	}
	if deps.Store == nil {
		deps.Store = memory.New(memory.DefaultCapacity)
	}

	schedules, err := cfg.FeeSchedules()
	if err != nil {
		return nil, fmt.Errorf("load fee schedules: %w", err)
	}

	submitter := txsubmitter.New(deps.Ledger, deps.Store, log.Named("txsubmitter"))
	ledgerSvc := ledgerops.New(submitter, ledgerops.Config{
		StakingPoolAddress:      cfg.StakingPoolAddress,
		LiquidityPoolAddress:    cfg.LiquidityPoolAddress,
		GovernanceWalletAddress: cfg.GovernanceWalletAddress,
	}, log.Named("ledgerops"))

	feeSvc := feedistribution.New(submitter, cfg, schedules, log.Named("fees"))
	if err := feeSvc.Validate(); err != nil {
		log.WithError(err).Warn("fee distribution incomplete; affected payments will fail")
	}

	treasury, err := etf.TreasuryFromSeed(cfg.GovernanceWalletSeed)
	if err != nil {
		log.WithError(err).Warn("ETF deposits and withdrawals disabled")
		treasury = nil
	} else if cfg.GovernanceWalletAddress != "" && treasury.ClassicAddress != cfg.GovernanceWalletAddress {
		log.WithField("derived", treasury.ClassicAddress).
			WithField("configured", cfg.GovernanceWalletAddress).
			Warn("GOVERNANCE_WALLET_SEED does not match GOVERNANCE_WALLET_ADDRESS")
	}
	etfSvc := etf.New(feeSvc, etf.Config{Treasury: treasury}, log.Named("etf"))

	govSvc := governance.New(feeSvc, governance.Config{
		CooldownPeriod:    cfg.CooldownPeriod,
		OverrideDelay:     cfg.OverrideDelay,
		ApprovalThreshold: cfg.ApprovalThreshold,
		AdminAddresses:    cfg.AdminAddresses(),
		Balances:          deps.Balances,
		Weigher:           deps.Weigher,
	}, log.Named("governance"))
	if len(cfg.AdminAddresses()) == 0 {
		log.Warn("ADMIN_ADDRESSES not set; admin overrides will be rejected")
	}

	manager := system.NewManager(log.Named("system"))
	services := []system.Service{governance.NewSweeper(govSvc, cfg.GovernanceSweepCron, log.Named("governance-sweeper"))}
	if conn, ok := deps.Ledger.(Connector); ok {
		services = append([]system.Service{NewLedgerConnection(conn, log.Named("xrpl"))}, services...)
	}
	for _, svc := range services {
		if err := manager.Register(svc); err != nil {
			return nil, fmt.Errorf("register %s: %w", svc.Name(), err)
		}
	}

	return &Application{
		manager:     manager,
		log:         log,
		cfg:         cfg,
		Submissions: submitter,
		Ledger:      ledgerSvc,
		Fees:        feeSvc,
		ETF:         etfSvc,
		Governance:  govSvc,
	}, nil
}

// Config returns the configuration the application was built with.
func (a *Application) Config() *config.Config { return a.cfg }

// Attach registers an additional lifecycle-managed service. Call before Start.
func (a *Application) Attach(service system.Service) error {
	return a.manager.Register(service)
}

// Start begins all registered services.
func (a *Application) Start(ctx context.Context) error {
	return a.manager.Start(ctx)
}

// Stop stops all services.
func (a *Application) Stop(ctx context.Context) error {
	return a.manager.Stop(ctx)
}

// Services lists the registered lifecycle services.
func (a *Application) Services() []string {
	return a.manager.Services()
}

// =============================================================================
// Ledger connection
// =============================================================================

// Connector is implemented by ledger clients holding a connection.
type Connector interface {
	Connect(ctx context.Context) (*xrpl.ServerInfo, error)
	Close() error
}

// LedgerConnection opens the ledger connection at start and closes it at stop.
type LedgerConnection struct {
	conn Connector
	log  *logger.Logger
}

// NewLedgerConnection wraps conn as a lifecycle service.
func NewLedgerConnection(conn Connector, log *logger.Logger) *LedgerConnection {
	if log == nil {
		log = logger.NewDefault("xrpl")
	}
	return &LedgerConnection{conn: conn, log: log}
}

func (l *LedgerConnection) Name() string { return "xrpl-connection" }

// Start connects once. An unreachable node is logged, not fatal: requests
// re-dial on demand.
func (l *LedgerConnection) Start(ctx context.Context) error {
	if _, err := l.conn.Connect(ctx); err != nil {
		l.log.WithError(err).Warn("XRPL node unreachable at startup")
	}
	return nil
}

func (l *LedgerConnection) Stop(context.Context) error {
	return l.conn.Close()
}
