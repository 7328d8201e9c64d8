// Package config loads the gateway configuration from the environment.
//
// A .env file in the working directory is read first when present; variables
// already set in the process environment win.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"

	"github.com/R3E-Network/xrpl_service_layer/internal/fees"
)

// Config is the process configuration.
type Config struct {
	Port        int    `env:"PORT,default=5000"`
	XRPLNode    string `env:"XRPL_NODE,default=wss://s.altnet.rippletest.net:51233"`
	DatabaseURL string `env:"DATABASE_URL"`

	LogLevel  string `env:"LOG_LEVEL,default=info"`
	LogFormat string `env:"LOG_FORMAT,default=json"`

	StakingPoolAddress      string `env:"STAKING_POOL_ADDRESS"`
	LiquidityPoolAddress    string `env:"LIQUIDITY_POOL_ADDRESS"`
	GovernanceWalletAddress string `env:"GOVERNANCE_WALLET_ADDRESS"`
	GovernanceWalletSeed    string `env:"GOVERNANCE_WALLET_SEED"`

	// Comma separated, as in the deployed .env files.
	AdminAddressList string `env:"ADMIN_ADDRESSES"`

	// Fee category destinations, named <CATEGORY>_ADDRESS.
	LiquidityPoolFeeAddress string `env:"LIQUIDITYPOOL_ADDRESS"`
	DevelopmentFeeAddress   string `env:"DEVELOPMENT_ADDRESS"`
	GovernanceFeeAddress    string `env:"GOVERNANCE_ADDRESS"`
	BuybacksFeeAddress      string `env:"BUYBACKS_ADDRESS"`

	FeeScheduleFile string `env:"FEE_SCHEDULE_FILE"`

	CooldownPeriod      time.Duration `env:"GOVERNANCE_COOLDOWN,default=1440h"`
	OverrideDelay       time.Duration `env:"GOVERNANCE_OVERRIDE_DELAY,default=6h"`
	ApprovalThreshold   float64       `env:"GOVERNANCE_APPROVAL_THRESHOLD,default=62"`
	GovernanceSweepCron string        `env:"GOVERNANCE_SWEEP_SCHEDULE,default=@every 1h"`
	LedgerTimeout       time.Duration `env:"XRPL_TIMEOUT,default=30s"`
	LedgerPollInterval  time.Duration `env:"XRPL_POLL_INTERVAL,default=1s"`
	CORSAllowedOrigins  string        `env:"CORS_ALLOWED_ORIGINS,default=*"`
	RateLimitRPS        float64       `env:"RATE_LIMIT_RPS,default=10"`
	RateLimitBurst      int           `env:"RATE_LIMIT_BURST,default=20"`
	ShutdownGracePeriod time.Duration `env:"SHUTDOWN_GRACE_PERIOD,default=15s"`
	SubmissionListLimit int           `env:"SUBMISSION_LIST_LIMIT,default=100"`
}

// Load reads .env (if any) and decodes the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv decodes the process environment without touching .env files.
func FromEnv() (*Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that have no sensible fallback.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: PORT %d out of range", c.Port)
	}
	if strings.TrimSpace(c.XRPLNode) == "" {
		return fmt.Errorf("config: XRPL_NODE required")
	}
	// The governance service reads zero as "use the default", so zero is rejected here.
	if c.ApprovalThreshold <= 0 || c.ApprovalThreshold > 100 {
		return fmt.Errorf("config: GOVERNANCE_APPROVAL_THRESHOLD must be within (0, 100]")
	}
	if c.CooldownPeriod <= 0 {
		return fmt.Errorf("config: GOVERNANCE_COOLDOWN must be positive")
	}
	if c.OverrideDelay <= 0 {
		return fmt.Errorf("config: GOVERNANCE_OVERRIDE_DELAY must be positive")
	}
	if c.RateLimitRPS < 0 || c.RateLimitBurst < 0 {
		return fmt.Errorf("config: rate limits must not be negative")
	}
	return nil
}

// AdminAddresses returns ADMIN_ADDRESSES split on commas, blanks dropped.
func (c *Config) AdminAddresses() []string {
	return splitList(c.AdminAddressList)
}

// AllowedOrigins returns CORS_ALLOWED_ORIGINS split on commas.
func (c *Config) AllowedOrigins() []string {
	return splitList(c.CORSAllowedOrigins)
}

// FeeAddresses maps fee categories to their destination addresses.
func (c *Config) FeeAddresses() map[string]string {
	out := map[string]string{}
	for category, addr := range map[string]string{
		fees.CategoryLiquidityPool: c.LiquidityPoolFeeAddress,
		fees.CategoryDevelopment:   c.DevelopmentFeeAddress,
		fees.CategoryGovernance:    c.GovernanceFeeAddress,
		fees.CategoryBuybacks:      c.BuybacksFeeAddress,
	} {
		if addr = strings.TrimSpace(addr); addr != "" {
			out[category] = addr
		}
	}
	return out
}

// FeeAddress resolves the destination of any category, including ones added by
// a schedule file, from <CATEGORY>_ADDRESS.
func (c *Config) FeeAddress(category string) string {
	if addr, ok := c.FeeAddresses()[category]; ok {
		return addr
	}
	return strings.TrimSpace(os.Getenv(fees.AddressEnvKey(category)))
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
