package xrpl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"

	"github.com/R3E-Network/xrpl_service_layer/pkg/logger"
)

var (
	// ErrTransactionExpired means the validated ledger passed the transaction's
	// LastLedgerSequence without including it.
	ErrTransactionExpired = errors.New("xrpl: transaction expired before validation")
	ErrMissingWallet      = errors.New("xrpl: wallet required")
)

// EngineError is a preliminary engine result that can never succeed
// (tem, tef and tel classes).
type EngineError struct {
	Result  string
	Message string
	Hash    string
}

func (e *EngineError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("xrpl: transaction rejected: %s: %s", e.Result, e.Message)
	}
	return fmt.Sprintf("xrpl: transaction rejected: %s", e.Result)
}

// Defaults applied by NewClient.
const (
	DefaultLedgerOffset uint32 = 20
	DefaultMaxFeeDrops  int64  = 2_000_000
	DefaultPollInterval        = time.Second

	// Networks with an id above this value require NetworkID on every transaction.
	restrictedNetworkID uint32 = 1024
)

// Config holds client configuration.
type Config struct {
	URL          string
	Timeout      time.Duration
	PollInterval time.Duration
	LedgerOffset uint32
	MaxFeeDrops  int64
	HTTPClient   *http.Client
	Logger       *logger.Logger
	// Retry applies to every method except submit; nil uses DefaultRetryConfig.
	Retry *RetryConfig
}

// ServerInfo is the part of server_info the gateway reports.
type ServerInfo struct {
	BuildVersion    string `json:"build_version"`
	NetworkID       uint32 `json:"network_id"`
	ServerState     string `json:"server_state"`
	ValidatedLedger uint32 `json:"validated_ledger"`
}

// Client talks to one rippled node.
type Client struct {
	transport    transport
	url          string
	pollInterval time.Duration
	ledgerOffset uint32
	maxFeeDrops  int64
	retry        RetryConfig
	log          *logger.Logger

	mu        sync.RWMutex
	networkID *uint32
}

// NewClient creates a client for cfg.URL. No connection is opened until the
// first call or Connect.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, fmt.Errorf("xrpl: node url required")
	}

	tr, err := newTransport(cfg.URL, cfg.Timeout, cfg.HTTPClient)
	if err != nil {
		return nil, err
	}

	c := &Client{
		transport:    tr,
		url:          cfg.URL,
		pollInterval: cfg.PollInterval,
		ledgerOffset: cfg.LedgerOffset,
		maxFeeDrops:  cfg.MaxFeeDrops,
		log:          cfg.Logger,
	}
	if c.pollInterval <= 0 {
		c.pollInterval = DefaultPollInterval
	}
	if c.ledgerOffset == 0 {
		c.ledgerOffset = DefaultLedgerOffset
	}
	if c.maxFeeDrops <= 0 {
		c.maxFeeDrops = DefaultMaxFeeDrops
	}
	if c.log == nil {
		c.log = logger.NewDefault("xrpl")
	}
	c.retry = DefaultRetryConfig()
	if cfg.Retry != nil {
		c.retry = *cfg.Retry
	}
	return c, nil
}

// URL returns the node endpoint.
func (c *Client) URL() string { return c.url }

// =============================================================================
// Core RPC Methods
// =============================================================================

// Call sends a raw request and returns the result object. Transport failures
// are retried for every method but submit.
func (c *Client) Call(ctx context.Context, method string, params map[string]interface{}) (json.RawMessage, error) {
	if method == "submit" {
		return c.transport.call(ctx, method, params)
	}
	return withRetry(ctx, c.retry, func() (json.RawMessage, error) {
		return c.transport.call(ctx, method, params)
	})
}

// Connect verifies the node is reachable and caches its network id.
func (c *Client) Connect(ctx context.Context) (*ServerInfo, error) {
	info, err := c.ServerInfo(ctx)
	if err != nil {
		return nil, err
	}
	c.log.WithFields(map[string]interface{}{
		"node":          c.url,
		"build_version": info.BuildVersion,
		"network_id":    info.NetworkID,
		"server_state":  info.ServerState,
	}).Info("connected to XRPL")
	return info, nil
}

// ServerInfo returns the node's server_info summary.
func (c *Client) ServerInfo(ctx context.Context) (*ServerInfo, error) {
	raw, err := c.Call(ctx, "server_info", nil)
	if err != nil {
		return nil, err
	}
	res := gjson.ParseBytes(raw).Get("info")
	info := &ServerInfo{
		BuildVersion:    res.Get("build_version").String(),
		NetworkID:       uint32(res.Get("network_id").Uint()),
		ServerState:     res.Get("server_state").String(),
		ValidatedLedger: uint32(res.Get("validated_ledger.seq").Uint()),
	}

	c.mu.Lock()
	id := info.NetworkID
	c.networkID = &id
	c.mu.Unlock()
	return info, nil
}

// Close releases the transport.
func (c *Client) Close() error {
	return c.transport.close()
}

// =============================================================================
// Transaction Flow
// =============================================================================

// Autofill sets Sequence, Fee, LastLedgerSequence and, on restricted networks,
// NetworkID. Fields already set are left untouched.
func (c *Client) Autofill(ctx context.Context, tx *Transaction) error {
	if tx == nil {
		return fmt.Errorf("xrpl: nil transaction")
	}
	if !IsValidClassicAddress(tx.Account) {
		return fmt.Errorf("%w: account %q", ErrInvalidAddress, tx.Account)
	}

	if tx.Sequence == 0 {
		raw, err := c.Call(ctx, "account_info", map[string]interface{}{
			"account":      tx.Account,
			"ledger_index": "current",
		})
		if err != nil {
			return fmt.Errorf("account_info: %w", err)
		}
		tx.Sequence = uint32(gjson.GetBytes(raw, "account_data.Sequence").Uint())
	}

	if tx.Fee == "" {
		fee, err := c.suggestedFee(ctx)
		if err != nil {
			return err
		}
		tx.Fee = fmt.Sprintf("%d", fee)
	}

	if tx.LastLedgerSequence == 0 {
		raw, err := c.Call(ctx, "ledger_current", nil)
		if err != nil {
			return fmt.Errorf("ledger_current: %w", err)
		}
		tx.LastLedgerSequence = uint32(gjson.GetBytes(raw, "ledger_current_index").Uint()) + c.ledgerOffset
	}

	if tx.NetworkID == 0 {
		id, err := c.networkIDValue(ctx)
		if err != nil {
			return err
		}
		if id > restrictedNetworkID {
			tx.NetworkID = id
		}
	}
	return nil
}

// suggestedFee is the larger of the open ledger and base fee with a 20% cushion,
// capped at maxFeeDrops.
func (c *Client) suggestedFee(ctx context.Context) (int64, error) {
	raw, err := c.Call(ctx, "fee", nil)
	if err != nil {
		return 0, fmt.Errorf("fee: %w", err)
	}
	res := gjson.ParseBytes(raw)
	base := res.Get("drops.base_fee").Int()
	open := res.Get("drops.open_ledger_fee").Int()
	fee := base
	if open > fee {
		fee = open
	}
	if fee <= 0 {
		fee = 10
	}
	fee = (fee*12 + 9) / 10
	if fee > c.maxFeeDrops {
		fee = c.maxFeeDrops
	}
	return fee, nil
}

func (c *Client) networkIDValue(ctx context.Context) (uint32, error) {
	c.mu.RLock()
	cached := c.networkID
	c.mu.RUnlock()
	if cached != nil {
		return *cached, nil
	}
	info, err := c.ServerInfo(ctx)
	if err != nil {
		return 0, fmt.Errorf("server_info: %w", err)
	}
	return info.NetworkID, nil
}

// Sign signs tx locally with the wallet's key. The node only ever sees the
// signed blob.
func (c *Client) Sign(_ context.Context, tx *Transaction, wallet *Wallet) (*SignedTransaction, error) {
	return SignTransaction(tx, wallet)
}

// SubmitAndWait submits a signed blob and polls until the transaction is
// validated or can no longer be included.
func (c *Client) SubmitAndWait(ctx context.Context, signed *SignedTransaction) (*SubmitResult, error) {
	if signed == nil || signed.TxBlob == "" {
		return nil, fmt.Errorf("xrpl: signed transaction required")
	}

	raw, err := c.Call(ctx, "submit", map[string]interface{}{"tx_blob": signed.TxBlob})
	if err != nil {
		return nil, fmt.Errorf("submit: %w", err)
	}
	res := gjson.ParseBytes(raw)
	prelim := res.Get("engine_result").String()
	hash := res.Get("tx_json.hash").String()
	if hash == "" {
		hash = signed.Hash
	}
	if isFinalFailure(prelim) {
		return nil, &EngineError{Result: prelim, Message: res.Get("engine_result_message").String(), Hash: hash}
	}

	c.log.WithFields(map[string]interface{}{
		"hash":          hash,
		"engine_result": prelim,
	}).Debug("transaction submitted")

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}

		result, done, err := c.lookup(ctx, hash)
		if err != nil {
			return nil, err
		}
		if done {
			return result, nil
		}

		if signed.LastLedgerSequence > 0 {
			validated, err := c.validatedLedgerIndex(ctx)
			if err != nil {
				return nil, err
			}
			if validated > signed.LastLedgerSequence {
				return nil, fmt.Errorf("%w: hash %s, last ledger %d", ErrTransactionExpired, hash, signed.LastLedgerSequence)
			}
		}
	}
}

func (c *Client) lookup(ctx context.Context, hash string) (*SubmitResult, bool, error) {
	raw, err := c.Call(ctx, "tx", map[string]interface{}{"transaction": hash})
	if err != nil {
		if IsRPCError(err, "txnNotFound") {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("tx: %w", err)
	}
	res := gjson.ParseBytes(raw)
	if !res.Get("validated").Bool() {
		return nil, false, nil
	}
	return &SubmitResult{
		Hash:         hash,
		EngineResult: res.Get("meta.TransactionResult").String(),
		Validated:    true,
		LedgerIndex:  uint32(res.Get("ledger_index").Uint()),
		Result:       raw,
	}, true, nil
}

func (c *Client) validatedLedgerIndex(ctx context.Context) (uint32, error) {
	raw, err := c.Call(ctx, "ledger", map[string]interface{}{"ledger_index": "validated"})
	if err != nil {
		return 0, fmt.Errorf("ledger: %w", err)
	}
	return uint32(gjson.GetBytes(raw, "ledger_index").Uint()), nil
}

func isFinalFailure(result string) bool {
	return strings.HasPrefix(result, "tem") || strings.HasPrefix(result, "tef") || strings.HasPrefix(result, "tel")
}
