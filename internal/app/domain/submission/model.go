package submission

import (
	"encoding/json"
	"time"
)

// Kind names the operation that produced a ledger submission.
type Kind string

const (
	KindCreateToken     Kind = "create_token"
	KindStake           Kind = "stake"
	KindLiquidity       Kind = "liquidity"
	KindVote            Kind = "vote"
	KindFeeDistribution Kind = "fee_distribution"
)

// Status is the final state of a journaled submission.
type Status string

const (
	StatusValidated Status = "validated"
	StatusFailed    Status = "failed"
)

// Submission is one journaled attempt to write a transaction to the ledger.
// Only receipts are kept; seeds never reach the journal.
type Submission struct {
	ID           string          `json:"id" db:"id"`
	Kind         Kind            `json:"kind" db:"kind"`
	Account      string          `json:"account" db:"account"`
	Destination  string          `json:"destination,omitempty" db:"destination"`
	Amount       json.RawMessage `json:"amount,omitempty" db:"amount"`
	Hash         string          `json:"hash,omitempty" db:"hash"`
	EngineResult string          `json:"engine_result,omitempty" db:"engine_result"`
	LedgerIndex  int64           `json:"ledger_index,omitempty" db:"ledger_index"`
	Status       Status          `json:"status" db:"status"`
	Error        string          `json:"error,omitempty" db:"error"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}
