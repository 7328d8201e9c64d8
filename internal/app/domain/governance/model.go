// Package governance holds the ETF governance records shared by the
// governance service and the HTTP layer.
package governance

import (
	"encoding/json"
	"time"
)

// Outcome is the reply to every governance operation.
type Outcome struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ProposalResult is the outcome of an allocation change proposal.
type ProposalResult struct {
	Outcome
	ETFID         string     `json:"etfId"`
	Approval      float64    `json:"approval"`
	CooldownUntil *time.Time `json:"cooldownUntil,omitempty"`
}

// VoteResult is the outcome of a single governance vote.
type VoteResult struct {
	ETFID      string  `json:"etfId"`
	Voter      string  `json:"voter"`
	Approval   float64 `json:"approval"`
	VotesCast  int     `json:"votesCast"`
	TokenLimit int     `json:"tokenLimit"`
}

// ETFStatus is the in-memory governance state of one ETF.
type ETFStatus struct {
	ETFID           string          `json:"etfId"`
	InCooldown      bool            `json:"inCooldown"`
	CooldownUntil   *time.Time      `json:"cooldownUntil,omitempty"`
	OverridePending bool            `json:"overridePending"`
	OverrideAt      *time.Time      `json:"overrideEffectiveAt,omitempty"`
	Allocation      json.RawMessage `json:"allocation,omitempty"`
}
