package httpapi

import (
	"encoding/json"
	"fmt"
	"strings"
)

// flexString accepts a JSON string or number. Amounts and ids arrive both ways.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", b)
	}
	*f = flexString(n.String())
	return nil
}

func (f flexString) String() string { return strings.TrimSpace(string(f)) }

type createTokenRequest struct {
	IssuerSeed  string     `json:"issuerSeed"`
	TokenName   string     `json:"tokenName"`
	TokenSymbol string     `json:"tokenSymbol"`
	TotalSupply flexString `json:"totalSupply"`
	Destination string     `json:"destination"`
}

type stakeRequest struct {
	StakerSeed  string     `json:"stakerSeed"`
	TokenSymbol string     `json:"tokenSymbol"`
	Amount      flexString `json:"amount"`
}

type liquidityRequest struct {
	ProviderSeed string     `json:"providerSeed"`
	TokenSymbol  string     `json:"tokenSymbol"`
	Amount       flexString `json:"amount"`
}

type voteRequest struct {
	VoterSeed  string     `json:"voterSeed"`
	ProposalID flexString `json:"proposalId"`
	Vote       flexString `json:"vote"`
}

type etfRequest struct {
	UserSeed string     `json:"userSeed"`
	Amount   flexString `json:"amount"`
}

type proposalRequest struct {
	ProposerSeed  string          `json:"proposerSeed"`
	ETFID         flexString      `json:"etfId"`
	NewAllocation json.RawMessage `json:"newAllocation"`
}

type governanceVoteRequest struct {
	VoterSeed     string          `json:"voterSeed"`
	ETFID         flexString      `json:"etfId"`
	NewAllocation json.RawMessage `json:"newAllocation"`
}

type overrideRequest struct {
	AdminSeed string     `json:"adminSeed"`
	ETFID     flexString `json:"etfId"`
	Global    bool       `json:"global"`
}
