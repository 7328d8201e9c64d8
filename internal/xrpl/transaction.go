package xrpl

import (
	"encoding/hex"
	"encoding/json"
	"strings"
)

// TransactionTypePayment is the only transaction type the gateway sends.
const TransactionTypePayment = "Payment"

// Memo is arbitrary data attached to a transaction, hex-encoded on the wire.
type Memo struct {
	MemoData   string `json:"MemoData,omitempty"`
	MemoType   string `json:"MemoType,omitempty"`
	MemoFormat string `json:"MemoFormat,omitempty"`
}

// MemoWrapper matches the ledger's {"Memo": {...}} array element.
type MemoWrapper struct {
	Memo Memo `json:"Memo"`
}

// NewMemo hex-encodes data into a memo.
func NewMemo(data string) MemoWrapper {
	return MemoWrapper{Memo: Memo{MemoData: strings.ToUpper(hex.EncodeToString([]byte(data)))}}
}

// Transaction is a Payment in the node's tx_json form.
type Transaction struct {
	TransactionType    string        `json:"TransactionType"`
	Account            string        `json:"Account"`
	Destination        string        `json:"Destination,omitempty"`
	Amount             Amount        `json:"Amount"`
	Fee                string        `json:"Fee,omitempty"`
	Sequence           uint32        `json:"Sequence,omitempty"`
	LastLedgerSequence uint32        `json:"LastLedgerSequence,omitempty"`
	NetworkID          uint32        `json:"NetworkID,omitempty"`
	Memos              []MemoWrapper `json:"Memos,omitempty"`
}

// NewPayment builds an unfilled Payment.
func NewPayment(account, destination string, amount Amount) *Transaction {
	return &Transaction{
		TransactionType: TransactionTypePayment,
		Account:         account,
		Destination:     destination,
		Amount:          amount,
	}
}

// WithMemo appends a memo and returns the transaction.
func (tx *Transaction) WithMemo(m MemoWrapper) *Transaction {
	tx.Memos = append(tx.Memos, m)
	return tx
}

// SignedTransaction is a serialized, signed transaction ready for submit.
type SignedTransaction struct {
	TxBlob             string `json:"tx_blob"`
	Hash               string `json:"hash"`
	LastLedgerSequence uint32 `json:"last_ledger_sequence,omitempty"`
}

// SubmitResult is the validated outcome of a submission.
type SubmitResult struct {
	Hash         string          `json:"hash"`
	EngineResult string          `json:"engine_result"`
	Validated    bool            `json:"validated"`
	LedgerIndex  uint32          `json:"ledger_index"`
	Result       json.RawMessage `json:"result"`
}

// Succeeded reports whether the validated result is tesSUCCESS.
func (r *SubmitResult) Succeeded() bool {
	return r != nil && r.Validated && r.EngineResult == "tesSUCCESS"
}
