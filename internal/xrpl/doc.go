// Package xrpl is the gateway's XRP Ledger client.
//
// It covers only what the gateway forwards to the ledger:
//
//   - deriving classic addresses from family seeds (secp256k1 and ed25519),
//   - building Payment transactions with XRP or issued-currency amounts,
//   - autofilling Sequence, Fee, LastLedgerSequence and NetworkID,
//   - serializing and signing them locally,
//   - submitting and waiting for validation.
//
// Seeds and private keys never leave the process: the node receives only the
// signed blob through submit. The binary codec covers the Payment fields the
// gateway sends. The node is reached over JSON-RPC (http/https) or WebSocket
// (ws/wss) depending on the endpoint scheme.
package xrpl
