// Package app provides the Application Composition Layer for the XRPL gateway.
//
// # Package Structure
//
//	internal/app/
//	├── application.go      # Application struct, wiring, and lifecycle
//	├── domain/             # Domain models (pure data structures)
//	│   ├── governance/     # Proposal, vote and ETF status records
//	│   └── submission/     # Ledger submission journal entries
//	├── storage/            # Storage interfaces and implementations
//	│   ├── interfaces.go   # SubmissionStore
//	│   ├── memory/         # Bounded in-memory journal (default)
//	│   └── postgres/       # PostgreSQL journal (DATABASE_URL)
//	├── services/           # Business logic
//	│   ├── txsubmitter/    # Autofill, sign, submit, journal
//	│   ├── ledgerops/      # create-token, stake, liquidity, vote
//	│   ├── feedistribution/# Fee fan-out to category addresses
//	│   ├── etf/            # Deposit and withdrawal fees
//	│   └── governance/     # Proposals, votes, cooldowns, overrides
//	├── httpapi/            # HTTP routes and handlers
//	├── runtime/            # Process wiring: config, ledger client, HTTP server
//	├── system/             # Lifecycle manager
//	└── metrics/            # Prometheus collectors
//
// # Dependency Direction
//
//	cmd/xrpl-gateway/
//	      │
//	      ▼
//	internal/app/runtime ──► internal/app/httpapi
//	      │                        │
//	      ▼                        ▼
//	internal/app (composition) ──► internal/app/services/*
//	                                       │
//	                                       ├──► internal/fees
//	                                       └──► internal/xrpl
//
// Services never import httpapi; httpapi maps their sentinel errors to statuses.
package app
