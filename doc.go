// Package bankero implements the event-sourced core of a local-first,
// multi-currency ledger. It is designed to be auditable and reproducible:
// every financial fact is an immutable event in an append-only journal, and
// every balance, budget or report is derived by replaying that journal.
//
// The core functionalities include:
//   - Event journal: immutable, idempotently appendable events
//     (deposits, moves, buys, sells, revaluations, budget definitions),
//     ordered for replay by (effective time, insertion sequence).
//   - Rate resolution: deterministic as-of lookup of exchange rates from a
//     local rate store, or explicit manual overrides carried by the intent.
//   - Basis tracking: intrinsic-value metadata attached to events, either a
//     fixed literal or computed through a rate provider.
//   - Projections: balances and positions computed by a pure fold over the
//     journal, identical under repeated, chunked or merged replay.
//   - Virtual overlays: budgets and piggy banks that reserve value against
//     real balances without ever creating or mutating a posting.
//
// This package serves as the foundational logic for the `bankero`
// command-line tool. It performs no network calls; fetching rates and
// syncing journals between devices belong to outer adapters.
package bankero
