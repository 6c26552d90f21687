// Package tokenledger contains the Custodia guarded fungible-asset ledger.
//
// Balances move only through owner-authorized operations gated by per-account
// eligibility flags. The module keeps domain/application logic decoupled from
// runtime/platform concerns through ports and adapter composition.
package tokenledger
