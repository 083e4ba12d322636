// Package postgres provides PostgreSQL implementations of the ledger store repositories.
// Integrity violations (SQLSTATE class 23) are returned as shared.ConstraintViolationError and
// every other driver or transport error as shared.StoreUnavailableError; lookups that
// find nothing return a nil entity or a domain not-found error, never StoreUnavailable.
package postgres
