// Package core provides the business logic for the score log.
//
// This package holds all domain logic independent of any presentation layer.
// The CLI in cmd/scorelog is one consumer; tests drive it directly.
//
// # Architecture
//
// The package is organized around a few key concepts:
//
//   - Service: the single context object built at startup. It owns the
//     in-memory entry collection, the storage adapter, the catalog and the
//     validator, and exposes every outward operation.
//   - CSV codec: export writes a BOM, the header and one row per entry with
//     the note always quoted; import streams the file through size-limit,
//     BOM-skipping and UTF-8 repair readers before parsing.
//   - Mutation gate: add, delete, clear and import run one at a time.
//
// # Mutations
//
// Every mutation is applied to a clone of the current collection. The clone
// is persisted with retry and only swapped in when the write succeeds, so a
// storage failure leaves the in-memory state untouched and readers never see
// a half-applied change.
//
// # Import
//
// Import is tolerant per row. Each data row is split into id, date,
// domainKey and score, with everything after the fourth comma rejoined as
// the note. Rows that fail parsing, catalog lookup, screening or validation
// are reported as [FailedRow] values and counted as skipped; rows whose id
// already exists are skipped too. The batch is rejected as a whole only when
// the file exceeds the size cap, the import rate limit is hit or the store
// cannot be written.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - ENT001-ENT002: Entry errors (not found, duplicate id)
//   - VAL001-VAL005: Validation errors
//   - SEC001: Rejected content
//   - FILE001-FILE005: File errors (size, format, missing)
//   - STO001-STO003: Storage errors
//   - IMP001: Import errors
//   - RATE001-RATE002: Throttling and busy errors
package core
