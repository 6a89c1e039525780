// Package journal persists the outcome of pipeline runs.
//
// Every run produces exactly one Entry. Entries are append-only: once
// handed to a store they are never mutated. Two drivers are provided:
//   - "file": one JSON document per run inside a journals directory
//   - "sqlite": SQLite database file (runs + per-component records)
package journal
