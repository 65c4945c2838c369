// Package store provides SQLite-backed storage for architecture catalogs.
//
// A catalog imported from CUE or YAML is persisted once and served from the
// database afterwards. Machine returns an archdb.Database for one CPU that
// queries rows on demand, so a run touches only the instructions it uses.
//
// # Tables
//
//   - cpus: CPU defaults (address size, CCW and PSW formats)
//   - formats: instruction formats, operands stored as JSON
//   - instructions: raw instruction records, fixed fields and filters as JSON
//   - cpu_instructions: which CPU supports which mnemonic
//
// instructions.format is not a foreign key: a record naming a
// missing format is stored as is and surfaces as a consistency fault when
// the instruction is first resolved.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// JSON columns are written as RFC 8785 canonical JSON (ir.MarshalCanonical)
// so identical catalogs produce identical databases.
package store
