// Package sqlguard validates text that is spliced into SQL statements.
//
// Two guards are provided:
//
//   - ValidateIdentifier accepts schema, table and column names matching
//     ^[A-Za-z_][A-Za-z0-9_]*$. Identifiers are never bound as parameters
//     because the wire protocol only parameterizes values.
//   - IsQuerySafe screens ad-hoc statements with a keyword deny-list and a
//     single-statement check.
//
// IsQuerySafe is a lexical heuristic, not a SQL parser. It rejects the
// obvious write and DDL forms but a statement that looks read-only can still
// have side effects, for example through a volatile function call. Callers
// that need a hard guarantee must also run ad-hoc statements under a
// read-only database role.
package sqlguard
