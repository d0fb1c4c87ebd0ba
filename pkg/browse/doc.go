// Package browse compiles table-browse requests into parameterized SQL.
//
// A browse request names a table, its column descriptors, an optional sort
// and a list of filter clauses. Compile turns it into a page query and a
// matching count query that share one WHERE clause and one set of named
// arguments. Identifiers are validated and quoted, values are always bound.
package browse
