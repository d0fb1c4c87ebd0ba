// Package dataset compiles a dataset graph into one aggregated SELECT.
//
// The first table node anchors the FROM clause. Join edges are emitted in
// order, Dimension columns are selected and grouped, Indicator columns are
// summed. Edges and mappings that reference a node missing from the graph
// are skipped rather than rejected.
//
// Table names, aliases and column names are spliced verbatim. They come
// from the dataset store, which validates them on write.
package dataset
