// Package core defines the shared language of the canvasql system.
//
// This package contains:
//   - Catalog types (CatalogColumn, ColumnDescriptor, UIType)
//   - Filter types (FilterClause, Operator)
//   - Dataset graph types (TableNode, JoinEdge, ColumnMapping)
//   - Connection configuration (AdapterConfig)
//
// The Golden Rule: pkg/core imports ONLY the standard library.
// All other packages depend on core, not the reverse.
package core
