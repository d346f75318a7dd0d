// Package domain defines the core business entities for Aegis.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - ContentUnit: A stored, embedded, deduplicated piece of text
//   - Chunk: A transient overlapping window of a source document
//   - SourceItem / RetrievalContext: Evidence assembled for one query
//   - Flaw: A CVE record retrieved from the external vulnerability database
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
