// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the knowledge base to function:
//
//   - VectorStore: Persistence + nearest-neighbour search over content units
//   - EmbeddingService: Generates vector embeddings
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - LLMService: Generation. Without it, querying returns retrieval only
//     and CVE analysis features are disabled.
//   - FlawSource: External vulnerability database. Without it, CVE
//     features are disabled; the knowledge base still works.
//   - CWECatalog: MITRE weakness definitions.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
