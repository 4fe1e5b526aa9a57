// Package core defines the shared language of the leishu search system.
//
// This package contains:
//   - Corpus entities (Document, Title, TextSegment, Page, Author)
//   - Query vocabulary (Field, MatchMode, Logic, Condition, Filter)
//   - The enriched search Result with typed optional fields
//   - Store ports (Querier, Session) and adapter configuration
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
