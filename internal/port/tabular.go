package port

import "github.com/Khush-Purohit/RAG-Chatbot/internal/domain"

// TabularStore is an isolated per-session relational store. It holds at
// most one active table, replaced on each CSV ingestion, and only ever
// executes validated SELECT statements.
type TabularStore interface {
	// IngestCSV replaces the active table with the contents of the CSV.
	IngestCSV(data []byte, filename string) (domain.TableSchema, error)

	// Schema returns the active table's schema, or ok=false when no CSV
	// has been ingested yet.
	Schema() (domain.TableSchema, bool, error)

	// ExecuteSelect runs an already-validated SELECT statement.
	ExecuteSelect(sql string) (domain.TabularResult, error)

	Close() error
}
