package pdfchat

import "time"

// Document describes an ingested document.
type Document struct {
	ID         string
	Filename   string
	FileSize   int64
	FileType   string
	UploadedAt time.Time
	Chunks     int
}

// IngestResult summarizes a completed ingestion.
type IngestResult struct {
	DocumentID    string
	ChunksCreated int
	Filename      string
}

// Answer is the agent's reply to one question. Failed answers carry the
// generic apology text; the cause is logged, never returned.
type Answer struct {
	Text      string
	Failed    bool
	Rounds    int
	ToolCalls int
}

// HealthStatus represents the aggregated system health.
type HealthStatus struct {
	Status string            // "ok" or "degraded"
	Checks map[string]string // component → "ok"/"error"
}

// Budget is one provider scope's token budget for a period.
// Limit is 0 and Remaining is -1 when the scope is unlimited.
type Budget struct {
	Scope     string // "embedding" or "chat"
	Used      int64
	Limit     int64
	Remaining int64
	Exhausted bool
	ResetsAt  time.Time
}

// UsageReport lists token budgets for a day or a month.
type UsageReport struct {
	Period      string
	PeriodStart time.Time
	PeriodEnd   time.Time
	Budgets     []Budget
}
