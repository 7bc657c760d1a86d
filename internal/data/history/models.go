package history

import "time"

type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Run is one attempt to generate a single diagram from one source.
type Run struct {
	ID        string
	BatchID   string
	Kind      string
	Source    string
	Output    string
	Status    Status
	Error     string
	StartedAt time.Time
	Duration  time.Duration
}

// Filter narrows RecentRuns. Zero values match everything.
type Filter struct {
	Kind   string
	Status Status
	Since  time.Time
	Limit  int
}

// KindSummary aggregates run outcomes for one diagram kind.
type KindSummary struct {
	Kind      string
	Succeeded int
	Failed    int
	LastRun   time.Time
}
