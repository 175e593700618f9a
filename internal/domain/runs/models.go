package runs

import "time"

const (
	KindGenerate   = "generate"
	KindKaitenPush = "kaiten_push"
	KindSlackPush  = "slack_push"
)

const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Run is journal metadata about one generation or push. Report rows are never
// stored.
type Run struct {
	ID          string     `json:"id"`
	Kind        string     `json:"kind"`
	Period      string     `json:"period"`
	SessionID   string     `json:"sessionId,omitempty"`
	Status      string     `json:"status"`
	GridRows    int        `json:"gridRows"`
	ArchiveRows int        `json:"archiveRows"`
	MergedRows  int        `json:"mergedRows"`
	ReportRows  int        `json:"reportRows"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}
