package store

import (
	"context"
	"encoding/json"
	"time"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit  int       // max results (0 = unlimited)
	After  int64     // sequence > After
	Before int64     // sequence < Before
	From   time.Time // timestamp >= From
	To     time.Time // timestamp <= To
}

// SnapshotData captures the archive state at a point in time. Values are
// the raw JSON documents keyed by their store key, so a snapshot restores
// exactly what was persisted.
type SnapshotData struct {
	Version int                     `json:"version"`
	Values  map[Key]json.RawMessage `json:"values,omitempty"`
}

// Snapshot represents a point-in-time capture of archive state.
type Snapshot struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	Label     string
	Data      SnapshotData
}

// SnapshotRepo manages archive state snapshots.
type SnapshotRepo interface {
	// Save stores a new snapshot.
	Save(ctx context.Context, snap *Snapshot) error

	// Latest returns the most recent snapshot, or nil if none exist.
	Latest(ctx context.Context) (*Snapshot, error)

	// Get returns the snapshot with the given id, or nil.
	Get(ctx context.Context, id int) (*Snapshot, error)

	// List returns snapshots newest first. Data is not populated.
	List(ctx context.Context, limit int) ([]Snapshot, error)

	// Prune deletes all but the N most recent snapshots.
	Prune(ctx context.Context, keep int) error
}

// AnswerEventData captures a single graded answer.
type AnswerEventData struct {
	SessionID  string
	QuestionID int
	Mode       string
	Category   string
	Choice     *int
	Correct    bool
}

// AnswerEventRecord is a stored answer event.
type AnswerEventRecord struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	AnswerEventData
}

// ModeCount aggregates answer events for one mode.
type ModeCount struct {
	Mode      string
	Answers   int
	Correct   int
	Questions int
}

// Study transition actions.
const (
	StudyActionSeeded      = "seeded"
	StudyActionDecremented = "decremented"
	StudyActionIncremented = "incremented"
	StudyActionPromoted    = "promoted"
	StudyActionRemoved     = "removed"
	StudyActionCleared     = "cleared"
)

// StudyEventData captures a change to a question's study strength.
type StudyEventData struct {
	QuestionID     int
	Action         string
	StrengthBefore int
	StrengthAfter  int
}

// StudyEventRecord is a stored study transition.
type StudyEventRecord struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	StudyEventData
}

// SessionEventData captures the start or end of a study session.
type SessionEventData struct {
	SessionID        string
	Action           string // "start" or "end"
	QuestionsPlanned int
	QuestionsServed  int
	CorrectAnswers   int
	Promoted         int
	DurationSecs     int
}

// SessionSummaryRecord is a stored session end event.
type SessionSummaryRecord struct {
	Sequence  int64
	Timestamp time.Time
	SessionEventData
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMEventRecord is a stored LLM request event.
type LLMEventRecord struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	LLMRequestEventData
}

// PurposeUsage aggregates LLM usage for one purpose label.
type PurposeUsage struct {
	Purpose      string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// ModelUsage aggregates LLM usage for one model.
type ModelUsage struct {
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
}

// EventRepo provides append and query access to domain events.
type EventRepo interface {
	AppendAnswerEvent(ctx context.Context, data AnswerEventData) error
	QueryAnswerEvents(ctx context.Context, opts QueryOpts) ([]AnswerEventRecord, error)
	AnswerCountsByMode(ctx context.Context) ([]ModeCount, error)

	AppendStudyEvent(ctx context.Context, data StudyEventData) error
	QueryStudyEvents(ctx context.Context, opts QueryOpts) ([]StudyEventRecord, error)

	AppendSessionEvent(ctx context.Context, data SessionEventData) error
	QuerySessionSummaries(ctx context.Context, opts QueryOpts) ([]SessionSummaryRecord, error)

	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEventRecord, error)
	GetLLMEvent(ctx context.Context, id int) (*LLMEventRecord, error)
	LLMUsageByPurpose(ctx context.Context) ([]PurposeUsage, error)
	LLMUsageByModel(ctx context.Context) ([]ModelUsage, error)

	// LatestSequence returns the highest sequence assigned so far.
	LatestSequence(ctx context.Context) (int64, error)
}
