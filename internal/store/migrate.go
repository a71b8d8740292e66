package store

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// Table and column names used by the repositories.
const (
	tableKV          = "kv_entries"
	tableAnswers     = "answer_events"
	tableStudy       = "study_events"
	tableSessions    = "session_events"
	tableLLMRequests = "llm_request_events"
	tableSnapshots   = "snapshots"
)

// eventColumns returns the id/sequence/timestamp columns every event
// table starts with, followed by the table's own columns.
func eventColumns(cols ...*schema.Column) []*schema.Column {
	base := []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "timestamp", Type: field.TypeTime},
	}
	return append(base, cols...)
}

// eventIndexes indexes sequence and timestamp plus the named extra columns.
func eventIndexes(table string, cols []*schema.Column, extra ...int) []*schema.Index {
	idx := []*schema.Index{
		{Name: table + "_sequence", Columns: []*schema.Column{cols[1]}},
		{Name: table + "_timestamp", Columns: []*schema.Column{cols[2]}},
	}
	for _, i := range extra {
		idx = append(idx, &schema.Index{
			Name:    table + "_" + cols[i].Name,
			Columns: []*schema.Column{cols[i]},
		})
	}
	return idx
}

var (
	// KVEntriesColumns holds the columns for the "kv_entries" table.
	KVEntriesColumns = []*schema.Column{
		{Name: "name", Type: field.TypeString},
		{Name: "value", Type: field.TypeBytes},
		{Name: "updated_at", Type: field.TypeTime},
	}
	// KVEntriesTable holds the schema information for the "kv_entries" table.
	KVEntriesTable = &schema.Table{
		Name:       tableKV,
		Columns:    KVEntriesColumns,
		PrimaryKey: []*schema.Column{KVEntriesColumns[0]},
	}

	// AnswerEventsColumns holds the columns for the "answer_events" table.
	AnswerEventsColumns = eventColumns(
		&schema.Column{Name: "session_id", Type: field.TypeString, Default: ""},
		&schema.Column{Name: "question_id", Type: field.TypeInt},
		&schema.Column{Name: "mode", Type: field.TypeString},
		&schema.Column{Name: "category", Type: field.TypeString, Default: ""},
		&schema.Column{Name: "choice", Type: field.TypeInt, Nullable: true},
		&schema.Column{Name: "correct", Type: field.TypeBool},
	)
	// AnswerEventsTable holds the schema information for the "answer_events" table.
	AnswerEventsTable = &schema.Table{
		Name:       tableAnswers,
		Columns:    AnswerEventsColumns,
		PrimaryKey: []*schema.Column{AnswerEventsColumns[0]},
		Indexes:    eventIndexes(tableAnswers, AnswerEventsColumns, 4, 5),
	}

	// StudyEventsColumns holds the columns for the "study_events" table.
	StudyEventsColumns = eventColumns(
		&schema.Column{Name: "question_id", Type: field.TypeInt},
		&schema.Column{Name: "action", Type: field.TypeString},
		&schema.Column{Name: "strength_before", Type: field.TypeInt, Default: 0},
		&schema.Column{Name: "strength_after", Type: field.TypeInt, Default: 0},
	)
	// StudyEventsTable holds the schema information for the "study_events" table.
	StudyEventsTable = &schema.Table{
		Name:       tableStudy,
		Columns:    StudyEventsColumns,
		PrimaryKey: []*schema.Column{StudyEventsColumns[0]},
		Indexes:    eventIndexes(tableStudy, StudyEventsColumns, 3, 4),
	}

	// SessionEventsColumns holds the columns for the "session_events" table.
	SessionEventsColumns = eventColumns(
		&schema.Column{Name: "session_id", Type: field.TypeString},
		&schema.Column{Name: "action", Type: field.TypeString},
		&schema.Column{Name: "questions_planned", Type: field.TypeInt, Default: 0},
		&schema.Column{Name: "questions_served", Type: field.TypeInt, Default: 0},
		&schema.Column{Name: "correct_answers", Type: field.TypeInt, Default: 0},
		&schema.Column{Name: "promoted", Type: field.TypeInt, Default: 0},
		&schema.Column{Name: "duration_secs", Type: field.TypeInt, Default: 0},
	)
	// SessionEventsTable holds the schema information for the "session_events" table.
	SessionEventsTable = &schema.Table{
		Name:       tableSessions,
		Columns:    SessionEventsColumns,
		PrimaryKey: []*schema.Column{SessionEventsColumns[0]},
		Indexes:    eventIndexes(tableSessions, SessionEventsColumns, 3),
	}

	// LLMRequestEventsColumns holds the columns for the "llm_request_events" table.
	LLMRequestEventsColumns = eventColumns(
		&schema.Column{Name: "provider", Type: field.TypeString},
		&schema.Column{Name: "model", Type: field.TypeString},
		&schema.Column{Name: "purpose", Type: field.TypeString},
		&schema.Column{Name: "input_tokens", Type: field.TypeInt, Default: 0},
		&schema.Column{Name: "output_tokens", Type: field.TypeInt, Default: 0},
		&schema.Column{Name: "latency_ms", Type: field.TypeInt64, Default: 0},
		&schema.Column{Name: "success", Type: field.TypeBool},
		&schema.Column{Name: "error_message", Type: field.TypeString, Default: ""},
		&schema.Column{Name: "request_body", Type: field.TypeString, Size: 2147483647, Default: ""},
		&schema.Column{Name: "response_body", Type: field.TypeString, Size: 2147483647, Default: ""},
	)
	// LLMRequestEventsTable holds the schema information for the "llm_request_events" table.
	LLMRequestEventsTable = &schema.Table{
		Name:       tableLLMRequests,
		Columns:    LLMRequestEventsColumns,
		PrimaryKey: []*schema.Column{LLMRequestEventsColumns[0]},
		Indexes:    eventIndexes(tableLLMRequests, LLMRequestEventsColumns, 3, 5, 9),
	}

	// SnapshotsColumns holds the columns for the "snapshots" table.
	SnapshotsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64},
		{Name: "timestamp", Type: field.TypeTime},
		{Name: "label", Type: field.TypeString, Default: ""},
		{Name: "data", Type: field.TypeBytes},
	}
	// SnapshotsTable holds the schema information for the "snapshots" table.
	SnapshotsTable = &schema.Table{
		Name:       tableSnapshots,
		Columns:    SnapshotsColumns,
		PrimaryKey: []*schema.Column{SnapshotsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "snapshot_timestamp", Columns: []*schema.Column{SnapshotsColumns[2]}},
			{Name: "snapshot_sequence", Columns: []*schema.Column{SnapshotsColumns[1]}},
		},
	}

	// Tables holds all the tables in the schema.
	Tables = []*schema.Table{
		KVEntriesTable,
		AnswerEventsTable,
		StudyEventsTable,
		SessionEventsTable,
		LLMRequestEventsTable,
		SnapshotsTable,
	}
)
