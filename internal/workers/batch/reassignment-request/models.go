package reassignmentrequest

import (
	"database/sql"
	"time"
)

// Stage is the reassignment progress stored on the assignment.
type Stage string

const (
	StageNone      Stage = ""
	StageRequested Stage = "requested"
	StageReminded  Stage = "reminded"
	StageWithdrawn Stage = "withdrawn"
	StageForced    Stage = "forced"
	StageEscalated Stage = "escalated"
)

// Output summarizes one scan.
type Output struct {
	Scanned  int           `json:"scanned"`
	Enqueued int           `json:"enqueued"`
	Emails   int           `json:"emails"`
	Stages   map[Stage]int `json:"stages"`
	RanAt    time.Time     `json:"ranAt"`
}

type assignmentRow struct {
	ID                  string
	Number              string
	ReservationID       string
	ServiceCode         string
	ReservationDate     time.Time
	Stage               Stage
	PreferredID         string
	PreferredMatched    bool
	CandidateID         string
	RequestContractorID string
	RequestSentAt       sql.NullTime
	ForcedContractorID  string
}
