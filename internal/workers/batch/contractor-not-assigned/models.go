package contractornotassigned

import "time"

// Output summarizes one scan.
type Output struct {
	Scanned  int       `json:"scanned"`
	Enqueued int       `json:"enqueued"`
	RanAt    time.Time `json:"ranAt"`
}

type assignmentRow struct {
	ID              string
	Number          string
	ReservationID   string
	ServiceCode     string
	ReservationDate time.Time
}
