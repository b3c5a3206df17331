package upcomingreminder

import "time"

type Output struct {
	Scanned  int       `json:"scanned"`
	Today    int       `json:"today"`
	Tomorrow int       `json:"tomorrow"`
	RanAt    time.Time `json:"ranAt"`
}

type assignmentRow struct {
	ID              string
	Number          string
	ReservationID   string
	ServiceCode     string
	ContractorID    string
	ReservationDate time.Time
}
