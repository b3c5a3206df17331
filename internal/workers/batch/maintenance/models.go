package maintenance

import "time"

const (
	StepChatRooms        = "chat-rooms"
	StepNotificationLogs = "notification-logs"
	StepLiveCoordinates  = "live-coordinates"
)

// Output reports rows removed per step.
type Output struct {
	Deleted map[string]int64 `json:"deleted"`
	RanAt   time.Time        `json:"ranAt"`
}

// Total returns the number of rows removed across all steps.
func (o *Output) Total() int64 {
	var n int64
	for _, v := range o.Deleted {
		n += v
	}
	return n
}
