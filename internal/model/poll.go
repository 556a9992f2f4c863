package model

import "time"

type PollStatus string

const (
	PollActive    PollStatus = "active"
	PollCompleted PollStatus = "completed"
)

// PollOption is one answer choice declared at poll creation.
type PollOption struct {
	ID   string `json:"id" bson:"id"`
	Text string `json:"text" bson:"text"`
}

// Poll is one live question-and-options session. At most one poll has
// status "active" at any instant; the polls collection enforces that with
// a partial unique index.
type Poll struct {
	ID        string       `json:"_id" bson:"_id,omitempty"`
	Question  string       `json:"question" bson:"question"`
	Options   []PollOption `json:"options" bson:"options"`
	StartTime time.Time    `json:"startTime" bson:"startTime"`
	Duration  int          `json:"duration" bson:"duration"` // seconds
	Status    PollStatus   `json:"status" bson:"status"`
	CreatedAt time.Time    `json:"createdAt" bson:"createdAt"`
}

// RemainingAt derives the seconds left at the given instant. Remaining time
// is never stored; server snapshots and client countdowns both recompute it
// from startTime and duration.
func (p *Poll) RemainingAt(now time.Time) int {
	elapsed := int(now.Sub(p.StartTime).Seconds())
	if remaining := p.Duration - elapsed; remaining > 0 {
		return remaining
	}
	return 0
}

// HasOption reports whether the poll declared the given option id.
func (p *Poll) HasOption(optionID string) bool {
	for _, opt := range p.Options {
		if opt.ID == optionID {
			return true
		}
	}
	return false
}
