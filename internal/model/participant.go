package model

import "time"

type ParticipantStatus string

const (
	ParticipantActive ParticipantStatus = "active"
	ParticipantKicked ParticipantStatus = "kicked"
)

// Participant is one named member of a poll, unique per (pollId, name).
// Kicking mutates status in place; rows are never deleted and outlive the
// poll's completion.
type Participant struct {
	ID       string            `json:"_id" bson:"_id,omitempty"`
	PollID   string            `json:"pollId" bson:"pollId"`
	Name     string            `json:"name" bson:"name"`
	Status   ParticipantStatus `json:"status" bson:"status"`
	JoinedAt time.Time         `json:"joinedAt" bson:"joinedAt"`
}
