package model

import "time"

type Role string

const (
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

// ChatMessage is one append-only chat entry tied to a poll.
type ChatMessage struct {
	ID         string    `json:"_id" bson:"_id,omitempty"`
	PollID     string    `json:"pollId" bson:"pollId"`
	SenderName string    `json:"senderName" bson:"senderName"`
	SenderRole Role      `json:"senderRole" bson:"senderRole"`
	Text       string    `json:"text" bson:"text"`
	CreatedAt  time.Time `json:"createdAt" bson:"createdAt"`
}
