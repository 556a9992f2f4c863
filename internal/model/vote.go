package model

import "time"

// Vote is one student's choice on one poll. Votes are immutable and unique
// per (pollId, studentName); the votes collection carries a compound unique
// index that rejects a second write.
type Vote struct {
	ID             string    `json:"_id" bson:"_id,omitempty"`
	PollID         string    `json:"pollId" bson:"pollId"`
	StudentName    string    `json:"studentName" bson:"studentName"`
	SelectedOption string    `json:"selectedOption" bson:"selectedOption"`
	CreatedAt      time.Time `json:"createdAt" bson:"createdAt"`
}
