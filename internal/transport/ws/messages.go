package ws

import (
	"encoding/json"

	"livepoll/internal/model"
)

// MessageType defines the type of WebSocket message
type MessageType string

// Commands accepted from clients.
const (
	CmdJoinPoll    MessageType = "join_poll"
	CmdCreatePoll  MessageType = "create_poll"
	CmdSubmitVote  MessageType = "submit_vote"
	CmdSendMessage MessageType = "send_message"
	CmdKickUser    MessageType = "kick_user"
	CmdEndPoll     MessageType = "end_poll"
)

// MsgError is delivered only to the originating connection, never
// broadcast. Broadcast message types reuse the bus event names directly.
const MsgError MessageType = "error_event"

// Message is the WebSocket envelope format
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ErrorPayload is the error_event payload.
type ErrorPayload struct {
	Message string `json:"message"`
}

type JoinPollPayload struct {
	PollID      string `json:"pollId" validate:"required"`
	StudentName string `json:"studentName" validate:"required"`
}

type CreatePollPayload struct {
	Question string             `json:"question" validate:"required"`
	Options  []model.PollOption `json:"options" validate:"required,min=2"`
	Duration int                `json:"duration" validate:"required,gt=0"`
}

type SubmitVotePayload struct {
	PollID         string `json:"pollId" validate:"required"`
	StudentName    string `json:"studentName" validate:"required"`
	SelectedOption string `json:"selectedOption" validate:"required"`
}

type SendMessagePayload struct {
	PollID     string     `json:"pollId" validate:"required"`
	SenderName string     `json:"senderName" validate:"required"`
	SenderRole model.Role `json:"senderRole" validate:"required,oneof=teacher student"`
	Text       string     `json:"text" validate:"required"`
}

type KickUserPayload struct {
	PollID      string `json:"pollId" validate:"required"`
	StudentName string `json:"studentName" validate:"required"`
}

type EndPollPayload struct {
	PollID string `json:"pollId" validate:"required"`
}
