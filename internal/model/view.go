package model

// OptionResult is the aggregated tally for one declared option. Results
// always carry one entry per declared option, zero-vote options included,
// in declared order.
type OptionResult struct {
	OptionID   string `json:"optionId"`
	Count      int    `json:"count"`
	Percentage int    `json:"percentage"`
}

// Results is the aggregated vote outcome for a poll.
type Results struct {
	TotalVotes int            `json:"totalVotes"`
	Options    []OptionResult `json:"options"`
}

// PollView is a full point-in-time snapshot of a poll: the stored fields
// plus derived remaining time, aggregated results, the participant list
// (active and kicked) and the chat log. Views are assembled fresh on every
// read, never cached.
type PollView struct {
	Poll
	RemainingTime int            `json:"remainingTime"`
	Results       *Results       `json:"results,omitempty"`
	Participants  []*Participant `json:"participants,omitempty"`
	ChatMessages  []*ChatMessage `json:"chatMessages,omitempty"`
}

// PollEndedNotice is the poll_ended broadcast payload.
type PollEndedNotice struct {
	PollID  string   `json:"pollId"`
	Results *Results `json:"results"`
}

// KickedNotice is the user_kicked broadcast payload.
type KickedNotice struct {
	StudentName string `json:"studentName"`
}
