// Package client holds the per-connection reconciler that merges an
// initial REST snapshot with the ordered broadcast stream into one local
// view, plus a thin transport wrapper around the REST and WebSocket
// endpoints.
package client

import (
	"encoding/json"
	"errors"
	"sync"

	"livepoll/internal/bus"
	"livepoll/internal/model"
	"livepoll/internal/transport/ws"
)

// VoteOutcome is the terminal state of an optimistic vote. A pending vote
// has exactly two terminal outcomes: confirmed by the next vote_updated,
// or rejected with a reason by an error_event.
type VoteOutcome int

const (
	VotePending VoteOutcome = iota
	VoteConfirmed
	VoteRejected
)

// PendingVote tracks one optimistic vote submission.
type PendingVote struct {
	OptionID string
	Outcome  VoteOutcome
	Reason   string
}

// ErrAlreadyVoted is returned by BeginVote when a vote was already placed
// (or is still pending) on the current poll.
var ErrAlreadyVoted = errors.New("client: already voted on this poll")

// ErrKicked is returned by BeginVote after the local identity was kicked.
var ErrKicked = errors.New("client: kicked from poll")

// Reconciler folds broadcast events into a locally held poll view. It is
// seeded from a REST snapshot on mount, on identity change, and after any
// reconnect, since there is no event replay to detect gaps.
type Reconciler struct {
	mu sync.Mutex

	identity string
	role     model.Role

	view      *model.PollView
	kicked    bool
	hasVoted  bool
	pending   *PendingVote
	lastError string
}

func NewReconciler(identity string, role model.Role) *Reconciler {
	return &Reconciler{identity: identity, role: role}
}

// Seed replaces the whole local view from a REST snapshot. The kicked flag
// is re-derived from the participant list so a kick that happened while
// disconnected is not lost.
func (r *Reconciler) Seed(view *model.PollView) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prevID := ""
	if r.view != nil {
		prevID = r.view.ID
	}

	r.view = view
	r.kicked = false
	if view == nil {
		// No active poll: any vote state belonged to a poll that is gone.
		r.hasVoted = false
		r.pending = nil
		return
	}

	for _, p := range view.Participants {
		if p.Name == r.identity && p.Status == model.ParticipantKicked {
			r.kicked = true
			break
		}
	}

	if view.ID != prevID {
		r.hasVoted = false
		r.pending = nil
	}
}

// Apply folds one broadcast into the local view. It reports whether the
// caller should re-issue a join: the active poll id just transitioned to a
// new non-null value and the local identity is an unkicked participant.
func (r *Reconciler) Apply(msg ws.Message) (rejoin bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch msg.Type {
	case bus.EventPollStarted:
		var view model.PollView
		if err := json.Unmarshal(msg.Payload, &view); err != nil {
			return false, err
		}
		prevID := ""
		if r.view != nil {
			prevID = r.view.ID
		}
		r.view = &view
		r.kicked = false
		r.hasVoted = false
		r.pending = nil
		rejoin = r.identity != "" && view.ID != "" && view.ID != prevID

	case bus.EventVoteUpdated:
		var results model.Results
		if err := json.Unmarshal(msg.Payload, &results); err != nil {
			return false, err
		}
		if r.view != nil {
			r.view.Results = &results
		}
		if r.pending != nil && r.pending.Outcome == VotePending {
			r.pending.Outcome = VoteConfirmed
		}

	case bus.EventPollEnded:
		var notice model.PollEndedNotice
		if err := json.Unmarshal(msg.Payload, &notice); err != nil {
			return false, err
		}
		if r.view != nil {
			r.view.Status = model.PollCompleted
			r.view.RemainingTime = 0
			r.view.Results = notice.Results
		}

	case bus.EventNewMessage:
		var message model.ChatMessage
		if err := json.Unmarshal(msg.Payload, &message); err != nil {
			return false, err
		}
		if r.view != nil {
			r.view.ChatMessages = append(r.view.ChatMessages, &message)
		}

	case bus.EventParticipantsUpdated:
		var participants []*model.Participant
		if err := json.Unmarshal(msg.Payload, &participants); err != nil {
			return false, err
		}
		if r.view != nil {
			r.view.Participants = participants
		}

	case bus.EventUserKicked:
		var notice model.KickedNotice
		if err := json.Unmarshal(msg.Payload, &notice); err != nil {
			return false, err
		}
		if r.identity != "" && notice.StudentName == r.identity {
			r.kicked = true
		}

	case ws.MsgError:
		var payload ws.ErrorPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return false, err
		}
		r.lastError = payload.Message
		// Roll the optimistic vote marker back; the UI may transiently
		// have shown a voted state that now reverts.
		if r.pending != nil && r.pending.Outcome == VotePending {
			r.pending.Outcome = VoteRejected
			r.pending.Reason = payload.Message
			r.hasVoted = false
		}
	}

	return rejoin, nil
}

// BeginVote optimistically marks the local identity as having voted,
// before server confirmation, and records the pending action.
func (r *Reconciler) BeginVote(optionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.kicked {
		return ErrKicked
	}
	if r.hasVoted {
		return ErrAlreadyVoted
	}

	r.hasVoted = true
	r.pending = &PendingVote{OptionID: optionID, Outcome: VotePending}
	return nil
}

// FailVote rejects the pending vote locally, for submissions that never
// reached the server.
func (r *Reconciler) FailVote(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.pending != nil && r.pending.Outcome == VotePending {
		r.pending.Outcome = VoteRejected
		r.pending.Reason = reason
		r.hasVoted = false
	}
}

// View returns a copy of the current local view, or nil when no poll is
// known.
func (r *Reconciler) View() *model.PollView {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.view == nil {
		return nil
	}
	view := *r.view
	return &view
}

// ActivePollID returns the id of the locally known poll, or "".
func (r *Reconciler) ActivePollID() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.view == nil {
		return ""
	}
	return r.view.ID
}

// Identity returns the local participant name.
func (r *Reconciler) Identity() string {
	return r.identity
}

// Role returns the locally claimed role.
func (r *Reconciler) Role() model.Role {
	return r.role
}

// Kicked reports whether the local identity has been kicked from the
// current poll.
func (r *Reconciler) Kicked() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.kicked
}

// HasVoted reports the optimistic voted marker.
func (r *Reconciler) HasVoted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hasVoted
}

// Pending returns a copy of the tracked vote submission, or nil.
func (r *Reconciler) Pending() *PendingVote {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.pending == nil {
		return nil
	}
	pending := *r.pending
	return &pending
}

// LastError returns the most recent error_event message, or "".
func (r *Reconciler) LastError() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastError
}
