package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"livepoll/internal/bus"
	"livepoll/internal/model"
	"livepoll/internal/repository"
	"livepoll/internal/scheduler"
)

// PollService is the poll session coordinator: it owns the session
// lifecycle, vote submission, participant membership and chat, and emits a
// domain event for every effective state change. Uniqueness invariants are
// enforced by the store's unique indexes; the coordinator translates index
// violations into typed outcomes.
type PollService struct {
	polls        repository.PollRepo
	votes        repository.VoteRepo
	participants repository.ParticipantRepo
	chat         repository.ChatRepo
	sched        *scheduler.Scheduler
	events       bus.Bus
	log          *zap.Logger
}

func NewPollService(
	polls repository.PollRepo,
	votes repository.VoteRepo,
	participants repository.ParticipantRepo,
	chat repository.ChatRepo,
	sched *scheduler.Scheduler,
	events bus.Bus,
	log *zap.Logger,
) *PollService {
	return &PollService{
		polls:        polls,
		votes:        votes,
		participants: participants,
		chat:         chat,
		sched:        sched,
		events:       events,
		log:          log,
	}
}

// CreatePoll starts a new poll when no active poll exists, arms its expiry
// timer and broadcasts poll_started.
func (s *PollService) CreatePoll(ctx context.Context, question string, options []model.PollOption, duration int) (*model.Poll, error) {
	if question == "" {
		return nil, fmt.Errorf("%w: question is required", ErrValidation)
	}
	if len(options) < 2 {
		return nil, fmt.Errorf("%w: at least two options are required", ErrValidation)
	}
	if duration <= 0 {
		return nil, fmt.Errorf("%w: duration must be positive", ErrValidation)
	}
	for i := range options {
		if options[i].Text == "" {
			return nil, fmt.Errorf("%w: option text is required", ErrValidation)
		}
		if options[i].ID == "" {
			options[i].ID = uuid.New().String()
		}
	}

	active, err := s.polls.FindActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check for active poll: %w", err)
	}
	if active != nil {
		return nil, ErrActivePollExists
	}

	now := time.Now()
	poll := &model.Poll{
		Question:  question,
		Options:   options,
		StartTime: now,
		Duration:  duration,
		Status:    model.PollActive,
		CreatedAt: now,
	}

	if err := s.polls.Create(ctx, poll); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// Lost the race against a concurrent create; the partial
			// unique index kept the invariant.
			return nil, ErrActivePollExists
		}
		return nil, fmt.Errorf("failed to create poll: %w", err)
	}

	s.sched.Arm(poll.ID, time.Duration(duration)*time.Second, func() {
		if err := s.CompletePoll(context.Background(), poll.ID); err != nil {
			s.log.Warn("timer-driven completion failed",
				zap.String("pollId", poll.ID), zap.Error(err))
		}
	})

	s.publish(ctx, poll.ID, bus.EventPollStarted, &model.PollView{
		Poll:          *poll,
		RemainingTime: duration,
		Results:       normalizeResults(poll, nil, 0),
		Participants:  []*model.Participant{},
		ChatMessages:  []*model.ChatMessage{},
	})

	return poll, nil
}

// CompletePoll transitions the poll to completed. It is idempotent: only
// the call that performs the active→completed transition cancels the timer
// and broadcasts poll_ended; later calls are no-ops.
func (s *PollService) CompletePoll(ctx context.Context, pollID string) error {
	poll, err := s.polls.GetByID(ctx, pollID)
	if err != nil {
		return fmt.Errorf("failed to get poll: %w", err)
	}
	if poll == nil {
		return ErrPollNotFound
	}

	transitioned, err := s.polls.Complete(ctx, pollID)
	if err != nil {
		return fmt.Errorf("failed to complete poll: %w", err)
	}
	if !transitioned {
		return nil
	}

	s.sched.Cancel(pollID)

	results, err := s.resultsFor(ctx, poll)
	if err != nil {
		s.log.Error("failed to aggregate results for ended poll",
			zap.String("pollId", pollID), zap.Error(err))
		results = normalizeResults(poll, nil, 0)
	}
	s.publish(ctx, pollID, bus.EventPollEnded, &model.PollEndedNotice{
		PollID:  pollID,
		Results: results,
	})

	return nil
}

// GetActivePoll assembles a fresh snapshot of the active poll, or returns
// nil when none exists. The read enforces expiry: an active poll whose
// remaining time reached zero is completed here and reported as nil, so
// the invariant holds even if no timer ever fires.
func (s *PollService) GetActivePoll(ctx context.Context) (*model.PollView, error) {
	poll, err := s.polls.FindActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to find active poll: %w", err)
	}
	if poll == nil {
		return nil, nil
	}

	remaining := poll.RemainingAt(time.Now())
	if remaining <= 0 {
		if err := s.CompletePoll(ctx, poll.ID); err != nil {
			return nil, fmt.Errorf("failed to expire poll: %w", err)
		}
		return nil, nil
	}

	results, err := s.resultsFor(ctx, poll)
	if err != nil {
		return nil, err
	}
	participants, err := s.participants.ListByPoll(ctx, poll.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	messages, err := s.chat.ListByPoll(ctx, poll.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat messages: %w", err)
	}

	return &model.PollView{
		Poll:          *poll,
		RemainingTime: remaining,
		Results:       results,
		Participants:  participants,
		ChatMessages:  messages,
	}, nil
}

// SubmitVote records one student's vote and broadcasts the recomputed
// results. The (pollId, studentName) unique index makes duplicates a typed
// failure regardless of the chosen option.
func (s *PollService) SubmitVote(ctx context.Context, pollID, studentName, optionID string) (*model.Results, error) {
	if studentName == "" || optionID == "" {
		return nil, fmt.Errorf("%w: student name and option are required", ErrValidation)
	}

	poll, err := s.polls.GetByID(ctx, pollID)
	if err != nil {
		return nil, fmt.Errorf("failed to get poll: %w", err)
	}
	if poll == nil {
		return nil, ErrPollNotFound
	}
	if poll.Status != model.PollActive {
		return nil, ErrPollNotActive
	}
	if poll.RemainingAt(time.Now()) <= 0 {
		// Self-healing: force the transition rather than leave a dangling
		// active poll behind the rejection.
		if err := s.CompletePoll(ctx, pollID); err != nil {
			s.log.Warn("failed to complete expired poll",
				zap.String("pollId", pollID), zap.Error(err))
		}
		return nil, ErrPollExpired
	}
	if !poll.HasOption(optionID) {
		return nil, fmt.Errorf("%w: unknown option %q", ErrValidation, optionID)
	}

	vote := &model.Vote{
		PollID:         pollID,
		StudentName:    studentName,
		SelectedOption: optionID,
		CreatedAt:      time.Now(),
	}
	if err := s.votes.Create(ctx, vote); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateVote
		}
		return nil, fmt.Errorf("failed to save vote: %w", err)
	}

	results, err := s.resultsFor(ctx, poll)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, pollID, bus.EventVoteUpdated, results)

	return results, nil
}

// JoinPoll upserts the participant row keyed by (pollId, name): a repeat
// join returns the existing row unchanged. It returns nil without error
// when the poll is missing or not active; nothing is broadcast in that
// case.
func (s *PollService) JoinPoll(ctx context.Context, pollID, studentName string) (*model.Participant, error) {
	if studentName == "" {
		return nil, fmt.Errorf("%w: student name is required", ErrValidation)
	}

	poll, err := s.polls.GetByID(ctx, pollID)
	if err != nil {
		return nil, fmt.Errorf("failed to get poll: %w", err)
	}
	if poll == nil || poll.Status != model.PollActive {
		return nil, nil
	}

	participant, err := s.participants.Upsert(ctx, pollID, studentName)
	if errors.Is(err, repository.ErrDuplicate) {
		// Concurrent first joins raced; the row exists now.
		participant, err = s.participants.Upsert(ctx, pollID, studentName)
	}
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateParticipant
		}
		return nil, fmt.Errorf("failed to join poll: %w", err)
	}

	list, err := s.participants.ListByPoll(ctx, pollID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	s.publish(ctx, pollID, bus.EventParticipantsUpdated, list)

	return participant, nil
}

// KickParticipant marks the participant kicked and broadcasts the
// refreshed list plus a user_kicked notice. The participant's prior votes
// and chat messages are left untouched.
func (s *PollService) KickParticipant(ctx context.Context, pollID, studentName string) ([]*model.Participant, error) {
	err := s.participants.SetStatus(ctx, pollID, studentName, model.ParticipantKicked)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrParticipantNotFound
		}
		return nil, fmt.Errorf("failed to kick participant: %w", err)
	}

	list, err := s.participants.ListByPoll(ctx, pollID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}

	s.publish(ctx, pollID, bus.EventParticipantsUpdated, list)
	s.publish(ctx, pollID, bus.EventUserKicked, &model.KickedNotice{StudentName: studentName})

	return list, nil
}

// AddChatMessage appends an immutable chat message to an active poll and
// broadcasts it.
func (s *PollService) AddChatMessage(ctx context.Context, pollID, senderName string, senderRole model.Role, text string) (*model.ChatMessage, error) {
	if senderName == "" || text == "" {
		return nil, fmt.Errorf("%w: sender and text are required", ErrValidation)
	}
	if senderRole != model.RoleTeacher && senderRole != model.RoleStudent {
		return nil, fmt.Errorf("%w: unknown sender role %q", ErrValidation, senderRole)
	}

	poll, err := s.polls.GetByID(ctx, pollID)
	if err != nil {
		return nil, fmt.Errorf("failed to get poll: %w", err)
	}
	if poll == nil {
		return nil, ErrPollNotFound
	}
	if poll.Status != model.PollActive {
		return nil, ErrPollNotActive
	}

	message := &model.ChatMessage{
		PollID:     pollID,
		SenderName: senderName,
		SenderRole: senderRole,
		Text:       text,
		CreatedAt:  time.Now(),
	}
	if err := s.chat.Create(ctx, message); err != nil {
		return nil, fmt.Errorf("failed to save chat message: %w", err)
	}

	s.publish(ctx, pollID, bus.EventNewMessage, message)

	return message, nil
}

// PollResults aggregates the poll's votes into one entry per declared
// option, zero-vote options included.
func (s *PollService) PollResults(ctx context.Context, pollID string) (*model.Results, error) {
	poll, err := s.polls.GetByID(ctx, pollID)
	if err != nil {
		return nil, fmt.Errorf("failed to get poll: %w", err)
	}
	if poll == nil {
		return nil, ErrPollNotFound
	}
	return s.resultsFor(ctx, poll)
}

// GetPollHistory returns every poll newest first, each with its aggregated
// results. Votes, participants and chat outlive a poll's completion, so
// history stays queryable indefinitely.
func (s *PollService) GetPollHistory(ctx context.Context) ([]*model.PollView, error) {
	polls, err := s.polls.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list polls: %w", err)
	}

	now := time.Now()
	history := make([]*model.PollView, 0, len(polls))
	for _, poll := range polls {
		results, err := s.resultsFor(ctx, poll)
		if err != nil {
			return nil, err
		}
		// A poll completed ahead of its deadline would otherwise still
		// show time on the clock.
		remaining := 0
		if poll.Status == model.PollActive {
			remaining = poll.RemainingAt(now)
		}
		history = append(history, &model.PollView{
			Poll:          *poll,
			RemainingTime: remaining,
			Results:       results,
		})
	}

	return history, nil
}

func (s *PollService) resultsFor(ctx context.Context, poll *model.Poll) (*model.Results, error) {
	counts, total, err := s.votes.CountByOption(ctx, poll.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count votes: %w", err)
	}
	return normalizeResults(poll, counts, total), nil
}

// normalizeResults emits one entry per declared option in declared order.
// Percentages are rounded; they are all zero when nobody voted.
func normalizeResults(poll *model.Poll, counts map[string]int, total int) *model.Results {
	results := &model.Results{
		TotalVotes: total,
		Options:    make([]model.OptionResult, 0, len(poll.Options)),
	}
	for _, opt := range poll.Options {
		count := counts[opt.ID]
		percentage := 0
		if total > 0 {
			percentage = int(math.Round(float64(count) / float64(total) * 100))
		}
		results.Options = append(results.Options, model.OptionResult{
			OptionID:   opt.ID,
			Count:      count,
			Percentage: percentage,
		})
	}
	return results
}

func (s *PollService) publish(ctx context.Context, pollID, eventType string, payload interface{}) {
	if s.events == nil {
		return
	}
	ev, err := bus.NewEvent(eventType, payload)
	if err != nil {
		s.log.Error("failed to encode event",
			zap.String("type", eventType), zap.Error(err))
		return
	}
	if err := s.events.Publish(ctx, pollID, ev); err != nil {
		s.log.Error("failed to publish event",
			zap.String("type", eventType), zap.Error(err))
	}
}
