package stage

import (
	"context"
	"time"

	"tatami-backend/internal/domain/entity"
	"tatami-backend/internal/substrate/invoker"
)

// Mats rotated through by the scheduler. Even match indexes go to the main
// mat, odd ones to the secondary.
var scheduleMats = []string{entity.DefaultMat, "Tatame 2"}

// slotInterval is the spacing between consecutive match time slots.
const slotInterval = 10 * time.Minute

// Scheduler assigns a time slot and a mat to each match.
//
// Input:  {"matches": [Match]}
// Output: {"scheduled_matches": [ScheduledMatch]}
//
// Assignment is deterministic: match index i starts at base + i*10min and
// alternates between the two mats, so re-running the scheduler over the same
// bracket yields the same plan apart from the base time.
type Scheduler struct {
	clock func() time.Time
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithSchedulerClock overrides the time source, for tests.
func WithSchedulerClock(clock func() time.Time) SchedulerOption {
	return func(s *Scheduler) {
		s.clock = clock
	}
}

// NewScheduler creates the scheduler stage.
func NewScheduler(opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{clock: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name implements invoker.Function.
func (s *Scheduler) Name() string { return "scheduler" }

// Handle implements invoker.Function.
func (s *Scheduler) Handle(ctx context.Context, ictx invoker.InvocationContext, payload invoker.Payload) (invoker.Payload, error) {
	var input struct {
		Matches []entity.Match `json:"matches"`
	}
	if err := decodePayload(payload, &input); err != nil {
		return nil, err
	}

	base := s.clock().UTC()
	scheduled := make([]entity.ScheduledMatch, 0, len(input.Matches))
	for idx, match := range input.Matches {
		scheduled = append(scheduled, entity.ScheduledMatch{
			Match:       match,
			ScheduledAt: base.Add(time.Duration(idx) * slotInterval).Format(time.RFC3339),
			Mat:         scheduleMats[idx%len(scheduleMats)],
		})
	}

	out, err := encodePayload(struct {
		ScheduledMatches []entity.ScheduledMatch `json:"scheduled_matches"`
	}{ScheduledMatches: scheduled})
	if err != nil {
		return nil, err
	}
	return out, nil
}
