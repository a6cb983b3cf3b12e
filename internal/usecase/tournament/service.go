// Package tournament implements the application use cases: registering
// athletes, generating brackets, calling matches onto the queue, recording
// results, and computing rankings.
//
// The service never runs a pipeline stage directly; every stage call goes
// through the invoker so each one gets an invocation context, logging, and
// metrics, the same as when the worker drives a stage from the queue.
package tournament

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"tatami-backend/internal/domain/entity"
	"tatami-backend/internal/repository"
	"tatami-backend/internal/stage"
	"tatami-backend/internal/substrate/invoker"
	"tatami-backend/internal/substrate/queue"
)

// Service wires the tournament operations to their collaborators.
type Service struct {
	athletes repository.AthleteRepository
	brackets repository.BracketRepository
	results  repository.ResultRepository

	queue     *queue.Store
	queueName string

	inv    *invoker.Invoker
	stages *stage.Registry

	logger *slog.Logger
	clock  func() time.Time
}

// Config holds the collaborators for a Service.
type Config struct {
	Athletes  repository.AthleteRepository
	Brackets  repository.BracketRepository
	Results   repository.ResultRepository
	Queue     *queue.Store
	QueueName string
	Invoker   *invoker.Invoker
	Stages    *stage.Registry
	Logger    *slog.Logger

	// Clock overrides the time source, for tests.
	Clock func() time.Time
}

// NewService creates the tournament service.
func NewService(cfg Config) *Service {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Service{
		athletes:  cfg.Athletes,
		brackets:  cfg.Brackets,
		results:   cfg.Results,
		queue:     cfg.Queue,
		queueName: cfg.QueueName,
		inv:       cfg.Invoker,
		stages:    cfg.Stages,
		logger:    cfg.Logger,
		clock:     cfg.Clock,
	}
}

// RegisterAthlete validates an athlete through the validator stage and
// persists them. The returned athlete has defaults applied.
func (s *Service) RegisterAthlete(ctx context.Context, athlete entity.Athlete) (*entity.Athlete, error) {
	out, err := s.invokeStage(ctx, "validator", invoker.Payload{"athlete": athleteToMap(athlete)})
	if err != nil {
		return nil, err
	}

	if valid, _ := out["valid"].(bool); !valid {
		return nil, fmt.Errorf("%w: %s", entity.ErrValidationFailed, joinStageErrors(out["errors"]))
	}

	var validated entity.Athlete
	if err := remarshal(out["athlete"], &validated); err != nil {
		return nil, fmt.Errorf("decode validated athlete: %w", err)
	}

	if err := s.athletes.Save(ctx, &validated); err != nil {
		return nil, fmt.Errorf("save athlete: %w", err)
	}

	s.logger.Info("athlete registered",
		slog.String("name", validated.Name),
		slog.String("team", validated.Team))
	return &validated, nil
}

// GenerateBracket pairs all registered athletes through the matchmaker and
// schedules the matches. The previous bracket is replaced. It returns the
// scheduled matches and the generation timestamp.
func (s *Service) GenerateBracket(ctx context.Context) ([]entity.ScheduledMatch, string, error) {
	athletes, err := s.athletes.List(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("list athletes: %w", err)
	}
	if len(athletes) < 2 {
		return nil, "", fmt.Errorf("%w: register at least two athletes first", entity.ErrInvalidInput)
	}

	out, err := s.invokeStage(ctx, "matchmaker", invoker.Payload{"athletes": athletes})
	if err != nil {
		return nil, "", err
	}

	var matches []entity.Match
	if err := remarshal(out["matches"], &matches); err != nil {
		return nil, "", fmt.Errorf("decode matches: %w", err)
	}
	if len(matches) == 0 {
		return nil, "", fmt.Errorf("%w: could not generate any matches", entity.ErrInvalidInput)
	}
	generatedAt, _ := out["generated_at"].(string)

	scheduledOut, err := s.invokeStage(ctx, "scheduler", invoker.Payload{"matches": matches})
	if err != nil {
		return nil, "", err
	}
	var scheduled []entity.ScheduledMatch
	if err := remarshal(scheduledOut["scheduled_matches"], &scheduled); err != nil {
		return nil, "", fmt.Errorf("decode scheduled matches: %w", err)
	}

	if err := s.brackets.Replace(ctx, matches); err != nil {
		return nil, "", fmt.Errorf("replace bracket: %w", err)
	}

	s.logger.Info("bracket stored",
		slog.Int("matches", len(matches)),
		slog.String("generated_at", generatedAt))
	return scheduled, generatedAt, nil
}

// CallMatchInput is the payload for enqueueing a match call.
type CallMatchInput struct {
	LutaID   string           `json:"luta_id"`
	Athletes []entity.Athlete `json:"athletes"`
	Round    string           `json:"round"`
	Mat      string           `json:"tatame"`
}

// CallMatch enqueues a match call for the worker to announce.
func (s *Service) CallMatch(ctx context.Context, input CallMatchInput) (queue.Message, error) {
	var missing []string
	if input.LutaID == "" {
		missing = append(missing, "luta_id")
	}
	if len(input.Athletes) == 0 {
		missing = append(missing, "athletes")
	}
	if len(missing) > 0 {
		return nil, &entity.MissingFieldsError{Fields: missing}
	}

	if input.Round == "" {
		input.Round = entity.RoundQualifiers
	}
	if input.Mat == "" {
		input.Mat = entity.DefaultMat
	}

	message := queue.Message{
		"luta_id":  input.LutaID,
		"athletes": athletesToMaps(input.Athletes),
		"round":    input.Round,
		"tatame":   input.Mat,
	}
	if err := s.queue.Send(ctx, s.queueName, message); err != nil {
		return nil, fmt.Errorf("enqueue match call: %w", err)
	}

	s.logger.Info("match call enqueued",
		slog.String("luta_id", input.LutaID),
		slog.String("queue", s.queueName))
	return message, nil
}

// RecordResult validates and persists a result, archives it through the
// historian, and notifies through the notifier. Archiving failure fails the
// operation; notification failure does not, because the stored result is the
// source of truth.
func (s *Service) RecordResult(ctx context.Context, result entity.Result, submittedBy string) (*entity.Result, map[string]any, error) {
	if err := result.Validate(); err != nil {
		return nil, nil, err
	}
	result.ApplyDefaults()
	result.RecordedAt = s.clock().UTC().Format(time.RFC3339)

	if err := s.results.Save(ctx, &result); err != nil {
		return nil, nil, fmt.Errorf("save result: %w", err)
	}

	backup, err := s.invokeStage(ctx, "historian", invoker.Payload{
		"luta_id":      result.LutaID,
		"winner":       result.Winner,
		"submitted_by": submittedBy,
		"extra":        map[string]any{"method": result.Method, "duration": result.Duration},
	})
	if err != nil {
		return nil, nil, err
	}

	if _, err := s.invokeStage(ctx, "notifier", invoker.Payload{
		"luta_id": result.LutaID,
		"winner":  result.Winner,
		"method":  result.Method,
	}); err != nil {
		s.logger.Warn("result notification failed",
			slog.String("luta_id", result.LutaID),
			slog.String("error", err.Error()))
	}

	return &result, backup, nil
}

// ListAthletes returns all registered athletes.
func (s *Service) ListAthletes(ctx context.Context) ([]*entity.Athlete, error) {
	return s.athletes.List(ctx)
}

// ListBracket returns the current bracket.
func (s *Service) ListBracket(ctx context.Context) ([]entity.Match, error) {
	return s.brackets.List(ctx)
}

// ListResults returns all recorded results.
func (s *Service) ListResults(ctx context.Context) ([]*entity.Result, error) {
	return s.results.List(ctx)
}

// Rankings aggregates the recorded results through the statistics stage.
func (s *Service) Rankings(ctx context.Context) (map[string]any, error) {
	athletes, err := s.athletes.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list athletes: %w", err)
	}
	results, err := s.results.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}

	out, err := s.invokeStage(ctx, "statistics", invoker.Payload{
		"athletes": athletes,
		"results":  results,
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// QueueDepth reports how many match calls are waiting.
func (s *Service) QueueDepth(ctx context.Context) (int, error) {
	return s.queue.Depth(ctx, s.queueName)
}

// invokeStage looks up a registered stage and runs it through the invoker.
func (s *Service) invokeStage(ctx context.Context, name string, payload invoker.Payload) (invoker.Payload, error) {
	fn, ok := s.stages.Get(name)
	if !ok {
		return nil, fmt.Errorf("stage %q is not registered", name)
	}
	return s.inv.Invoke(ctx, fn, payload)
}

// joinStageErrors flattens the validator's error list into one message.
func joinStageErrors(v any) string {
	switch errs := v.(type) {
	case []string:
		return strings.Join(errs, "; ")
	case []any:
		parts := make([]string, 0, len(errs))
		for _, e := range errs {
			parts = append(parts, fmt.Sprint(e))
		}
		return strings.Join(parts, "; ")
	default:
		return "invalid athlete"
	}
}

// remarshal converts a loosely typed stage output into a typed value.
func remarshal(v any, target any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, target)
}

// athleteToMap converts an athlete for a stage payload.
func athleteToMap(a entity.Athlete) map[string]any {
	return map[string]any{
		"name":     a.Name,
		"belt":     a.Belt,
		"category": a.Category,
		"team":     a.Team,
	}
}

// athletesToMaps converts athletes for a queue message.
func athletesToMaps(athletes []entity.Athlete) []any {
	out := make([]any, 0, len(athletes))
	for _, a := range athletes {
		out = append(out, athleteToMap(a))
	}
	return out
}
