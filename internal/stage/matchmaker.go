package stage

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"tatami-backend/internal/domain/entity"
	"tatami-backend/internal/substrate/invoker"
)

// Matchmaker builds bracket matches from the registered athletes.
//
// Input:  {"athletes": [Athlete]}
// Output: {"matches": [Match], "generated_at": RFC3339 timestamp}
//
// Athletes are shuffled, then paired sequentially. An odd leftover athlete
// gets a bye match tagged "Avanço Automático" with a "-BYE" suffixed ID.
// Fewer than two athletes yields an empty match list rather than an error.
type Matchmaker struct {
	rng    *rand.Rand
	clock  func() time.Time
	logger *slog.Logger
}

// MatchmakerOption configures a Matchmaker.
type MatchmakerOption func(*Matchmaker)

// WithMatchmakerRand fixes the shuffle source, for deterministic tests.
func WithMatchmakerRand(rng *rand.Rand) MatchmakerOption {
	return func(m *Matchmaker) {
		m.rng = rng
	}
}

// WithMatchmakerClock overrides the time source, for tests.
func WithMatchmakerClock(clock func() time.Time) MatchmakerOption {
	return func(m *Matchmaker) {
		m.clock = clock
	}
}

// NewMatchmaker creates the matchmaker stage.
func NewMatchmaker(logger *slog.Logger, opts ...MatchmakerOption) *Matchmaker {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Matchmaker{
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		clock:  time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Name implements invoker.Function.
func (m *Matchmaker) Name() string { return "matchmaker" }

// Handle implements invoker.Function.
func (m *Matchmaker) Handle(ctx context.Context, ictx invoker.InvocationContext, payload invoker.Payload) (invoker.Payload, error) {
	var input struct {
		Athletes []entity.Athlete `json:"athletes"`
	}
	if err := decodePayload(payload, &input); err != nil {
		return nil, err
	}

	matches := m.pair(input.Athletes)

	m.logger.Info("bracket generated",
		slog.Int("athletes", len(input.Athletes)),
		slog.Int("matches", len(matches)))

	out, err := encodePayload(struct {
		Matches     []entity.Match `json:"matches"`
		GeneratedAt string         `json:"generated_at"`
	}{
		Matches:     matches,
		GeneratedAt: m.clock().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// pair shuffles the athletes and forms sequential pairs.
func (m *Matchmaker) pair(athletes []entity.Athlete) []entity.Match {
	if len(athletes) < 2 {
		return []entity.Match{}
	}

	shuffled := make([]entity.Athlete, len(athletes))
	copy(shuffled, athletes)
	m.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	var matches []entity.Match
	for idx := 0; idx < len(shuffled); idx += 2 {
		pair := shuffled[idx:min(idx+2, len(shuffled))]
		lutaID := fmt.Sprintf("%s%d", entity.MatchIDPrefix, idx/2+1)

		if len(pair) == 2 {
			matches = append(matches, entity.Match{
				LutaID:   lutaID,
				Athletes: []entity.Athlete{pair[0], pair[1]},
				Round:    entity.RoundQualifiers,
			})
		} else {
			// 相手のいない最後の1人は不戦勝
			matches = append(matches, entity.Match{
				LutaID:   lutaID + entity.ByeMatchIDSuffix,
				Athletes: []entity.Athlete{pair[0]},
				Round:    entity.RoundBye,
			})
		}
	}
	return matches
}
