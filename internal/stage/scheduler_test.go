package stage

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tatami-backend/internal/domain/entity"
	"tatami-backend/internal/substrate/invoker"
)

func TestScheduler_Handle(t *testing.T) {
	fixed := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	s := NewScheduler(WithSchedulerClock(func() time.Time { return fixed }))

	payload := invoker.Payload{
		"matches": []map[string]any{
			{"luta_id": "LUTA-1", "round": "Classificatórias"},
			{"luta_id": "LUTA-2", "round": "Classificatórias"},
			{"luta_id": "LUTA-3", "round": "Classificatórias"},
		},
	}

	out, err := s.Handle(context.Background(), invoker.InvocationContext{}, payload)
	require.NoError(t, err)

	data, err := json.Marshal(out["scheduled_matches"])
	require.NoError(t, err)
	var scheduled []entity.ScheduledMatch
	require.NoError(t, json.Unmarshal(data, &scheduled))
	require.Len(t, scheduled, 3)

	// 10分間隔の決定的なスロット割り当て
	assert.Equal(t, "2025-06-01T09:00:00Z", scheduled[0].ScheduledAt)
	assert.Equal(t, "2025-06-01T09:10:00Z", scheduled[1].ScheduledAt)
	assert.Equal(t, "2025-06-01T09:20:00Z", scheduled[2].ScheduledAt)

	// 畳は交互に割り当てられる
	assert.Equal(t, entity.DefaultMat, scheduled[0].Mat)
	assert.Equal(t, "Tatame 2", scheduled[1].Mat)
	assert.Equal(t, entity.DefaultMat, scheduled[2].Mat)
}

func TestScheduler_Handle_Deterministic(t *testing.T) {
	fixed := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	s := NewScheduler(WithSchedulerClock(func() time.Time { return fixed }))

	payload := invoker.Payload{
		"matches": []map[string]any{{"luta_id": "LUTA-1"}},
	}

	first, err := s.Handle(context.Background(), invoker.InvocationContext{}, payload)
	require.NoError(t, err)
	second, err := s.Handle(context.Background(), invoker.InvocationContext{}, payload)
	require.NoError(t, err)
	assert.Equal(t, first, second, "same bracket and base time must schedule identically")
}

func TestScheduler_Handle_EmptyMatches(t *testing.T) {
	s := NewScheduler()
	out, err := s.Handle(context.Background(), invoker.InvocationContext{},
		invoker.Payload{"matches": []map[string]any{}})
	require.NoError(t, err)
	assert.Empty(t, out["scheduled_matches"])
}
