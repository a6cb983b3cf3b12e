package stage

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tatami-backend/internal/substrate/invoker"
)

func resultsPayload(winners ...string) invoker.Payload {
	results := make([]map[string]any, 0, len(winners))
	for i, winner := range winners {
		results = append(results, map[string]any{
			"luta_id": "LUTA-" + string(rune('1'+i)),
			"winner":  winner,
		})
	}
	return invoker.Payload{"results": results}
}

func decodeRanking(t *testing.T, out invoker.Payload) []RankingEntry {
	t.Helper()
	data, err := json.Marshal(out["ranking"])
	require.NoError(t, err)
	var ranking []RankingEntry
	require.NoError(t, json.Unmarshal(data, &ranking))
	return ranking
}

func TestStatistics_Handle_Ranking(t *testing.T) {
	s := NewStatistics()

	out, err := s.Handle(context.Background(), invoker.InvocationContext{},
		resultsPayload("A", "A", "B"))
	require.NoError(t, err)

	assert.Equal(t, float64(3), out["total_matches"])
	assert.Equal(t, float64(2), out["unique_winners"])

	ranking := decodeRanking(t, out)
	require.Len(t, ranking, 2)
	assert.Equal(t, RankingEntry{Athlete: "A", Wins: 2}, ranking[0])
	assert.Equal(t, RankingEntry{Athlete: "B", Wins: 1}, ranking[1])
}

func TestStatistics_Handle_TiesKeepFirstSeenOrder(t *testing.T) {
	s := NewStatistics()

	out, err := s.Handle(context.Background(), invoker.InvocationContext{},
		resultsPayload("B", "A", "A", "B", "C"))
	require.NoError(t, err)

	ranking := decodeRanking(t, out)
	require.Len(t, ranking, 3)
	// BとAは2勝で並ぶが、Bが先に登場している
	assert.Equal(t, "B", ranking[0].Athlete)
	assert.Equal(t, "A", ranking[1].Athlete)
	assert.Equal(t, "C", ranking[2].Athlete)
}

func TestStatistics_Handle_EmptyResults(t *testing.T) {
	s := NewStatistics()

	out, err := s.Handle(context.Background(), invoker.InvocationContext{},
		invoker.Payload{"results": []map[string]any{}})
	require.NoError(t, err)

	assert.Equal(t, float64(0), out["total_matches"])
	assert.Equal(t, float64(0), out["unique_winners"])
	assert.Empty(t, decodeRanking(t, out))
}

func TestStatistics_Handle_SkipsEmptyWinner(t *testing.T) {
	s := NewStatistics()

	out, err := s.Handle(context.Background(), invoker.InvocationContext{},
		resultsPayload("A", ""))
	require.NoError(t, err)

	assert.Equal(t, float64(2), out["total_matches"])
	assert.Equal(t, float64(1), out["unique_winners"])
}
