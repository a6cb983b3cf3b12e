package stage

import (
	"context"
	"sort"

	"tatami-backend/internal/domain/entity"
	"tatami-backend/internal/substrate/invoker"
)

// RankingEntry is one row of the statistics ranking.
type RankingEntry struct {
	Athlete string `json:"athlete"`
	Wins    int    `json:"wins"`
}

// Statistics aggregates recorded results into a ranking.
//
// Input:  {"athletes": [Athlete], "results": [Result]}
// Output: {"total_matches": int, "unique_winners": int, "ranking": [RankingEntry]}
//
// The ranking is sorted by wins descending; athletes with equal wins keep
// the order in which their first win appeared in the results.
type Statistics struct{}

// NewStatistics creates the statistics stage.
func NewStatistics() *Statistics {
	return &Statistics{}
}

// Name implements invoker.Function.
func (s *Statistics) Name() string { return "statistics" }

// Handle implements invoker.Function.
func (s *Statistics) Handle(ctx context.Context, ictx invoker.InvocationContext, payload invoker.Payload) (invoker.Payload, error) {
	var input struct {
		Athletes []entity.Athlete `json:"athletes"`
		Results  []entity.Result  `json:"results"`
	}
	if err := decodePayload(payload, &input); err != nil {
		return nil, err
	}

	wins := make(map[string]int)
	firstSeen := make(map[string]int)
	for i, result := range input.Results {
		if result.Winner == "" {
			continue
		}
		if _, seen := wins[result.Winner]; !seen {
			firstSeen[result.Winner] = i
		}
		wins[result.Winner]++
	}

	ranking := make([]RankingEntry, 0, len(wins))
	for athlete, count := range wins {
		ranking = append(ranking, RankingEntry{Athlete: athlete, Wins: count})
	}
	sort.SliceStable(ranking, func(i, j int) bool {
		if ranking[i].Wins != ranking[j].Wins {
			return ranking[i].Wins > ranking[j].Wins
		}
		// 同勝数は初登場順
		return firstSeen[ranking[i].Athlete] < firstSeen[ranking[j].Athlete]
	})

	out, err := encodePayload(struct {
		TotalMatches  int            `json:"total_matches"`
		UniqueWinners int            `json:"unique_winners"`
		Ranking       []RankingEntry `json:"ranking"`
	}{
		TotalMatches:  len(input.Results),
		UniqueWinners: len(wins),
		Ranking:       ranking,
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
