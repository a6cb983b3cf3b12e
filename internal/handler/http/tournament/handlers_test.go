package tournament

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tatami-backend/internal/gateway"
	"tatami-backend/internal/infra/adapter/persistence/filestore"
	"tatami-backend/internal/stage"
	"tatami-backend/internal/substrate/invoker"
	"tatami-backend/internal/substrate/notification"
	"tatami-backend/internal/substrate/queue"
	tourUC "tatami-backend/internal/usecase/tournament"
	"tatami-backend/pkg/ratelimit"
)

type noopDeliverer struct{}

func (noopDeliverer) Deliver(ctx context.Context, payload map[string]any) error { return nil }

func newTestMux(t *testing.T, limit int) *http.ServeMux {
	t.Helper()
	dir := t.TempDir()

	athletes, err := filestore.NewAthleteRepository(dir)
	require.NoError(t, err)
	brackets, err := filestore.NewBracketRepository(dir)
	require.NoError(t, err)
	results, err := filestore.NewResultRepository(dir)
	require.NoError(t, err)
	queueStore, err := queue.NewStore(dir, nil)
	require.NoError(t, err)
	log, err := notification.NewLog(filepath.Join(dir, "sns_log.txt"), nil)
	require.NoError(t, err)

	registry := stage.NewRegistry()
	registry.Register(stage.NewValidator())
	registry.Register(stage.NewMatchmaker(nil,
		stage.WithMatchmakerRand(rand.New(rand.NewSource(7)))))
	registry.Register(stage.NewScheduler())
	registry.Register(stage.NewStatistics())
	registry.Register(stage.NewHistorian(filepath.Join(dir, "backups"), nil))
	registry.Register(stage.NewNotifier(log, noopDeliverer{}, nil))

	svc := tourUC.NewService(tourUC.Config{
		Athletes:  athletes,
		Brackets:  brackets,
		Results:   results,
		Queue:     queueStore,
		QueueName: "lutas",
		Invoker:   invoker.New(nil),
		Stages:    registry,
	})

	limiter := ratelimit.NewLimiter(ratelimit.LimiterConfig{
		Limit:  limit,
		Window: time.Minute,
	})
	gw := gateway.New(limiter, nil, nil)

	mux := http.NewServeMux()
	Register(mux, svc, gw)
	return mux
}

func doJSON(t *testing.T, mux *http.ServeMux, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.RemoteAddr = "10.0.0.1:54321"
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func registerAthlete(t *testing.T, mux *http.ServeMux, name string) {
	t.Helper()
	rec := doJSON(t, mux, http.MethodPost, "/athletes", map[string]string{
		"name":     name,
		"belt":     "Azul",
		"category": "Adulto",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestRegisterAthlete_Created(t *testing.T) {
	mux := newTestMux(t, 100)

	rec := doJSON(t, mux, http.MethodPost, "/athletes", map[string]string{
		"name":     "Ana",
		"belt":     "Roxa",
		"category": "Adulto",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decodeJSON(t, rec)
	athlete, ok := body["athlete"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Ana", athlete["name"])
	assert.Equal(t, "Independente", athlete["team"])
}

func TestRegisterAthlete_MissingFields(t *testing.T) {
	mux := newTestMux(t, 100)

	rec := doJSON(t, mux, http.MethodPost, "/athletes", map[string]string{"name": "Bruno"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decodeJSON(t, rec)
	assert.Contains(t, body["error"], "belt")
	assert.Contains(t, body["error"], "category")
}

func TestRegisterAthlete_MalformedJSON(t *testing.T) {
	mux := newTestMux(t, 100)

	req := httptest.NewRequest(http.MethodPost, "/athletes", bytes.NewBufferString("{not json"))
	req.RemoteAddr = "10.0.0.1:54321"
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeJSON(t, rec)
	assert.Contains(t, body["error"], "valid JSON")
}

func TestGenerateBracket(t *testing.T) {
	mux := newTestMux(t, 100)
	for _, name := range []string{"Ana", "Bruno", "Carla", "Diego"} {
		registerAthlete(t, mux, name)
	}

	rec := doJSON(t, mux, http.MethodPost, "/brackets", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decodeJSON(t, rec)
	matches, ok := body["matches"].([]any)
	require.True(t, ok)
	assert.Len(t, matches, 2)
	assert.NotEmpty(t, body["generated_at"])
}

func TestGenerateBracket_TooFewAthletes(t *testing.T) {
	mux := newTestMux(t, 100)

	rec := doJSON(t, mux, http.MethodPost, "/brackets", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decodeJSON(t, rec)
	assert.Contains(t, body["error"], "two athletes")
}

func TestCallMatch_Accepted(t *testing.T) {
	mux := newTestMux(t, 100)

	rec := doJSON(t, mux, http.MethodPost, "/matches/call", map[string]any{
		"luta_id":  "LUTA-1",
		"athletes": []map[string]string{{"name": "Ana"}, {"name": "Bruno"}},
	})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	body := decodeJSON(t, rec)
	match, ok := body["match"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Classificatórias", match["round"])
	assert.Equal(t, "Principal", match["tatame"])
}

func TestRecordResult_CreatedWithBackup(t *testing.T) {
	mux := newTestMux(t, 100)

	rec := doJSON(t, mux, http.MethodPost, "/results", map[string]string{
		"luta_id": "LUTA-1",
		"winner":  "Ana",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := decodeJSON(t, rec)
	result, ok := body["result"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Pontos", result["method"])

	backup, ok := body["backup"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "BACKED_UP", backup["status"])
}

func TestListAthletes(t *testing.T) {
	mux := newTestMux(t, 100)
	registerAthlete(t, mux, "Ana")
	registerAthlete(t, mux, "Bruno")

	rec := doJSON(t, mux, http.MethodGet, "/athletes", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeJSON(t, rec)
	assert.Equal(t, float64(2), body["count"])
}

func TestRankings(t *testing.T) {
	mux := newTestMux(t, 100)

	for _, winner := range []string{"Ana", "Ana", "Bruno"} {
		rec := doJSON(t, mux, http.MethodPost, "/results", map[string]string{
			"luta_id": "LUTA-1",
			"winner":  winner,
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := doJSON(t, mux, http.MethodGet, "/rankings", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeJSON(t, rec)
	assert.Equal(t, float64(3), body["total_matches"])
	assert.Equal(t, float64(2), body["unique_winners"])
}

func TestStatus_ReportsStats(t *testing.T) {
	mux := newTestMux(t, 100)
	registerAthlete(t, mux, "Ana")

	rec := doJSON(t, mux, http.MethodGet, "/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeJSON(t, rec)
	assert.Equal(t, "tatami-backend", body["service"])

	stats, ok := body["stats"].(map[string]any)
	require.True(t, ok)
	// /status 自身はまだ集計に入らない
	assert.Equal(t, float64(1), stats["total_requests"])

	routes, ok := body["routes"].([]any)
	require.True(t, ok)
	assert.Contains(t, routes, "POST /athletes")
}

func TestRateLimit_AppliesAcrossEndpoints(t *testing.T) {
	mux := newTestMux(t, 2)

	for i := 0; i < 2; i++ {
		rec := doJSON(t, mux, http.MethodGet, "/athletes", nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := doJSON(t, mux, http.MethodGet, "/rankings", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}
