// Package tournament provides the HTTP handlers for the tournament
// endpoints. Every handler routes through the gateway pipeline, so rate
// limiting, the auth gate, error shaping, and the audit log apply uniformly;
// the handlers themselves only decode input and call the use case.
package tournament

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"tatami-backend/internal/domain/entity"
	"tatami-backend/internal/gateway"
	"tatami-backend/internal/handler/http/middleware"
	"tatami-backend/internal/handler/http/respond"
	tourUC "tatami-backend/internal/usecase/tournament"
)

// route dispatches through the gateway and writes the shaped response.
func route(w http.ResponseWriter, r *http.Request, gw *gateway.Gateway, path string, handler gateway.Handler) {
	resp := gw.Route(r.Context(), r.Method, path, handler, middleware.ExtractIP(r), r.Header)
	respond.JSON(w, resp.StatusCode, resp.Body)
}

// decodeBody decodes a JSON request body, mapping malformed JSON to a
// client-visible invalid-input error.
func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: request body must be valid JSON", entity.ErrInvalidInput)
	}
	return nil
}

// RegisterAthleteHandler handles POST /athletes.
type RegisterAthleteHandler struct {
	Svc *tourUC.Service
	GW  *gateway.Gateway
}

func (h RegisterAthleteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	route(w, r, h.GW, "/athletes", func(ctx context.Context) (map[string]any, int, error) {
		var req entity.Athlete
		if err := decodeBody(r, &req); err != nil {
			return nil, 0, err
		}

		saved, err := h.Svc.RegisterAthlete(ctx, req)
		if err != nil {
			return nil, 0, err
		}
		return map[string]any{
			"message": "athlete registered",
			"athlete": saved,
		}, http.StatusCreated, nil
	})
}

// GenerateBracketHandler handles POST /brackets.
type GenerateBracketHandler struct {
	Svc *tourUC.Service
	GW  *gateway.Gateway
}

func (h GenerateBracketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	route(w, r, h.GW, "/brackets", func(ctx context.Context) (map[string]any, int, error) {
		scheduled, generatedAt, err := h.Svc.GenerateBracket(ctx)
		if err != nil {
			return nil, 0, err
		}
		return map[string]any{
			"matches":      scheduled,
			"generated_at": generatedAt,
		}, http.StatusOK, nil
	})
}

// CallMatchHandler handles POST /matches/call.
type CallMatchHandler struct {
	Svc *tourUC.Service
	GW  *gateway.Gateway
}

func (h CallMatchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	route(w, r, h.GW, "/matches/call", func(ctx context.Context) (map[string]any, int, error) {
		var req tourUC.CallMatchInput
		if err := decodeBody(r, &req); err != nil {
			return nil, 0, err
		}

		message, err := h.Svc.CallMatch(ctx, req)
		if err != nil {
			return nil, 0, err
		}
		// 202: アナウンスはワーカーが後で行う
		return map[string]any{
			"message": "match call accepted",
			"match":   map[string]any(message),
		}, http.StatusAccepted, nil
	})
}

// RecordResultHandler handles POST /results.
type RecordResultHandler struct {
	Svc *tourUC.Service
	GW  *gateway.Gateway
}

func (h RecordResultHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	route(w, r, h.GW, "/results", func(ctx context.Context) (map[string]any, int, error) {
		var req struct {
			entity.Result
			SubmittedBy string `json:"submitted_by"`
		}
		if err := decodeBody(r, &req); err != nil {
			return nil, 0, err
		}

		saved, backup, err := h.Svc.RecordResult(ctx, req.Result, req.SubmittedBy)
		if err != nil {
			return nil, 0, err
		}
		return map[string]any{
			"message": "result recorded",
			"result":  saved,
			"backup":  backup,
		}, http.StatusCreated, nil
	})
}

// ListAthletesHandler handles GET /athletes.
type ListAthletesHandler struct {
	Svc *tourUC.Service
	GW  *gateway.Gateway
}

func (h ListAthletesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	route(w, r, h.GW, "/athletes", func(ctx context.Context) (map[string]any, int, error) {
		athletes, err := h.Svc.ListAthletes(ctx)
		if err != nil {
			return nil, 0, err
		}
		return map[string]any{
			"athletes": athletes,
			"count":    len(athletes),
		}, http.StatusOK, nil
	})
}

// ListResultsHandler handles GET /results.
type ListResultsHandler struct {
	Svc *tourUC.Service
	GW  *gateway.Gateway
}

func (h ListResultsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	route(w, r, h.GW, "/results", func(ctx context.Context) (map[string]any, int, error) {
		results, err := h.Svc.ListResults(ctx)
		if err != nil {
			return nil, 0, err
		}
		return map[string]any{
			"results": results,
			"count":   len(results),
		}, http.StatusOK, nil
	})
}

// RankingsHandler handles GET /rankings.
type RankingsHandler struct {
	Svc *tourUC.Service
	GW  *gateway.Gateway
}

func (h RankingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	route(w, r, h.GW, "/rankings", func(ctx context.Context) (map[string]any, int, error) {
		rankings, err := h.Svc.Rankings(ctx)
		if err != nil {
			return nil, 0, err
		}
		return rankings, http.StatusOK, nil
	})
}

// StatusHandler handles GET /status: the route list plus gateway activity.
type StatusHandler struct {
	GW     *gateway.Gateway
	Routes []string
}

func (h StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	route(w, r, h.GW, "/status", func(ctx context.Context) (map[string]any, int, error) {
		stats := h.GW.Stats(ctx)
		return map[string]any{
			"service": "tatami-backend",
			"routes":  h.Routes,
			"stats":   stats,
		}, http.StatusOK, nil
	})
}
