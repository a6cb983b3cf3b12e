package tournament

import (
	"net/http"

	"tatami-backend/internal/gateway"
	tourUC "tatami-backend/internal/usecase/tournament"
)

// Routes lists the tournament endpoints, in the order /status reports them.
var Routes = []string{
	"POST /athletes",
	"GET /athletes",
	"POST /brackets",
	"POST /matches/call",
	"POST /results",
	"GET /results",
	"GET /rankings",
	"GET /status",
}

// Register registers the tournament endpoints on the mux, all behind the
// gateway pipeline.
func Register(mux *http.ServeMux, svc *tourUC.Service, gw *gateway.Gateway) {
	mux.Handle("POST /athletes", RegisterAthleteHandler{Svc: svc, GW: gw})
	mux.Handle("GET /athletes", ListAthletesHandler{Svc: svc, GW: gw})
	mux.Handle("POST /brackets", GenerateBracketHandler{Svc: svc, GW: gw})
	mux.Handle("POST /matches/call", CallMatchHandler{Svc: svc, GW: gw})
	mux.Handle("POST /results", RecordResultHandler{Svc: svc, GW: gw})
	mux.Handle("GET /results", ListResultsHandler{Svc: svc, GW: gw})
	mux.Handle("GET /rankings", RankingsHandler{Svc: svc, GW: gw})
	mux.Handle("GET /status", StatusHandler{GW: gw, Routes: Routes})
}
