package api

import (
	"encoding/json"
	"net/http"

	"orgscout/app"
	"orgscout/domain/signal"
	"orgscout/internal/errors"
)

type validateRequest struct {
	Candidates []signal.CandidateSignal `json:"candidates"`
}

// handleValidateSignals validates a batch of candidate signals. An empty
// batch returns an all-zero summary.
func (a *App) handleValidateSignals(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, http.StatusBadRequest, errors.InvalidInput("invalid request body: "+err.Error()))
		return
	}

	summary, err := a.validation.ValidateBatch(r.Context(), req.Candidates)
	if err != nil {
		a.writeError(w, statusFor(err), err)
		return
	}

	a.writeJSON(w, http.StatusOK, summary)
}

type discoveryRequest struct {
	Orgs []app.Org `json:"organizations"`
}

// handleRunDiscovery runs the discovery loop for each organization and
// returns the per-organization outcome.
func (a *App) handleRunDiscovery(w http.ResponseWriter, r *http.Request) {
	var req discoveryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, http.StatusBadRequest, errors.InvalidInput("invalid request body: "+err.Error()))
		return
	}
	if len(req.Orgs) == 0 {
		a.writeError(w, http.StatusBadRequest, errors.InvalidInput("at least one organization is required"))
		return
	}
	for _, org := range req.Orgs {
		if org.EntityID.String() == "" || org.Name == "" {
			a.writeError(w, http.StatusBadRequest, errors.InvalidInput("organizations need entity_id and name"))
			return
		}
	}

	rep := a.discovery.RunBatch(r.Context(), req.Orgs)
	a.writeJSON(w, http.StatusOK, rep)
}

// handleRunReport returns the latest batch report, rendered per the Accept
// header: JSON by default, text/markdown or text/html on request.
func (a *App) handleRunReport(w http.ResponseWriter, r *http.Request) {
	rep := a.discovery.LastReport()
	if rep == nil {
		a.writeError(w, http.StatusNotFound, errors.NotFound("run report"))
		return
	}

	switch r.Header.Get("Accept") {
	case "text/markdown":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(rep.Markdown()))
	case "text/html":
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write(rep.HTML())
	default:
		a.writeJSON(w, http.StatusOK, rep)
	}
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *App) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.log.Error("failed to encode response: %v", err)
	}
}

func (a *App) writeError(w http.ResponseWriter, status int, err error) {
	a.log.Warn("request failed (%d): %v", status, err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	payload := map[string]string{
		"error": err.Error(),
		"code":  errors.GetCode(err),
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		a.log.Error("failed to encode error response: %v", err)
	}
}

func statusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.CodeInvalidInput:
		return http.StatusBadRequest
	case errors.CodeNotFound:
		return http.StatusNotFound
	case errors.CodeExternalService, errors.CodeMalformedResponse:
		return http.StatusBadGateway
	case errors.CodeDatabaseError:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
