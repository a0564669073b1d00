package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

const maxStepsPerRequest = 10000

type stepRequest struct {
	Steps int `json:"steps"`
}

// Step advances the simulation and broadcasts a snapshot after every
// completed step.
func (h *Handler) Step(w http.ResponseWriter, r *http.Request) {
	var req stepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Steps == 0 {
		req.Steps = 1
	}
	if req.Steps < 0 || req.Steps > maxStepsPerRequest {
		respondError(w, http.StatusBadRequest, "steps out of range")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for i := 0; i < req.Steps; i++ {
		h.simulator.Step()
		h.hub.BroadcastStep(h.simulator.Snapshot())
	}
	respondJSON(w, http.StatusOK, h.simulator.Snapshot())
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()
	respondJSON(w, http.StatusOK, h.simulator.Snapshot())
}

type agentSummary struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Wallet string `json:"wallet"`
}

func (h *Handler) ListAgents(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()
	agents := h.simulator.Agents()
	out := make([]agentSummary, 0, len(agents))
	for _, agent := range agents {
		out = append(out, agentSummary{
			ID:     agent.ID(),
			Name:   agent.Name(),
			Wallet: agent.Wallet().Amount().String(),
		})
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *Handler) AgentCounters(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.mu.Lock()
	defer h.mu.Unlock()
	agent, ok := h.simulator.AgentByID(id)
	if !ok {
		respondError(w, http.StatusNotFound, "agent not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"id":       agent.ID(),
		"name":     agent.Name(),
		"counters": agent.Counters().Snapshot(),
	})
}
