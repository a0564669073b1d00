package handlers

import (
	"encoding/json"
	"net/http"
	"sync"

	"econsim/internal/auth"
	"econsim/internal/config"
	"econsim/internal/sim"
	"econsim/internal/websocket"
)

// Simulator is the slice of the model the control plane needs. All
// mutation goes through Step, serialized by the handler mutex so the
// single-threaded execution model survives concurrent HTTP clients.
type Simulator interface {
	Step()
	Snapshot() sim.StepSnapshot
	Agents() []sim.Agent
	AgentByID(id string) (sim.Agent, bool)
}

type Handler struct {
	cfg          config.Config
	simulator    Simulator
	hub          *websocket.Hub
	operatorHash string

	mu sync.Mutex
}

func New(cfg config.Config, simulator Simulator, hub *websocket.Hub) (*Handler, error) {
	operatorHash, err := auth.HashPassword(cfg.OperatorPassword)
	if err != nil {
		return nil, err
	}
	return &Handler{
		cfg:          cfg,
		simulator:    simulator,
		hub:          hub,
		operatorHash: operatorHash,
	}, nil
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
