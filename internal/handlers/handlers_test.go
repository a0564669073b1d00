package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"econsim/internal/auth"
	"econsim/internal/config"
	"econsim/internal/metrics"
	"econsim/internal/money"
	"econsim/internal/sim"
	"econsim/internal/websocket"
)

type stubAgent struct {
	id       string
	name     string
	counters *metrics.Counters
	wallet   money.Credit
}

func (a *stubAgent) ID() string                  { return a.id }
func (a *stubAgent) Name() string                { return a.name }
func (a *stubAgent) Counters() *metrics.Counters { return a.counters }
func (a *stubAgent) Wallet() money.Credit        { return a.wallet }

type stubSimulator struct {
	steps  int
	agents []sim.Agent
}

func (s *stubSimulator) Step() { s.steps++ }
func (s *stubSimulator) Snapshot() sim.StepSnapshot {
	return sim.StepSnapshot{Step: s.steps, Conserved: true}
}
func (s *stubSimulator) Agents() []sim.Agent { return s.agents }
func (s *stubSimulator) AgentByID(id string) (sim.Agent, bool) {
	for _, agent := range s.agents {
		if agent.ID() == id {
			return agent, true
		}
	}
	return nil, false
}

func testConfig() config.Config {
	return config.Config{
		JWTSecret:        "secret",
		TokenTTL:         time.Minute,
		AllowedOrigins:   "*",
		OperatorPassword: "operator",
	}
}

func testHandler(t *testing.T, simulator Simulator) *Handler {
	t.Helper()
	h, err := New(testConfig(), simulator, websocket.NewHub())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return h
}

func bearer(t *testing.T) string {
	t.Helper()
	token, err := auth.GenerateToken("secret", "operator", time.Minute)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	return "Bearer " + token
}

func TestLogin(t *testing.T) {
	h := testHandler(t, &stubSimulator{})
	router := h.Routes()

	body := bytes.NewBufferString(`{"password":"operator"}`)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/auth/login", body))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["token"] == "" {
		t.Fatalf("expected a token in the response")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	h := testHandler(t, &stubSimulator{})
	router := h.Routes()

	body := bytes.NewBufferString(`{"password":"wrong"}`)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/auth/login", body))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestStepRequiresAuth(t *testing.T) {
	h := testHandler(t, &stubSimulator{})
	router := h.Routes()

	body := bytes.NewBufferString(`{"steps":1}`)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/simulation/step", body))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestStepAdvancesSimulation(t *testing.T) {
	simulator := &stubSimulator{}
	h := testHandler(t, simulator)
	router := h.Routes()

	body := bytes.NewBufferString(`{"steps":3}`)
	req := httptest.NewRequest(http.MethodPost, "/simulation/step", body)
	req.Header.Set("Authorization", bearer(t))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if simulator.steps != 3 {
		t.Fatalf("expected 3 steps taken, got %d", simulator.steps)
	}
	var snap sim.StepSnapshot
	if err := json.Unmarshal(rr.Body.Bytes(), &snap); err != nil {
		t.Fatalf("failed to decode snapshot: %v", err)
	}
	if snap.Step != 3 {
		t.Fatalf("expected snapshot at step 3, got %d", snap.Step)
	}
}

func TestStepRejectsOutOfRange(t *testing.T) {
	h := testHandler(t, &stubSimulator{})
	router := h.Routes()

	body := bytes.NewBufferString(`{"steps":-1}`)
	req := httptest.NewRequest(http.MethodPost, "/simulation/step", body)
	req.Header.Set("Authorization", bearer(t))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestListAgentsAndCounters(t *testing.T) {
	cur, err := money.NewCurrency(money.Spec{
		Code: "SIM", Symbol: "$", UnitName: "dollar", Precision: 2,
	})
	if err != nil {
		t.Fatalf("NewCurrency returned error: %v", err)
	}
	counters := metrics.NewCounters()
	_ = counters.AddInt(true, "loans_incurred")
	_ = counters.Inc("loans_incurred")
	agent := &stubAgent{id: "agent-1", name: "household", counters: counters, wallet: cur.FromInt(25)}
	h := testHandler(t, &stubSimulator{agents: []sim.Agent{agent}})
	router := h.Routes()

	req := httptest.NewRequest(http.MethodGet, "/agents", nil)
	req.Header.Set("Authorization", bearer(t))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var agents []agentSummary
	if err := json.Unmarshal(rr.Body.Bytes(), &agents); err != nil {
		t.Fatalf("failed to decode agents: %v", err)
	}
	if len(agents) != 1 || agents[0].Wallet != "25" {
		t.Fatalf("unexpected agents payload: %+v", agents)
	}

	req = httptest.NewRequest(http.MethodGet, "/agents/agent-1/counters", nil)
	req.Header.Set("Authorization", bearer(t))
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/agents/missing/counters", nil)
	req.Header.Set("Authorization", bearer(t))
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown agent, got %d", rr.Code)
	}
}

func TestHealth(t *testing.T) {
	h := testHandler(t, &stubSimulator{})
	router := h.Routes()

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}
