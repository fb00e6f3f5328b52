package observability

import (
	"encoding/json"
	"net/http"
	"time"
)

type HealthStatus string

const (
	HealthStatusHealthy HealthStatus = "healthy"
)

type HealthResponse struct {
	Status    HealthStatus `json:"status"`
	Version   string       `json:"version"`
	Uptime    string       `json:"uptime"`
	LLM       string       `json:"llm"`
	Search    string       `json:"search"`
	AgentMode string       `json:"agent_mode"`
}

// HealthHandler reports liveness plus the static wiring of the process.
func HealthHandler(version, llmClient, searchProvider, mode string) http.Handler {
	start := time.Now()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{
			Status:    HealthStatusHealthy,
			Version:   version,
			Uptime:    time.Since(start).Round(time.Second).String(),
			LLM:       llmClient,
			Search:    searchProvider,
			AgentMode: mode,
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(resp)
	})
}
