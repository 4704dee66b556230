package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"taskflow/core/internal/llm"
	"taskflow/core/internal/schedule"
	"taskflow/core/internal/task"
)

// server bundles the gateway and orchestrator facades behind a small HTTP
// admin/health surface, mirroring the teacher's mux+cors wiring in
// orchestrator/run.go collapsed to this service's actual endpoint set.
type server struct {
	gateway *llm.Gateway
	auth    *llm.AdminAuthenticator
}

func newRouter(s *server) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	r.HandleFunc("/api/v1/complete", s.handleComplete).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/models", s.handleListModels).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/admin/test-all", s.requireAdmin(s.handleTestAll)).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/orchestrate", s.handleOrchestrate).Methods(http.MethodPost)

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})
	return c.Handler(r)
}

func (s *server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get("Authorization")
		if len(token) > 7 && token[:7] == "Bearer " {
			token = token[7:]
		}
		if _, err := s.auth.Verify(token); err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleComplete(w http.ResponseWriter, r *http.Request) {
	var req llm.CompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed request body", http.StatusBadRequest)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 120*time.Second)
	defer cancel()

	result, err := s.gateway.Complete(ctx, req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *server) handleListModels(w http.ResponseWriter, r *http.Request) {
	models := s.gateway.Registry.All()
	redacted := make([]llm.ModelConfig, len(models))
	for i, m := range models {
		m.APIKey = ""
		redacted[i] = m
	}
	writeJSON(w, http.StatusOK, redacted)
}

func (s *server) handleTestAll(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()
	writeJSON(w, http.StatusOK, s.gateway.TestAll(ctx))
}

func (s *server) handleOrchestrate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Tasks  []*task.Task              `json:"tasks"`
		Config *task.OrchestrationConfig `json:"config,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "malformed request body", http.StatusBadRequest)
		return
	}
	cfg := task.DefaultOrchestrationConfig()
	if body.Config != nil {
		cfg = *body.Config
	}

	result, err := schedule.Orchestrate(body.Tasks, cfg)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("gatewayd: failed to encode response: %v", err)
	}
}
