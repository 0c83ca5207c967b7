// Package http implements §6.1's request/response envelope over the
// application mediator: one net/http route per dispatcher method, a shared
// x-api-token gate, and the /healthz and /metrics ops endpoints. Modeled on
// the teacher's DaemonServer.startMetricsServer/stopMetricsServer split
// (internal/adapters/grpc/daemon_server.go) — a plain http.ServeMux and
// http.Server pair with ListenAndServe in a goroutine and Shutdown on
// signal, generalized here from a metrics-only mux to the full API surface.
package http

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gradient-bang/server/internal/adapters/metrics"
	"github.com/gradient-bang/server/internal/application/common"
	"github.com/gradient-bang/server/internal/application/dispatcher"
	"github.com/gradient-bang/server/internal/domain/shared"
)

// LivenessProbe reports ops health for /healthz: time since the tick loop
// last ran and whether the database is reachable.
type LivenessProbe interface {
	LastTick() time.Time
	Ping(ctx context.Context) error
}

// Server is the edge surface: it owns no domain state, only the mediator it
// dispatches onto and the bits of config the envelope itself needs.
type Server struct {
	mediator common.Mediator
	probe    LivenessProbe
	token    string

	httpServer *http.Server
}

// NewServer wires one route per dispatcher.MethodTypes entry plus /healthz
// and /metrics. An empty token runs the local-dev bypass described in §6.1:
// every request is accepted regardless of its x-api-token header.
func NewServer(addr string, m common.Mediator, probe LivenessProbe, token string) *Server {
	s := &Server{mediator: m, probe: probe, token: token}

	mux := http.NewServeMux()
	for method, factory := range dispatcher.MethodTypes {
		mux.HandleFunc("/v1/"+method, s.authenticate(s.handleMethod(method, factory)))
	}
	mux.HandleFunc("/healthz", s.handleHealthz)
	if metrics.IsEnabled() {
		mux.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{EnableOpenMetrics: true}))
	}

	s.httpServer = &http.Server{Addr: addr, Handler: mux}
	return s
}

// Start runs the server in the background; it returns immediately. Bind
// errors other than a clean Shutdown are sent on the returned channel.
func (s *Server) Start() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	return errCh
}

// Stop gracefully drains in-flight requests, capped at 10s.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

// authenticate enforces the x-api-token header (§6.1) ahead of any JSON
// parsing, using a constant-time comparison so token-guessing can't be timed.
func (s *Server) authenticate(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.token != "" {
			supplied := r.Header.Get("x-api-token")
			if subtle.ConstantTimeCompare([]byte(supplied), []byte(s.token)) != 1 {
				writeEnvelope(w, http.StatusForbidden, &dispatcher.Response{Success: false, Error: "invalid x-api-token"})
				return
			}
		}
		next(w, r)
	}
}

// handleMethod decodes the envelope body into the request type registered
// for method, short-circuits healthcheck probes, and otherwise hands the
// request to the mediator, mapping the result (or error) back onto §6.1's
// response envelope and HTTP status table.
func (s *Server) handleMethod(method string, factory func() common.Request) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeEnvelope(w, http.StatusMethodNotAllowed, &dispatcher.Response{Success: false, Error: "method not allowed"})
			return
		}

		request := factory()
		if err := json.NewDecoder(r.Body).Decode(request); err != nil {
			writeEnvelope(w, http.StatusBadRequest, &dispatcher.Response{Success: false, Error: "malformed request body: " + err.Error()})
			return
		}

		if probe, ok := request.(healthcheckRequest); ok && probe.IsHealthcheck() {
			writeEnvelope(w, http.StatusOK, &dispatcher.Response{Success: true, RequestID: probe.GetRequestID()})
			return
		}

		response, err := s.mediator.Send(r.Context(), request)
		if err != nil {
			status := shared.StatusOf(err)
			log.Printf("dispatcher: %s failed: %v", method, err)
			writeEnvelope(w, status, &dispatcher.Response{Success: false, Error: err.Error(), RequestID: requestIDOf(request)})
			return
		}

		env, ok := response.(*dispatcher.Response)
		if !ok {
			writeEnvelope(w, http.StatusInternalServerError, &dispatcher.Response{Success: false, Error: "handler returned an unexpected response type"})
			return
		}
		writeEnvelope(w, http.StatusOK, env)
	}
}

// healthcheckRequest lets the HTTP layer recognize the envelope's optional
// `healthcheck` flag and echo request_id without importing every dispatcher
// request type — dispatcher.Base's promoted methods satisfy this for every
// concrete request struct.
type healthcheckRequest interface {
	IsHealthcheck() bool
	GetRequestID() string
}

func requestIDOf(request common.Request) string {
	if probe, ok := request.(healthcheckRequest); ok {
		return probe.GetRequestID()
	}
	return ""
}

func writeEnvelope(w http.ResponseWriter, status int, env *dispatcher.Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

// handleHealthz reports tick-loop liveness and DB reachability, the same
// two signals the teacher's HealthMonitor tracks for ship/container recovery
// (internal/domain/daemon/health_monitor.go), applied here to the process
// itself rather than to individual ships.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	body := map[string]any{"ok": true}
	status := http.StatusOK

	if s.probe != nil {
		if err := s.probe.Ping(ctx); err != nil {
			body["ok"] = false
			body["db_error"] = err.Error()
			status = http.StatusServiceUnavailable
		}
		lastTick := s.probe.LastTick()
		body["last_tick"] = lastTick
		if !lastTick.IsZero() {
			body["tick_age_seconds"] = fmt.Sprintf("%.1f", time.Since(lastTick).Seconds())
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
