// Package api implements the HTTP transport: request decoding, per-cluster
// serialization, and wiring the Resource Accountant / Queue Store / Ledger
// together around one scheduling pass per request.
package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/hyperctl/hypervisor/pkg/auth"
	"github.com/hyperctl/hypervisor/pkg/events"
	"github.com/hyperctl/hypervisor/pkg/log"
	"github.com/hyperctl/hypervisor/pkg/metrics"
	"github.com/hyperctl/hypervisor/pkg/scheduler"
	"github.com/hyperctl/hypervisor/pkg/storage"
	"github.com/rs/zerolog"
)

// Server is the HTTP transport adapter: one Controller wired into a
// gorilla/mux router plus the prometheus and healthz endpoints.
type Server struct {
	router     *mux.Router
	controller *Controller
	logger     zerolog.Logger
}

// Dependencies are everything the Controller needs, handed in by
// cmd/hypervisord after config load.
type Dependencies struct {
	Store     storage.Store
	Queue     scheduler.Queue
	Issuer    *auth.TokenIssuer
	Broker    *events.Broker
	HealthzFn func(ctx context.Context) error
}

// NewServer builds the router and registers every route.
func NewServer(deps Dependencies) *Server {
	s := &Server{
		controller: NewController(deps.Store, deps.Queue, deps.Issuer, deps.Broker),
		logger:     log.WithComponent("api"),
	}

	r := mux.NewRouter()
	r.Use(s.loggingMiddleware)
	r.Use(s.metricsMiddleware)

	r.HandleFunc("/healthz", healthzHandler(deps.HealthzFn)).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/events", s.handleEvents).Methods(http.MethodGet)

	r.HandleFunc("/users/register", s.handleRegister).Methods(http.MethodPost)
	r.HandleFunc("/users/login", s.handleLogin).Methods(http.MethodPost)

	authed := r.NewRoute().Subrouter()
	authed.Use(s.authMiddleware)

	authed.HandleFunc("/organizations", s.handleCreateOrganization).Methods(http.MethodPost)
	authed.HandleFunc("/organizations/join", s.handleJoinOrganization).Methods(http.MethodPost)

	authed.HandleFunc("/clusters", s.handleCreateCluster).Methods(http.MethodPost)
	authed.HandleFunc("/clusters", s.handleListClusters).Methods(http.MethodGet)
	authed.HandleFunc("/clusters/{id}", s.handleGetCluster).Methods(http.MethodGet)

	authed.HandleFunc("/deployments", s.handleCreateDeployment).Methods(http.MethodPost)
	authed.HandleFunc("/deployments/{id}", s.handleGetDeployment).Methods(http.MethodGet)
	authed.HandleFunc("/deployments/{id}/complete", s.handleCompleteDeployment).Methods(http.MethodPost)

	s.router = r
	return s
}

// ServeHTTP makes Server an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.New().String()
		logger := log.WithRequestID(requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		ctx := context.WithValue(r.Context(), ctxKeyRequestLogger, logger)
		next.ServeHTTP(rec, r.WithContext(ctx))

		logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("request handled")
	})
}

func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := "unknown"
		if m, err := mux.CurrentRoute(r).GetPathTemplate(); err == nil {
			route = m
		}
		timer := metrics.NewTimer()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		timer.ObserveDurationVec(metrics.APIRequestDuration, r.Method, route)
		metrics.APIRequestsTotal.WithLabelValues(r.Method, route, http.StatusText(rec.status)).Inc()
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func healthzHandler(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check == nil {
			w.WriteHeader(http.StatusOK)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := check(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(err.Error()))
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

// Controller orchestrates Store + Queue + Scheduler, taking a per-cluster
// lock before any scheduling pass so two requests touching the same
// cluster never interleave.
type Controller struct {
	store     storage.Store
	scheduler *scheduler.Scheduler
	issuer    *auth.TokenIssuer
	broker    *events.Broker

	clusterLocksMu sync.Mutex
	clusterLocks   map[string]*sync.Mutex
}

// NewController wires Store, Queue, and TokenIssuer into a Controller.
// broker may be nil, in which case status transitions are never published.
func NewController(store storage.Store, q scheduler.Queue, issuer *auth.TokenIssuer, broker *events.Broker) *Controller {
	return &Controller{
		store:        store,
		scheduler:    scheduler.New(q),
		issuer:       issuer,
		broker:       broker,
		clusterLocks: make(map[string]*sync.Mutex),
	}
}

// lockCluster returns the mutex serializing scheduling passes for clusterID,
// creating it on first use.
func (c *Controller) lockCluster(clusterID string) *sync.Mutex {
	c.clusterLocksMu.Lock()
	defer c.clusterLocksMu.Unlock()
	m, ok := c.clusterLocks[clusterID]
	if !ok {
		m = &sync.Mutex{}
		c.clusterLocks[clusterID] = m
	}
	return m
}
