package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"budgetvoice/internal/assistant"
	"budgetvoice/internal/dialogue"
	"budgetvoice/internal/ledger"
	"budgetvoice/internal/log"
	"budgetvoice/internal/narration"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
)

// Deps are the collaborators the server exposes. Conversation and Hub are
// optional: without them the assistant and websocket routes answer 503.
type Deps struct {
	Ledger       *ledger.Ledger
	Controller   *dialogue.Controller
	Hub          *narration.Hub
	Sink         narration.Sink
	Conversation *assistant.Conversation
	Logger       *log.Logger
}

type Server struct {
	http.Server

	ledger       *ledger.Ledger
	controller   *dialogue.Controller
	hub          *narration.Hub
	sink         narration.Sink
	conversation *assistant.Conversation
	logger       *log.Logger

	limiter  *rateLimiter
	metrics  securityMetrics
	upgrader websocket.Upgrader
	now      func() time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and returns a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.Default()
	}
	sink := deps.Sink
	if sink == nil {
		sink = narration.Discard
		if deps.Hub != nil {
			sink = deps.Hub
		}
	}

	s := &Server{
		ledger:       deps.Ledger,
		controller:   deps.Controller,
		hub:          deps.Hub,
		sink:         sink,
		conversation: deps.Conversation,
		logger:       logger.WithComponent(log.ComponentHTTP),
		limiter:      newRateLimiter(defaultRateLimit, defaultRateWindow),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		now: time.Now,
	}
	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(log.Middleware(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders)
	r.Use(s.rejectSuspicious)

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/ws", s.handleWebSocket)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.rateLimit)

		r.Get("/status", s.handleStatus)

		r.Route("/expenses", func(r chi.Router) {
			r.Get("/", s.handleListExpenses)
			r.Post("/", s.handleCreateExpense)
			r.Get("/recent", s.handleRecentExpenses)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetExpense)
				r.Put("/", s.handleUpdateExpense)
				r.Delete("/", s.handleDeleteExpense)
			})
		})
		r.Get("/categories", s.handleCategories)
		r.Get("/budget", s.handleBudget)
		r.Put("/budget", s.handleSetBase)
		r.Get("/overview", s.handleOverview)

		r.Post("/listen", s.handleStartListening)
		r.Delete("/listen", s.handleCancel)
		r.Post("/utterances", s.handleUtterance)
		r.Get("/session", s.handleSession)

		r.Post("/assistant", s.handleAssistant)
		r.Get("/assistant/history", s.handleAssistantHistory)
	})
	return r
}

// Shutdown stops the limiter and drains the HTTP server. Safe to call twice.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady reports a degraded ledger as not ready; the API keeps serving
// from memory either way.
func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	if err := s.ledger.Warning(); err != nil {
		NewResponse().Status(http.StatusServiceUnavailable).
			JSON(map[string]string{"status": "degraded", "warning": err.Error()}).
			Write(w)
		return
	}
	NewResponse().JSON(map[string]string{"status": "ready"}).Write(w)
}

type statusResponse struct {
	Budget   string           `json:"budget"`
	Base     string           `json:"base"`
	Warning  string           `json:"warning,omitempty"`
	Session  sessionResponse  `json:"session"`
	Security securitySnapshot `json:"security"`
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	resp := statusResponse{
		Budget:   s.ledger.Budget().String(),
		Base:     s.ledger.Base().String(),
		Session:  toSessionResponse(s.controller.Session()),
		Security: s.metrics.snapshot(),
	}
	if err := s.ledger.Warning(); err != nil {
		resp.Warning = err.Error()
	}
	NewResponse().JSON(resp).Write(w)
}
