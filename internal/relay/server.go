package relay

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/dshills/richsync/internal/config"
	"github.com/dshills/richsync/internal/logging"
)

// Server is the relay's HTTP face: one websocket endpoint per session and a
// health probe.
type Server struct {
	hub *Hub
	srv *http.Server
	log *logging.Logger
}

// NewServer builds a server listening on cfg.Listen.
func NewServer(cfg config.Relay, log *logging.Logger) *Server {
	hub := NewHub(cfg.ReadLimit, log)

	r := mux.NewRouter()
	r.HandleFunc("/ws/{session}", func(w http.ResponseWriter, req *http.Request) {
		hub.Join(mux.Vars(req)["session"], w, req)
	}).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	}).Methods(http.MethodGet)

	return &Server{
		hub: hub,
		log: log,
		srv: &http.Server{
			Addr:              cfg.Listen,
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Handler exposes the route table, mainly for tests.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

// ListenAndServe blocks serving the relay until Shutdown is called.
func (s *Server) ListenAndServe() error {
	s.log.Info("relay listening on %s", s.srv.Addr)
	err := s.srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting connections and drains the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
