// Package api serves the result of the last pipeline run over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"github.com/utakatalp/fantasy-forecast/internal/league"
	"github.com/utakatalp/fantasy-forecast/internal/pipeline"
)

type Server struct {
	mu     sync.RWMutex
	result *pipeline.Result
	log    logrus.FieldLogger
}

func NewServer(log logrus.FieldLogger) *Server {
	return &Server{log: log.WithField("component", "api")}
}

// SetResult swaps the served snapshot.
func (s *Server) SetResult(res *pipeline.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.result = res
}

func (s *Server) snapshot() *pipeline.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.result
}

// Handler builds the router wrapped in CORS.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", s.handleHealth).Methods("GET")
	api.HandleFunc("/teams", s.withResult(s.handleTeams)).Methods("GET")
	api.HandleFunc("/teams/{id:[0-9]+}", s.withResult(s.handleTeam)).Methods("GET")
	api.HandleFunc("/players/{id:[0-9]+}", s.withResult(s.handlePlayer)).Methods("GET")
	api.HandleFunc("/matches", s.withResult(s.handleMatches)).Methods("GET")
	api.HandleFunc("/table", s.withResult(s.handleTable)).Methods("GET")
	api.HandleFunc("/squad", s.withResult(s.handleSquad)).Methods("GET")
	api.HandleFunc("/model", s.withResult(s.handleModel)).Methods("GET")

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(router)
}

// ListenAndServe serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("serving report")
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

type resultHandler func(w http.ResponseWriter, r *http.Request, res *pipeline.Result)

func (s *Server) withResult(h resultHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res := s.snapshot()
		if res == nil {
			s.writeError(w, http.StatusServiceUnavailable, "no pipeline result yet")
			return
		}
		h(w, r, res)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	res := s.snapshot()
	body := map[string]any{"status": "ok", "ready": res != nil}
	if res != nil {
		body["run_id"] = res.RunID.String()
	}
	s.writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleTeams(w http.ResponseWriter, r *http.Request, res *pipeline.Result) {
	out := make([]teamView, 0, len(res.Teams))
	for _, t := range res.Teams {
		out = append(out, newTeamView(t, false))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleTeam(w http.ResponseWriter, r *http.Request, res *pipeline.Result) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	t, err := res.Catalog.Team(id)
	if err != nil {
		s.writeLookupError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newTeamView(t, true))
}

func (s *Server) handlePlayer(w http.ResponseWriter, r *http.Request, res *pipeline.Result) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	p, err := res.Catalog.Player(id)
	if err != nil {
		s.writeLookupError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newPlayerView(p, true))
}

func (s *Server) handleMatches(w http.ResponseWriter, r *http.Request, res *pipeline.Result) {
	round := 0
	if q := r.URL.Query().Get("round"); q != "" {
		v, err := strconv.Atoi(q)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "round must be an integer")
			return
		}
		round = v
	}
	out := make([]matchView, 0, len(res.Matches))
	for _, m := range res.Matches {
		if round != 0 && m.Round != round {
			continue
		}
		out = append(out, newMatchView(m))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleTable(w http.ResponseWriter, r *http.Request, res *pipeline.Result) {
	s.writeJSON(w, http.StatusOK, league.CalculateTable(res.Matches))
}

func (s *Server) handleSquad(w http.ResponseWriter, r *http.Request, res *pipeline.Result) {
	if res.Squad == nil {
		s.writeError(w, http.StatusNotFound, "no squad configured")
		return
	}
	v := squadView{
		ID:            res.Squad.ID,
		Name:          res.Squad.Name,
		Bank:          res.Squad.CurrentBank(),
		FreeTransfers: res.Squad.CurrentFreeTransfers(),
	}
	for _, id := range res.Squad.CurrentPlayers() {
		p, err := res.Catalog.Player(id)
		if err != nil {
			s.writeLookupError(w, err)
			return
		}
		v.Players = append(v.Players, newPlayerView(p, false))
	}
	s.writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleModel(w http.ResponseWriter, r *http.Request, res *pipeline.Result) {
	s.writeJSON(w, http.StatusOK, map[string]modelView{
		"model":        newModelView(res.Models.Full),
		"simple_model": newModelView(res.Models.Simple),
	})
}

func (s *Server) writeLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, league.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.writeError(w, http.StatusInternalServerError, err.Error())
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.WithError(err).Warn("writing response")
	}
}
