package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/qscalp/qsh-go/pkg/storage"
)

// Server serves converted market data: stored event ranges and
// snapshots, live book state of running replays, and a WebSocket
// stream of replay batches.
type Server struct {
	store  *storage.EventStore // nil disables persistence endpoints
	router *mux.Router
	hub    *Hub
	log    *zap.SugaredLogger

	mu      sync.RWMutex
	replays map[string]*Replay
}

func NewServer(store *storage.EventStore, log *zap.SugaredLogger) *Server {
	s := &Server{
		store:   store,
		router:  mux.NewRouter(),
		hub:     NewHub(log),
		log:     log,
		replays: make(map[string]*Replay),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/instruments", s.handleListInstruments).Methods("GET")
	api.HandleFunc("/instruments/{instrument}/header", s.handleGetHeader).Methods("GET")
	api.HandleFunc("/instruments/{instrument}/book", s.handleGetBook).Methods("GET")
	api.HandleFunc("/instruments/{instrument}/events", s.handleGetEvents).Methods("GET")
	api.HandleFunc("/instruments/{instrument}/snapshots", s.handleGetSnapshots).Methods("GET")

	s.router.HandleFunc("/ws", s.handleWebSocket)
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Hub exposes the WebSocket hub so replays can broadcast through it.
func (s *Server) Hub() *Hub { return s.hub }

// StartReplay registers a replay and runs it until EOF or ctx
// cancellation.
func (s *Server) StartReplay(ctx context.Context, r *Replay) error {
	s.mu.Lock()
	s.replays[r.Header.Instrument] = r
	s.mu.Unlock()
	return r.Run(ctx)
}

// Start blocks serving HTTP on addr.
func (s *Server) Start(addr string) error {
	go s.hub.Run()

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	})

	s.log.Infow("api_server_starting", "addr", addr)
	return http.ListenAndServe(addr, c.Handler(s.router))
}

func (s *Server) replay(instrument string) (*Replay, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.replays[instrument]
	return r, ok
}

func (s *Server) handleListInstruments(w http.ResponseWriter, _ *http.Request) {
	seen := make(map[string]bool)
	var out []string

	if s.store != nil {
		stored, err := s.store.Instruments()
		if err != nil {
			respondError(w, http.StatusInternalServerError, "store read failed", err.Error())
			return
		}
		for _, inst := range stored {
			seen[inst] = true
			out = append(out, inst)
		}
	}
	s.mu.RLock()
	for inst := range s.replays {
		if !seen[inst] {
			out = append(out, inst)
		}
	}
	s.mu.RUnlock()

	if out == nil {
		out = []string{}
	}
	respondJSON(w, out)
}

func (s *Server) handleGetHeader(w http.ResponseWriter, r *http.Request) {
	instrument := mux.Vars(r)["instrument"]

	if rep, ok := s.replay(instrument); ok {
		respondJSON(w, rep.Header)
		return
	}
	if s.store != nil {
		h, ok, err := s.store.LoadHeader(instrument)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "store read failed", err.Error())
			return
		}
		if ok {
			respondJSON(w, h)
			return
		}
	}
	respondError(w, http.StatusNotFound, "instrument not found", instrument)
}

func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	instrument := mux.Vars(r)["instrument"]
	rep, ok := s.replay(instrument)
	if !ok {
		respondError(w, http.StatusNotFound, "no replay for instrument", instrument)
		return
	}
	respondJSON(w, rep.SnapshotDTO())
}

func (s *Server) handleGetEvents(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		respondError(w, http.StatusNotFound, "store disabled", "")
		return
	}
	instrument := mux.Vars(r)["instrument"]
	from := queryUint(r, "from", 0)
	if from == 0 {
		// Replays number stored batches from 1.
		from = 1
	}
	limit := int(queryUint(r, "limit", 100))

	batches, err := s.store.ReadBatches(instrument, from, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "store read failed", err.Error())
		return
	}
	out := make([]EventBatch, len(batches))
	for i, b := range batches {
		out[i] = EventBatch{Seq: from + uint64(i), Events: toL2Events(b)}
	}
	respondJSON(w, out)
}

func (s *Server) handleGetSnapshots(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		respondError(w, http.StatusNotFound, "store disabled", "")
		return
	}
	instrument := mux.Vars(r)["instrument"]
	from := queryUint(r, "from", 0)
	limit := int(queryUint(r, "limit", 100))

	rows, err := s.store.ReadSnapshots(instrument, from, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "store read failed", err.Error())
		return
	}
	if rows == nil {
		rows = [][]int64{}
	}
	respondJSON(w, rows)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"})
}

func queryUint(r *http.Request, key string, def uint64) uint64 {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func respondJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, errMsg, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: errMsg, Message: message})
}
