package inspect

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// Status is the payload served by /status.
type Status struct {
	RunID            string `json:"run_id"`
	UptimeSeconds    int64  `json:"uptime_seconds"`
	Actors           int    `json:"actors"`
	Controllers      int    `json:"controllers"`
	TableFingerprint string `json:"table_fingerprint"`
	InspectClients   int    `json:"inspect_clients"`
}

// RelationEntry is one resolved faction pair.
type RelationEntry struct {
	A        string `json:"a"`
	B        string `json:"b"`
	Relation string `json:"relation"`
	Note     string `json:"note,omitempty"`
}

// Relationships is the payload served by /relationships.
type Relationships struct {
	Default string          `json:"default"`
	Entries []RelationEntry `json:"entries"`
}

// ActorView is one live actor as served by /actors.
type ActorView struct {
	Handle    string  `json:"handle"`
	Name      string  `json:"name"`
	Kind      string  `json:"kind"`
	Faction   string  `json:"faction,omitempty"`
	State     string  `json:"state,omitempty"`
	Target    string  `json:"target,omitempty"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Z         float64 `json:"z"`
	Health    int32   `json:"health"`
	MaxHealth int32   `json:"max_health"`
}

// DetectResult is the payload served by /detect.
type DetectResult struct {
	Actor  string `json:"actor"`
	Found  bool   `json:"found"`
	Target string `json:"target,omitempty"`
}

// Sources supplies the live data the HTTP handlers serve. Handlers answer
// 501 when their source is nil.
type Sources struct {
	Status        func() Status
	Relationships func() Relationships
	Actors        func() []ActorView
	Detect        func(handle string) (DetectResult, error)
}

// Server exposes the debug endpoints and the event websocket.
type Server struct {
	addr    string
	hub     *Hub
	sources Sources
}

// NewServer wires the hub and data sources to an address.
func NewServer(addr string, hub *Hub, sources Sources) *Server {
	return &Server{addr: addr, hub: hub, sources: sources}
}

// Handler returns the route table. Split out from Run for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.hub.ServeWS)
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/relationships", s.handleRelationships)
	mux.HandleFunc("/actors", s.handleActors)
	mux.HandleFunc("/detect", s.handleDetect)
	return mux
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.Handler()}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("inspect server listening", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.hub.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if s.sources.Status == nil {
		http.Error(w, "status source not configured", http.StatusNotImplemented)
		return
	}
	st := s.sources.Status()
	st.InspectClients = s.hub.ClientCount()
	writeJSON(w, st)
}

func (s *Server) handleRelationships(w http.ResponseWriter, r *http.Request) {
	if s.sources.Relationships == nil {
		http.Error(w, "relationships source not configured", http.StatusNotImplemented)
		return
	}
	writeJSON(w, s.sources.Relationships())
}

func (s *Server) handleActors(w http.ResponseWriter, r *http.Request) {
	if s.sources.Actors == nil {
		http.Error(w, "actors source not configured", http.StatusNotImplemented)
		return
	}
	writeJSON(w, s.sources.Actors())
}

func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	if s.sources.Detect == nil {
		http.Error(w, "detect source not configured", http.StatusNotImplemented)
		return
	}
	handle := r.URL.Query().Get("actor")
	if handle == "" {
		http.Error(w, "missing actor parameter", http.StatusBadRequest)
		return
	}
	res, err := s.sources.Detect(handle)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, res)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("inspect response write failed", "err", err)
	}
}
