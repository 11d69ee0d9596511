// Package visualize is the one-way, best-effort websocket bridge to an
// out-of-process visualizer. It pushes periodic, throttled snapshots of the
// fleet; a consumer that never connects, or disconnects mid-run, has no
// effect on the simulation core.
package visualize

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Ptozin/droneswarm/models"
	"github.com/Ptozin/droneswarm/repository"
)

const (
	writeWait  = 1 * time.Second
	resolution = 200 * time.Millisecond
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Record is one snapshot entry pushed to the client: a drone or a
// warehouse, discriminated by Type. Exactly one of Drone/Warehouse is set.
type Record struct {
	Type      string            `json:"type"`
	Drone     *models.Drone     `json:"drone,omitempty"`
	Warehouse *models.Warehouse `json:"warehouse,omitempty"`
}

// Server serves the visualization websocket and pushes fleet snapshots
// polled from repo on a fixed interval.
type Server struct {
	addr string
	repo *repository.FleetRepository
}

// NewServer returns a visualization bridge reading from repo.
func NewServer(addr string, repo *repository.FleetRepository) *Server {
	return &Server{addr: addr, repo: repo}
}

// Serve blocks, serving the websocket endpoint until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWebsocket)
	srv := &http.Server{Addr: s.addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		_ = srv.Close()
		return nil
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

func (s *Server) serveWebsocket(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("visualize: upgrade: %v", err)
		return
	}
	defer s.closeWebsocket(ws)
	s.publishLoop(r.Context(), ws)
}

// publishLoop polls the repository at a fixed resolution and pushes the
// full fleet snapshot. Drops a tick if the previous write hasn't completed
// yet, matching the throttle-and-skip pattern rather than queuing backlog.
func (s *Server) publishLoop(ctx context.Context, ws *websocket.Conn) {
	ticker := time.NewTicker(resolution)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			records, err := s.snapshot(ctx)
			if err != nil {
				log.Printf("visualize: snapshot: %v", err)
				continue
			}
			if err := ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := ws.WriteJSON(records); err != nil {
				return
			}
		}
	}
}

func (s *Server) snapshot(ctx context.Context) ([]Record, error) {
	drones, err := s.repo.ListDrones(ctx)
	if err != nil {
		return nil, err
	}
	warehouses, err := s.repo.ListWarehouses(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Record, 0, len(drones)+len(warehouses))
	for i := range drones {
		out = append(out, Record{Type: "drone", Drone: &drones[i]})
	}
	for i := range warehouses {
		out = append(out, Record{Type: "warehouse", Warehouse: &warehouses[i]})
	}
	return out, nil
}

func (s *Server) closeWebsocket(ws *websocket.Conn) {
	_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
	_ = ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	_ = ws.Close()
}
