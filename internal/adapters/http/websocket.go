package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/mapgood/internal/core/domain"
	"github.com/samirrijal/mapgood/internal/core/engine"
	"github.com/samirrijal/mapgood/internal/pkg/metrics"
)

const (
	writeWait    = 5 * time.Second
	pingInterval = 30 * time.Second
)

// Frame types exchanged over /ws.
const (
	frameViewportChanged = "viewport_changed"
	frameMarkerActivated = "marker_activated"
	framePlaceQuery      = "place_query"
	frameCenterRequested = "center_requested"
	frameNewEntryForm    = "new_entry_form"
	frameFormField       = "form_field"
	frameSubmitEntry     = "submit_entry"

	frameRecenter = "recenter"
	frameOverlay  = "overlay"
	frameState    = "state"
	frameError    = "error"
)

// inboundFrame is sent by the map page.
type inboundFrame struct {
	Type  string   `json:"type"`
	NELat *float64 `json:"ne_lat"`
	NELng *float64 `json:"ne_lng"`
	SWLat *float64 `json:"sw_lat"`
	SWLng *float64 `json:"sw_lng"`
	ID    string   `json:"id"`
	Text  string   `json:"text"`
	Field string   `json:"field"`
	Lat   *float64 `json:"lat"`
	Lng   *float64 `json:"lng"`
}

type recenterFrame struct {
	Type string  `json:"type"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

type overlayFrame struct {
	Type    string       `json:"type"`
	Markers []markerView `json:"markers"`
}

type stateFrame struct {
	Type  string    `json:"type"`
	State stateView `json:"state"`
}

type errorFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

var errMissingField = errors.New("missing field")

// routeFrame decodes one inbound frame and hands it to in.
func routeFrame(in HostInput, data []byte) error {
	var f inboundFrame
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	switch f.Type {
	case frameViewportChanged:
		if f.NELat == nil || f.NELng == nil || f.SWLat == nil || f.SWLng == nil {
			return fmt.Errorf("%s: %w: ne_lat, ne_lng, sw_lat and sw_lng are required", f.Type, errMissingField)
		}
		return in.OnViewportSettled(*f.NELat, *f.NELng, *f.SWLat, *f.SWLng)

	case frameMarkerActivated:
		if f.ID == "" {
			return fmt.Errorf("%s: %w: id", f.Type, errMissingField)
		}
		return in.OnMarkerActivated(f.ID)

	case framePlaceQuery:
		return in.Dispatch(engine.PlaceQueryChanged{Text: f.Text})

	case frameCenterRequested:
		if f.Lat == nil || f.Lng == nil {
			return fmt.Errorf("%s: %w: lat and lng are required", f.Type, errMissingField)
		}
		at := domain.Coordinate{Lat: *f.Lat, Lng: *f.Lng}
		if err := at.Validate(); err != nil {
			return err
		}
		return in.Dispatch(engine.ViewportCenterRequested{At: at})

	case frameNewEntryForm:
		return in.Dispatch(engine.NewEntryFormRequested{})

	case frameFormField:
		field := domain.FormField(f.Field)
		if field != domain.FieldTitle && field != domain.FieldDescription {
			return fmt.Errorf("%s: unknown field %q", f.Type, f.Field)
		}
		return in.Dispatch(engine.FormFieldChanged{Field: field, Text: f.Text})

	case frameSubmitEntry:
		return in.Dispatch(engine.SubmitNewEntry{})

	default:
		return fmt.Errorf("unknown frame type %q", f.Type)
	}
}

// frameWriter is the write side of a socket.
type frameWriter interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
}

// peer serializes writes to one socket. Once closed it drops writes, since
// the underlying conn goes back to the pool when its handler returns.
type peer struct {
	mu     sync.Mutex
	w      frameWriter
	closed bool
}

func (p *peer) write(messageType int, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	_ = p.w.SetWriteDeadline(time.Now().Add(writeWait))
	return p.w.WriteMessage(messageType, data)
}

func (p *peer) writeJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return p.write(websocket.TextMessage, data)
}

// Hub fans engine output out to every attached map page. It implements
// ports.MapSurface and ports.StateObserver.
type Hub struct {
	mu    sync.RWMutex
	peers map[*peer]struct{}
	log   *slog.Logger
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{
		peers: make(map[*peer]struct{}),
		log:   slog.Default().With("component", "ws_hub"),
	}
}

func (h *Hub) attach(w frameWriter) *peer {
	p := &peer{w: w}
	h.mu.Lock()
	h.peers[p] = struct{}{}
	h.mu.Unlock()
	metrics.ActiveWebSockets.Inc()
	return p
}

func (h *Hub) detach(p *peer) {
	h.mu.Lock()
	_, ok := h.peers[p]
	delete(h.peers, p)
	h.mu.Unlock()

	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	if ok {
		metrics.ActiveWebSockets.Dec()
	}
}

// Peers returns the number of attached pages.
func (h *Hub) Peers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.peers)
}

func (h *Hub) broadcast(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	h.mu.RLock()
	peers := make([]*peer, 0, len(h.peers))
	for p := range h.peers {
		peers = append(peers, p)
	}
	h.mu.RUnlock()

	var errs []error
	for _, p := range peers {
		if err := p.write(websocket.TextMessage, data); err != nil {
			h.detach(p)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Recenter asks every page to move its map.
func (h *Hub) Recenter(ctx context.Context, at domain.Coordinate) error {
	return h.broadcast(recenterFrame{Type: frameRecenter, Lat: at.Lat, Lng: at.Lng})
}

// RefreshOverlay replaces the markers drawn on every page.
func (h *Hub) RefreshOverlay(ctx context.Context, markers []domain.Marker) error {
	return h.broadcast(overlayFrame{Type: frameOverlay, Markers: toMarkers(markers)})
}

// StateChanged pushes the new state for re-rendering.
func (h *Hub) StateChanged(ctx context.Context, s domain.State) {
	if err := h.broadcast(stateFrame{Type: frameState, State: toState(s)}); err != nil {
		h.log.Warn("state push failed", "error", err)
	}
}

// WebSocketHandler attaches a map page to the session. The page first
// receives the current state and overlay, then every later update; its
// frames are routed to the engine.
func WebSocketHandler(deps *Dependencies) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		log := slog.Default().With("remote_addr", c.RemoteAddr().String())
		log.Info("ws client connected")

		// Detach runs before Close so no broadcast can reach a released conn.
		p := deps.Hub.attach(c)
		defer deps.Hub.detach(p)

		ctx, cancel := context.WithTimeout(context.Background(), writeWait)
		if s, err := deps.Session.Snapshot(ctx); err == nil {
			_ = p.writeJSON(stateFrame{Type: frameState, State: toState(s)})
			_ = p.writeJSON(overlayFrame{Type: frameOverlay, Markers: toMarkers(domain.Project(s.Entries))})
		}
		cancel()

		// Keep-alive ping
		done := make(chan struct{})
		go func() {
			ticker := time.NewTicker(pingInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					if err := p.write(websocket.PingMessage, nil); err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()
		defer close(done)

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}
			if err := routeFrame(deps.Input, msg); err != nil {
				log.Debug("ws frame rejected", "error", err)
				_ = p.writeJSON(errorFrame{Type: frameError, Message: err.Error()})
			}
		}

		log.Info("ws client disconnected")
	}
}
