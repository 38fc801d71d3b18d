package api

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/go-chi/chi/v5"

	"github.com/avandyck/rostrum/internal/debate"
	"github.com/avandyck/rostrum/internal/event"
)

const (
	// liveWriteTimeout bounds a single websocket write so a stalled client
	// cannot pin the feed goroutine.
	liveWriteTimeout = 10 * time.Second

	// liveDeltaBuffer is the per-connection delta queue. Overflow drops
	// fragments; the next status push carries the accumulated text, so a
	// slow client falls behind gracefully instead of blocking the bus.
	liveDeltaBuffer = 256
)

// liveMessage is one frame pushed to a live feed subscriber. Status frames
// carry the full session view; delta frames carry one streamed fragment.
type liveMessage struct {
	Type    string       `json:"type"`
	Session *sessionView `json:"session,omitempty"`
	Side    string       `json:"side,omitempty"`
	Round   int          `json:"round,omitempty"`
	Delta   string       `json:"delta,omitempty"`
}

// handleLive upgrades to a websocket and pushes the session's progress:
// an initial status view, a delta frame per streamed fragment, and a fresh
// status view after every other event for the session. The connection
// closes normally once the session reaches a terminal state.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	manager, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket accept failed", "session_id", manager.ID(), "error", err)
		return
	}
	defer conn.Close(websocket.StatusInternalError, "feed closed")

	// No client messages are expected; CloseRead surfaces disconnects
	// through the returned context.
	ctx := conn.CloseRead(r.Context())

	deltas := make(chan event.TurnDeltaEvent, liveDeltaBuffer)
	statusCh := make(chan struct{}, 1)
	if s.bus != nil {
		id := s.bus.SubscribeAll(func(e event.Event) {
			se, ok := e.(event.SessionEvent)
			if !ok || se.SessionID() != manager.ID() {
				return
			}
			if delta, ok := e.(event.TurnDeltaEvent); ok {
				select {
				case deltas <- delta:
				default:
				}
				return
			}
			select {
			case statusCh <- struct{}{}:
			default:
			}
		})
		defer s.bus.Unsubscribe(id)
	}

	logger := s.logger.WithSession(manager.ID())
	logger.Debug("live feed connected")

	status, err := s.writeStatus(ctx, conn, manager)
	if err != nil {
		return
	}
	if status.Terminal() || s.bus == nil {
		conn.Close(websocket.StatusNormalClosure, "session settled")
		return
	}

	for {
		select {
		case <-ctx.Done():
			logger.Debug("live feed disconnected")
			return
		case delta := <-deltas:
			msg := liveMessage{Type: "delta", Side: delta.Side, Round: delta.Round, Delta: delta.Delta}
			if err := s.writeLive(ctx, conn, msg); err != nil {
				return
			}
		case <-statusCh:
			status, err := s.writeStatus(ctx, conn, manager)
			if err != nil {
				return
			}
			if status.Terminal() {
				conn.Close(websocket.StatusNormalClosure, "session settled")
				return
			}
		}
	}
}

// writeStatus pushes the current session view and returns its status.
func (s *Server) writeStatus(ctx context.Context, conn *websocket.Conn, manager *debate.Manager) (debate.Status, error) {
	view := newSessionView(manager.Snapshot(), manager.Progress())
	if err := s.writeLive(ctx, conn, liveMessage{Type: "status", Session: view}); err != nil {
		return view.Status, err
	}
	return view.Status, nil
}

func (s *Server) writeLive(ctx context.Context, conn *websocket.Conn, msg liveMessage) error {
	writeCtx, cancel := context.WithTimeout(ctx, liveWriteTimeout)
	defer cancel()
	return wsjson.Write(writeCtx, conn, msg)
}
