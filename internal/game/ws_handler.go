package game

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/xveoe/quiz-arena-fiesta-sub000/pkg/http/ws"
)

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Origin checking is handled by the CORS layer in front.
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// WSHandler streams session snapshots to spectators.
type WSHandler struct {
	manager *Manager
	hub     *ws.Hub
	logger  zerolog.Logger
}

func NewWSHandler(manager *Manager, hub *ws.Hub, logger zerolog.Logger) *WSHandler {
	return &WSHandler{
		manager: manager,
		hub:     hub,
		logger:  logger.With().Str("component", "game_ws").Logger(),
	}
}

// Handle upgrades GET /ws/sessions?session_id=... and keeps the client
// subscribed to state broadcasts until it disconnects.
func (h *WSHandler) Handle(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(r.URL.Query().Get("session_id"))
	if err != nil {
		http.Error(w, "session_id must be a UUID", http.StatusBadRequest)
		return
	}
	session, ok := h.manager.Get(sessionID)
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	raw, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	conn := ws.NewConnection(raw, h.logger)
	h.hub.Register(sessionID, conn)
	go conn.WritePump()

	// Initial state so late joiners render immediately.
	h.sendSnapshot(conn, session)

	conn.ReadPump(func(msg ws.Message) error {
		switch msg.Type {
		case ws.TypeRequestSnapshot:
			h.sendSnapshot(conn, session)
		case ws.TypePing:
			return conn.Send(ws.Message{Type: ws.TypePong, RequestID: msg.RequestID})
		default:
			payload, _ := json.Marshal(ws.ErrorPayload{
				Code:    "unknown_message_type",
				Message: "unsupported message type: " + msg.Type,
			})
			return conn.Send(ws.Message{Type: ws.TypeError, Payload: payload, RequestID: msg.RequestID})
		}
		return nil
	})

	h.hub.Unregister(sessionID, conn)
}

func (h *WSHandler) sendSnapshot(conn *ws.Connection, session *Session) {
	payload, err := json.Marshal(session.Snapshot())
	if err != nil {
		h.logger.Warn().Err(err).Msg("marshal snapshot failed")
		return
	}
	if err := conn.Send(ws.Message{Type: ws.TypeSnapshot, Payload: payload}); err != nil {
		h.logger.Warn().Err(err).Msg("send snapshot failed")
	}
}
