package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"livepoll/internal/service"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for dev
	},
}

// Handler upgrades WebSocket connections and dispatches client commands to
// the coordinator. Command failures are answered with an error_event on
// the originating connection only; successful mutations broadcast through
// the coordinator's event bus.
type Handler struct {
	hub      *Hub
	polls    *service.PollService
	validate *validator.Validate
	log      *zap.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, polls *service.PollService, log *zap.Logger) *Handler {
	return &Handler{
		hub:      hub,
		polls:    polls,
		validate: validator.New(),
		log:      log,
	}
}

// ServeWS handles GET /ws
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	conn := &Connection{
		ID:   uuid.New().String(),
		Send: make(chan []byte, 256),
	}

	h.hub.Register(conn)

	go h.writePump(wsConn, conn)
	go h.readPump(wsConn, conn)
}

func (h *Handler) readPump(wsConn *websocket.Conn, conn *Connection) {
	defer func() {
		h.hub.Unregister(conn)
		wsConn.Close()
	}()

	wsConn.SetReadLimit(maxMessageSize)
	wsConn.SetReadDeadline(time.Now().Add(pongWait))
	wsConn.SetPongHandler(func(string) error {
		wsConn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := wsConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.Debug("websocket read error",
					zap.String("conn", conn.ID), zap.Error(err))
			}
			break
		}
		h.dispatch(context.Background(), conn, data)
	}
}

func (h *Handler) dispatch(ctx context.Context, conn *Connection, raw []byte) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		h.sendError(conn, "invalid message format")
		return
	}

	var err error
	switch msg.Type {
	case CmdJoinPoll:
		var p JoinPollPayload
		if err = h.decode(msg.Payload, &p); err == nil {
			// A nil participant means the poll is gone or inactive; the
			// coordinator broadcasts nothing and neither do we.
			_, err = h.polls.JoinPoll(ctx, p.PollID, p.StudentName)
		}

	case CmdCreatePoll:
		var p CreatePollPayload
		if err = h.decode(msg.Payload, &p); err == nil {
			_, err = h.polls.CreatePoll(ctx, p.Question, p.Options, p.Duration)
		}

	case CmdSubmitVote:
		var p SubmitVotePayload
		if err = h.decode(msg.Payload, &p); err == nil {
			_, err = h.polls.SubmitVote(ctx, p.PollID, p.StudentName, p.SelectedOption)
		}

	case CmdSendMessage:
		var p SendMessagePayload
		if err = h.decode(msg.Payload, &p); err == nil {
			_, err = h.polls.AddChatMessage(ctx, p.PollID, p.SenderName, p.SenderRole, p.Text)
		}

	case CmdKickUser:
		var p KickUserPayload
		if err = h.decode(msg.Payload, &p); err == nil {
			_, err = h.polls.KickParticipant(ctx, p.PollID, p.StudentName)
		}

	case CmdEndPoll:
		var p EndPollPayload
		if err = h.decode(msg.Payload, &p); err == nil {
			err = h.polls.CompletePoll(ctx, p.PollID)
		}

	default:
		h.sendError(conn, "unknown command: "+string(msg.Type))
		return
	}

	if err != nil {
		h.sendError(conn, err.Error())
	}
}

func (h *Handler) decode(raw json.RawMessage, payload interface{}) error {
	if err := json.Unmarshal(raw, payload); err != nil {
		return service.ErrValidation
	}
	return h.validate.Struct(payload)
}

// sendError reports a command failure to the originating connection only.
func (h *Handler) sendError(conn *Connection, message string) {
	payload, _ := json.Marshal(&ErrorPayload{Message: message})
	data, err := json.Marshal(&Message{Type: MsgError, Payload: payload})
	if err != nil {
		return
	}
	select {
	case conn.Send <- data:
	default:
	}
}

func (h *Handler) writePump(wsConn *websocket.Conn, conn *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		wsConn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				wsConn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := wsConn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wsConn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
