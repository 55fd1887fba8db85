package chat

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	writeWait  = 10 * time.Second
)

type inboundMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// handleWebSocket 处理WebSocket连接，每条消息即一轮对话
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	_, session, ok := h.lookup(w, r)
	if !ok {
		return
	}
	log := zerolog.Ctx(r.Context())

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	go pingLoop(ctx, conn)

	h.send(conn, log, outgoingMessage{
		Type:      "connected",
		SessionID: session.SessionID(),
		Data: map[string]any{
			"persona":     session.Persona().ID,
			"openingLine": session.Persona().OpeningLine,
		},
	})

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("websocket read error")
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(pongWait))

		switch msg.Type {
		case "message":
			result := session.Process(ctx, msg.Text)
			h.send(conn, log, outgoingMessage{Type: "turn", SessionID: result.SessionID, Data: result})
		case "reset":
			h.send(conn, log, outgoingMessage{Type: "reset", SessionID: session.Reset()})
		default:
			h.send(conn, log, outgoingMessage{
				Type: "error",
				Data: map[string]string{"message": "unsupported message type: " + msg.Type},
			})
		}
	}
}

func (h *Handler) send(conn *websocket.Conn, log *zerolog.Logger, msg outgoingMessage) {
	msg.Timestamp = time.Now().Unix()
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(msg); err != nil {
		log.Warn().Err(err).Str("type", msg.Type).Msg("websocket write failed")
	}
}

// pingLoop 定期发送ping消息
func pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

