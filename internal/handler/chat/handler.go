package chat

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/zhouzirui/sentichat/internal/model/chat"
	"github.com/zhouzirui/sentichat/internal/service/conversation"
	"github.com/zhouzirui/sentichat/pkg/utils"
)

// Handler 会话服务的HTTP处理器
type Handler struct {
	manager  *conversation.Manager
	upgrader websocket.Upgrader
}

// New 创建会话处理器
func New(manager *conversation.Manager) *Handler {
	return &Handler{
		manager: manager,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes 注册会话相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/sessions", h.handleListSaved)
	r.Route("/conversations", func(r chi.Router) {
		r.Post("/", h.handleCreate)
		r.Route("/{conversationID}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.Delete("/", h.handleDelete)
			r.Post("/messages", h.handleMessage)
			r.Post("/reset", h.handleReset)
			r.Post("/load", h.handleLoad)
			r.Get("/ws", h.handleWebSocket)
		})
	})
}

type conversationView struct {
	ID          string                  `json:"id"`
	SessionID   string                  `json:"sessionId"`
	PersonaID   string                  `json:"personaId"`
	OpeningLine string                  `json:"openingLine,omitempty"`
	Messages    []chat.FormattedMessage `json:"messages"`
	Stats       chat.Stats              `json:"stats"`
}

func newConversationView(id string, session *conversation.Session) conversationView {
	return conversationView{
		ID:          id,
		SessionID:   session.SessionID(),
		PersonaID:   session.Persona().ID,
		OpeningLine: session.Persona().OpeningLine,
		Messages:    session.Formatted(),
		Stats:       session.Stats(),
	}
}

// handleCreate 创建会话
func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		PersonaID string `json:"personaId"`
	}
	if err := utils.DecodeJSON(w, r, &payload, true); err != nil {
		utils.RespondError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	id, session, err := h.manager.Create(payload.PersonaID)
	if err != nil {
		if errors.Is(err, conversation.ErrPersonaNotFound) {
			utils.RespondError(w, r, http.StatusBadRequest, "persona not found")
			return
		}
		utils.RespondError(w, r, http.StatusInternalServerError, "could not start conversation")
		return
	}

	utils.RespondJSON(w, r, http.StatusCreated, newConversationView(id, session))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, session, ok := h.lookup(w, r)
	if !ok {
		return
	}
	utils.RespondJSON(w, r, http.StatusOK, newConversationView(id, session))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.manager.Delete(chi.URLParam(r, "conversationID")); err != nil {
		utils.RespondError(w, r, http.StatusNotFound, "conversation not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleMessage 处理一条用户消息并返回情感标签与回复
func (h *Handler) handleMessage(w http.ResponseWriter, r *http.Request) {
	_, session, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var payload struct {
		Text *string `json:"text"`
	}
	if err := utils.DecodeJSON(w, r, &payload, false); err != nil {
		utils.RespondError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.Text == nil {
		utils.RespondError(w, r, http.StatusBadRequest, "text is required")
		return
	}

	utils.RespondJSON(w, r, http.StatusOK, session.Process(r.Context(), *payload.Text))
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	_, session, ok := h.lookup(w, r)
	if !ok {
		return
	}
	utils.RespondJSON(w, r, http.StatusOK, map[string]string{"sessionId": session.Reset()})
}

// handleLoad 加载已保存的会话
func (h *Handler) handleLoad(w http.ResponseWriter, r *http.Request) {
	id, session, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var payload struct {
		SessionID string `json:"sessionId"`
	}
	if err := utils.DecodeJSON(w, r, &payload, false); err != nil {
		utils.RespondError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.SessionID == "" {
		utils.RespondError(w, r, http.StatusBadRequest, "sessionId is required")
		return
	}

	if !session.Load(r.Context(), payload.SessionID) {
		utils.RespondError(w, r, http.StatusNotFound, "session not found")
		return
	}
	utils.RespondJSON(w, r, http.StatusOK, newConversationView(id, session))
}

func (h *Handler) handleListSaved(w http.ResponseWriter, r *http.Request) {
	ids, err := h.manager.SavedSessions(r.Context())
	if err != nil {
		utils.RespondError(w, r, http.StatusInternalServerError, "could not list saved sessions")
		return
	}
	utils.RespondJSON(w, r, http.StatusOK, map[string][]string{"sessions": ids})
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (string, *conversation.Session, bool) {
	id := chi.URLParam(r, "conversationID")
	session, err := h.manager.Get(id)
	if err != nil {
		utils.RespondError(w, r, http.StatusNotFound, "conversation not found")
		return "", nil, false
	}
	return id, session, true
}
