package handler

import (
	"context"
	"errors"
	"net/http"
	"slices"

	"community_hub/internal/assistant"
	"community_hub/internal/chat"
	"community_hub/internal/gateway"
	"community_hub/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/golang/glog"
	"github.com/gorilla/websocket"
)

type ChatHandler struct {
	completer assistant.Completer
	gw        gateway.Gateway
	limits    *chat.Limits
	upgrader  websocket.Upgrader
}

type ChatReq struct {
	CommunityID string              `json:"community_id"`
	Messages    []assistant.Message `json:"messages" binding:"dive"`
	Message     string              `json:"message"`
}

// wsFrame 服务端下发的帧：state / reply / error
type wsFrame struct {
	Type       string              `json:"type"`
	Gate       chat.Gate           `json:"gate,omitempty"`
	Generating bool                `json:"generating,omitempty"`
	Messages   []assistant.Message `json:"messages,omitempty"`
	Message    *assistant.Message  `json:"message,omitempty"`
	Msg        string              `json:"msg,omitempty"`
}

type wsInput struct {
	Message string `json:"message"`
}

func NewChatHandler(completer assistant.Completer, gw gateway.Gateway, limits *chat.Limits, origins []string) *ChatHandler {
	return &ChatHandler{
		completer: completer,
		gw:        gw,
		limits:    limits,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || slices.Contains(origins, "*") || slices.Contains(origins, origin)
			},
		},
	}
}

func (h *ChatHandler) session(c *gin.Context, communityID string, transcript []assistant.Message) *chat.Session {
	opts := []chat.Option{chat.WithLimits(h.limits), chat.WithTranscript(transcript)}
	if communityID != "" {
		opts = append(opts, chat.WithCommunity(communityID, h.gw))
	}
	return chat.New(h.completer, middleware.SessionFrom(c), opts...)
}

func chatStatus(err error) (int, string) {
	switch {
	case errors.Is(err, chat.ErrEmptyMessage):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, chat.ErrLocked):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, chat.ErrMembersOnly):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, chat.ErrBusy):
		return http.StatusConflict, err.Error()
	}
	return http.StatusInternalServerError, "chat failed"
}

// Send 无状态的一轮对话：客户端带上完整记录，返回追加后的记录
func (h *ChatHandler) Send(c *gin.Context) {
	var req ChatReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
		return
	}

	s := h.session(c, req.CommunityID, req.Messages)
	reply, err := s.Send(c.Request.Context(), req.Message)
	if err != nil {
		status, msg := chatStatus(err)
		c.JSON(status, gin.H{"msg": msg, "gate": s.Gate(c.Request.Context())})
		return
	}
	c.JSON(http.StatusOK, gin.H{"gate": chat.GateOpen, "reply": reply, "messages": s.Transcript()})
}

// Socket 一个连接对应一个会话，逐条处理，天然只有一条在途请求
func (h *ChatHandler) Socket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		glog.Warningf("chat ws upgrade: %v", err)
		return
	}
	defer conn.Close()

	ctx := c.Request.Context()
	s := h.session(c, c.Query("community_id"), nil)
	if err = h.writeState(ctx, conn, s); err != nil {
		return
	}

	for {
		var in wsInput
		if err = conn.ReadJSON(&in); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				glog.Infof("chat ws read: %v", err)
			}
			return
		}

		reply, err := s.Send(ctx, in.Message)
		if err != nil {
			_, msg := chatStatus(err)
			if err = conn.WriteJSON(wsFrame{Type: "error", Msg: msg}); err != nil {
				return
			}
			continue
		}
		if err = conn.WriteJSON(wsFrame{Type: "reply", Message: &reply}); err != nil {
			return
		}
		if err = h.writeState(ctx, conn, s); err != nil {
			return
		}
	}
}

func (h *ChatHandler) writeState(ctx context.Context, conn *websocket.Conn, s *chat.Session) error {
	return conn.WriteJSON(wsFrame{
		Type:       "state",
		Gate:       s.Gate(ctx),
		Generating: s.Generating(),
		Messages:   s.Transcript(),
	})
}
