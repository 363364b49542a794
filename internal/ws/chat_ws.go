package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"bee-social/internal/logger"
	"bee-social/internal/models"
	"bee-social/internal/observability"
	"bee-social/internal/telemetry"
)

// Participants answers chat membership checks.
type Participants interface {
	IsParticipant(ctx context.Context, chatID int, userID string) (bool, error)
}

// ReadMarker marks a chat read on behalf of a connected user.
type ReadMarker interface {
	MarkChatRead(ctx context.Context, chatID int, userID string) (int, error)
}

// TokenVerifier resolves a bearer token to a user id.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// EventSink receives domain events.
type EventSink interface {
	Emit(ctx context.Context, eventType, requestID, userID string, payload any)
}

// ChatWebSocketHandler handles chat websocket connections.
type ChatWebSocketHandler struct {
	hub      *Hub
	chats    Participants
	reads    ReadMarker
	verifier TokenVerifier
	events   EventSink
	upgrader websocket.Upgrader
}

// NewChatWebSocketHandler constructs a ChatWebSocketHandler. allowedOrigins
// limits browser origins; an empty list accepts any origin.
func NewChatWebSocketHandler(hub *Hub, chats Participants, reads ReadMarker, verifier TokenVerifier, events EventSink, allowedOrigins []string) *ChatWebSocketHandler {
	return &ChatWebSocketHandler{
		hub:      hub,
		chats:    chats,
		reads:    reads,
		verifier: verifier,
		events:   events,
		upgrader: websocket.Upgrader{CheckOrigin: originChecker(allowedOrigins)},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(r *http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

// clientFrame is what subscribers may send over the socket.
type clientFrame struct {
	Type string `json:"type"`
}

// Handle upgrades the connection and registers client.
func (h *ChatWebSocketHandler) Handle(c *gin.Context) {
	chatID, err := strconv.Atoi(c.Param("chat_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id", "code": "BAD_REQUEST"})
		return
	}

	ctx, span := otel.Tracer("bee-social/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	userID, err := h.verifier.Verify(ctx, tokenFromRequest(c))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token", "code": "UNAUTHORIZED"})
		return
	}

	member, err := h.chats.IsParticipant(ctx, chatID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify chat", "code": "INTERNAL_SERVER_ERROR"})
		return
	}
	if !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "not authorized for chat", "code": "FORBIDDEN"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      userID,
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   observability.RequestIDFromRequest(c.Request),
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}
	h.hub.AddClient(chatID, conn, info)

	observability.IncWSActive("chat")
	observability.IncWSEvent("chat", "ws_connect")
	h.emit(telemetry.EventWSConnect, chatID, info, "")

	// The request context ends with the handler; the read loop outlives it.
	go h.readLoop(chatID, conn, info)
}

func (h *ChatWebSocketHandler) readLoop(chatID int, conn *websocket.Conn, info ConnInfo) {
	var closeReason string
	defer func() {
		h.hub.RemoveClient(chatID, conn)
		observability.DecWSActive("chat")
		observability.IncWSEvent("chat", "ws_disconnect")
		h.emit(telemetry.EventWSDisconnect, chatID, info, closeReason)
		_ = conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			closeReason = err.Error()
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				observability.IncWSEvent("chat", "ws_error")
			}
			return
		}

		var frame clientFrame
		if err := json.Unmarshal(data, &frame); err != nil || frame.Type != "read" {
			continue
		}
		h.markRead(chatID, info)
	}
}

func (h *ChatWebSocketHandler) markRead(chatID int, info ConnInfo) {
	if h.reads == nil {
		return
	}
	marked, err := h.reads.MarkChatRead(context.Background(), chatID, info.UserID)
	if err != nil {
		logger.Warn().Err(err).Int("chat_id", chatID).Str("user_id", info.UserID).Msg("ws mark read failed")
		return
	}
	if marked > 0 {
		h.hub.Broadcast(chatID, models.ChatEvent{Type: "read", UserID: info.UserID, ReadCount: marked})
	}
}

func (h *ChatWebSocketHandler) emit(eventType string, chatID int, info ConnInfo, reason string) {
	if h.events == nil {
		return
	}
	h.events.Emit(context.Background(), eventType, info.RequestID, info.UserID, map[string]any{
		"chatId":     chatID,
		"connId":     info.ConnID,
		"deviceId":   info.DeviceID,
		"ip":         info.IP,
		"durationMs": time.Since(info.ConnectedAt).Milliseconds(),
		"reason":     reason,
	})
}

// tokenFromRequest reads the bearer token from the Authorization header or,
// for browsers that cannot set headers on upgrade, the token query parameter.
func tokenFromRequest(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if parts := strings.SplitN(header, " ", 2); len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return c.Query("token")
}
