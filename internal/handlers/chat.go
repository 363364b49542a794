package handlers

import (
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"bee-social/internal/apperrors"
	"bee-social/internal/identity"
	"bee-social/internal/models"
	"bee-social/internal/observability"
	"bee-social/internal/repositories"
	"bee-social/internal/telemetry"
	"bee-social/internal/ws"
)

const maxMessageLength = 2000

// ChatHandler manages chat endpoints.
type ChatHandler struct {
	chatRepo    repositories.ChatRepository
	messageRepo repositories.MessageRepository
	profiles    identity.Resolver
	hub         ws.Broadcaster
	events      telemetry.Sink
}

// NewChatHandler builds a ChatHandler. hub and events may be nil.
func NewChatHandler(chatRepo repositories.ChatRepository, messageRepo repositories.MessageRepository, profiles identity.Resolver, hub ws.Broadcaster, events telemetry.Sink) *ChatHandler {
	return &ChatHandler{
		chatRepo:    chatRepo,
		messageRepo: messageRepo,
		profiles:    profiles,
		hub:         hub,
		events:      events,
	}
}

type createChatRequest struct {
	Name    *string  `json:"name"`
	UserIDs []string `json:"userIds"`
}

type createChatResponse struct {
	models.Chat
	Participants []models.Profile `json:"participants"`
	Created      bool             `json:"created"`
}

// CreateChat opens a group chat or returns the direct chat for a pair,
// creating it on first use.
func (h *ChatHandler) CreateChat(c *gin.Context) {
	var req createChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperrors.BadRequest("invalid request body").Wrap(err))
		return
	}

	userID := currentUserID(c)
	plan, appErr := planChat(userID, req.Name, req.UserIDs)
	if appErr != nil {
		fail(c, appErr)
		return
	}

	ctx := c.Request.Context()
	profiles, err := h.profiles.Profiles(ctx, plan.others)
	if err != nil {
		fail(c, apperrors.Internal("failed to resolve participants").Wrap(err))
		return
	}
	for _, id := range plan.others {
		if _, ok := profiles[id]; !ok {
			fail(c, apperrors.NotFound("user "+id+" not found"))
			return
		}
	}

	var (
		chat    models.Chat
		created = true
		kind    = "group"
	)
	if plan.group {
		chat, err = h.chatRepo.CreateGroupChat(ctx, plan.name, plan.participants)
	} else {
		kind = "direct"
		chat, created, err = h.chatRepo.CreateOrGetDirectChat(ctx, userID, plan.others[0])
	}
	if err != nil {
		fail(c, apperrors.Internal("could not create chat").Wrap(err))
		return
	}

	participants := make([]models.Profile, 0, len(plan.others))
	for _, id := range plan.others {
		participants = append(participants, profiles[id])
	}

	status := http.StatusOK
	result := "reused"
	if created {
		status = http.StatusCreated
		result = "created"
		emit(h.events, c, telemetry.EventChatCreated, gin.H{"chatId": chat.ID, "isGroupChat": chat.IsGroupChat, "participants": plan.participants})
	}
	observability.IncChatCreated(kind, result)

	c.JSON(status, createChatResponse{Chat: chat, Participants: participants, Created: created})
}

// ListChats returns the caller's chats, most recent activity first.
func (h *ChatHandler) ListChats(c *gin.Context) {
	userID := currentUserID(c)
	ctx := c.Request.Context()

	rows, err := h.chatRepo.ListChats(ctx, userID)
	if err != nil {
		fail(c, apperrors.Internal("failed to load chats").Wrap(err))
		return
	}
	sortChatList(rows)

	var ids []string
	for _, row := range rows {
		ids = append(ids, row.ParticipantIDs...)
	}
	profiles := resolveProfiles(ctx, h.profiles.Profiles, ids)

	chats := make([]models.ChatSummary, 0, len(rows))
	for _, row := range rows {
		chats = append(chats, summaryFromRow(row, profiles))
	}
	c.JSON(http.StatusOK, gin.H{"chats": chats})
}

// GetFullChat returns the chat with all messages and marks them read for the caller.
func (h *ChatHandler) GetFullChat(c *gin.Context) {
	chat, ok := h.memberChat(c)
	if !ok {
		return
	}
	userID := currentUserID(c)
	ctx := c.Request.Context()

	msgs, marked, err := h.messageRepo.ReadChat(ctx, chat.ID, userID)
	if err != nil {
		fail(c, apperrors.Internal("failed to load messages").Wrap(err))
		return
	}
	if marked > 0 {
		h.announceRead(c, chat.ID, userID, marked)
	}

	participants, err := h.otherParticipants(c, chat.ID, userID)
	if err != nil {
		fail(c, apperrors.Internal("failed to load participants").Wrap(err))
		return
	}

	c.JSON(http.StatusOK, models.FullChat{Chat: chat, Participants: participants, Messages: nonNilMessages(msgs)})
}

// GetMessages returns messages without touching read state.
func (h *ChatHandler) GetMessages(c *gin.Context) {
	chat, ok := h.memberChat(c)
	if !ok {
		return
	}

	msgs, err := h.messageRepo.ListMessages(c.Request.Context(), chat.ID)
	if err != nil {
		fail(c, apperrors.Internal("failed to load messages").Wrap(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": nonNilMessages(msgs)})
}

// SendMessage stores a message and pushes it to live subscribers.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperrors.BadRequest("invalid request body").Wrap(err))
		return
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		fail(c, apperrors.BadRequest("message text is required"))
		return
	}
	if utf8.RuneCountInString(text) > maxMessageLength {
		fail(c, apperrors.BadRequest("message text is too long"))
		return
	}

	chat, ok := h.memberChat(c)
	if !ok {
		return
	}
	userID := currentUserID(c)

	msg, err := h.messageRepo.CreateMessage(c.Request.Context(), chat.ID, userID, text)
	if errors.Is(err, repositories.ErrNotParticipant) {
		fail(c, apperrors.Forbidden("not a chat participant"))
		return
	}
	if err != nil {
		fail(c, apperrors.Internal("failed to send message").Wrap(err))
		return
	}

	observability.IncMessageSent()
	if h.hub != nil {
		h.hub.Broadcast(chat.ID, models.ChatEvent{Type: "message", Message: &msg})
	}
	emit(h.events, c, telemetry.EventChatMessageSent, msg)

	c.JSON(http.StatusCreated, msg)
}

// MarkRead marks every message in the chat read by the caller.
func (h *ChatHandler) MarkRead(c *gin.Context) {
	chat, ok := h.memberChat(c)
	if !ok {
		return
	}
	userID := currentUserID(c)

	marked, err := h.messageRepo.MarkChatRead(c.Request.Context(), chat.ID, userID)
	if err != nil {
		fail(c, apperrors.Internal("failed to mark chat read").Wrap(err))
		return
	}
	if marked > 0 {
		h.announceRead(c, chat.ID, userID, marked)
	}
	c.JSON(http.StatusOK, gin.H{"marked": marked})
}

// UnreadMessages counts messages across the caller's chats they have not read.
func (h *ChatHandler) UnreadMessages(c *gin.Context) {
	count, err := h.chatRepo.CountUnreadMessages(c.Request.Context(), currentUserID(c))
	if err != nil {
		fail(c, apperrors.Internal("failed to count unread messages").Wrap(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

// memberChat loads the chat named in the path and checks the caller belongs to it.
func (h *ChatHandler) memberChat(c *gin.Context) (models.Chat, bool) {
	chatID, ok := intParam(c, "chat_id")
	if !ok {
		return models.Chat{}, false
	}
	ctx := c.Request.Context()

	chat, err := h.chatRepo.GetChat(ctx, chatID)
	if errors.Is(err, repositories.ErrChatNotFound) {
		fail(c, apperrors.NotFound("chat not found"))
		return models.Chat{}, false
	}
	if err != nil {
		fail(c, apperrors.Internal("failed to load chat").Wrap(err))
		return models.Chat{}, false
	}

	member, err := h.chatRepo.IsParticipant(ctx, chatID, currentUserID(c))
	if err != nil {
		fail(c, apperrors.Internal("failed to verify membership").Wrap(err))
		return models.Chat{}, false
	}
	if !member {
		fail(c, apperrors.Forbidden("not a chat participant"))
		return models.Chat{}, false
	}
	return chat, true
}

func (h *ChatHandler) otherParticipants(c *gin.Context, chatID int, userID string) ([]models.Profile, error) {
	ctx := c.Request.Context()
	ids, err := h.chatRepo.ListParticipants(ctx, chatID)
	if err != nil {
		return nil, err
	}
	others := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != userID {
			others = append(others, id)
		}
	}
	profiles := resolveProfiles(ctx, h.profiles.Profiles, others)

	out := make([]models.Profile, 0, len(others))
	for _, id := range others {
		out = append(out, profileOrStub(profiles, id))
	}
	return out, nil
}

func (h *ChatHandler) announceRead(c *gin.Context, chatID int, userID string, marked int) {
	if h.hub != nil {
		h.hub.Broadcast(chatID, models.ChatEvent{Type: "read", UserID: userID, ReadCount: marked})
	}
	emit(h.events, c, telemetry.EventChatRead, gin.H{"chatId": chatID, "userId": userID, "readCount": marked})
}

func nonNilMessages(msgs []models.Message) []models.Message {
	if msgs == nil {
		return []models.Message{}
	}
	return msgs
}
