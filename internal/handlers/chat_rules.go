package handlers

import (
	"sort"
	"strings"

	"bee-social/internal/apperrors"
	"bee-social/internal/models"
)

// chatPlan is a validated chat creation request.
type chatPlan struct {
	group bool
	name  string
	// others excludes the caller; participants includes it.
	others       []string
	participants []string
}

// planChat normalizes the requested participants and decides between a
// direct and a group chat.
func planChat(callerID string, name *string, userIDs []string) (chatPlan, *apperrors.AppError) {
	seen := map[string]struct{}{callerID: {}}
	var others []string
	for _, id := range userIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		others = append(others, id)
	}
	if len(others) == 0 {
		return chatPlan{}, apperrors.BadRequest("a chat needs at least one other participant")
	}

	plan := chatPlan{
		others:       others,
		participants: append([]string{callerID}, others...),
	}
	if len(plan.participants) > 2 {
		plan.group = true
		if name != nil {
			plan.name = strings.TrimSpace(*name)
		}
		if plan.name == "" {
			return chatPlan{}, apperrors.BadRequest("group chats need a name")
		}
	}
	return plan, nil
}

// sortChatList orders chats by latest message, newest first. Chats without
// messages follow, newest chat first.
func sortChatList(rows []models.ChatListRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		switch {
		case a.LastCreatedAt != nil && b.LastCreatedAt != nil:
			if !a.LastCreatedAt.Equal(*b.LastCreatedAt) {
				return a.LastCreatedAt.After(*b.LastCreatedAt)
			}
		case a.LastCreatedAt != nil:
			return true
		case b.LastCreatedAt != nil:
			return false
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ChatID > b.ChatID
	})
}

func summaryFromRow(row models.ChatListRow, profiles map[string]models.Profile) models.ChatSummary {
	participants := make([]models.Profile, 0, len(row.ParticipantIDs))
	for _, id := range row.ParticipantIDs {
		participants = append(participants, profileOrStub(profiles, id))
	}

	summary := models.ChatSummary{
		Chat: models.Chat{
			ID:          row.ChatID,
			Name:        row.Name,
			IsGroupChat: row.IsGroupChat,
			CreatedAt:   row.CreatedAt,
		},
		Participants: participants,
		IsRead:       row.LastReadByUser,
		UnreadCount:  row.UnreadCount,
	}
	if row.LastMessageID != nil {
		summary.LastMessage = &models.Message{
			ID:        *row.LastMessageID,
			ChatID:    row.ChatID,
			SenderID:  deref(row.LastSenderID),
			Content:   deref(row.LastContent),
			CreatedAt: *row.LastCreatedAt,
		}
	}
	return summary
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
