package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"bee-social/internal/models"
	"bee-social/internal/repositories"
)

type ChatRepositoryMock struct {
	mock.Mock
}

func (m *ChatRepositoryMock) CreateGroupChat(ctx context.Context, name string, participantIDs []string) (models.Chat, error) {
	args := m.Called(ctx, name, participantIDs)
	var chat models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(models.Chat)
	}
	return chat, args.Error(1)
}

func (m *ChatRepositoryMock) CreateOrGetDirectChat(ctx context.Context, userID string, otherID string) (models.Chat, bool, error) {
	args := m.Called(ctx, userID, otherID)
	var chat models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(models.Chat)
	}
	return chat, args.Bool(1), args.Error(2)
}

func (m *ChatRepositoryMock) GetChat(ctx context.Context, chatID int) (models.Chat, error) {
	args := m.Called(ctx, chatID)
	var chat models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(models.Chat)
	}
	return chat, args.Error(1)
}

func (m *ChatRepositoryMock) IsParticipant(ctx context.Context, chatID int, userID string) (bool, error) {
	args := m.Called(ctx, chatID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *ChatRepositoryMock) ListParticipants(ctx context.Context, chatID int) ([]string, error) {
	args := m.Called(ctx, chatID)
	var ids []string
	if val := args.Get(0); val != nil {
		ids = val.([]string)
	}
	return ids, args.Error(1)
}

func (m *ChatRepositoryMock) ListChats(ctx context.Context, userID string) ([]models.ChatListRow, error) {
	args := m.Called(ctx, userID)
	var rows []models.ChatListRow
	if val := args.Get(0); val != nil {
		rows = val.([]models.ChatListRow)
	}
	return rows, args.Error(1)
}

func (m *ChatRepositoryMock) CountUnreadMessages(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) CreateMessage(ctx context.Context, chatID int, senderID string, content string) (models.Message, error) {
	args := m.Called(ctx, chatID, senderID, content)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) ListMessages(ctx context.Context, chatID int) ([]models.Message, error) {
	args := m.Called(ctx, chatID)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) MarkChatRead(ctx context.Context, chatID int, userID string) (int, error) {
	args := m.Called(ctx, chatID, userID)
	return args.Int(0), args.Error(1)
}

func (m *MessageRepositoryMock) ReadChat(ctx context.Context, chatID int, userID string) ([]models.Message, int, error) {
	args := m.Called(ctx, chatID, userID)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Int(1), args.Error(2)
}

type FollowRepositoryMock struct {
	mock.Mock
}

func (m *FollowRepositoryMock) Follow(ctx context.Context, followerID, followingID string) (models.Follow, *models.Notification, error) {
	args := m.Called(ctx, followerID, followingID)
	var edge models.Follow
	if val := args.Get(0); val != nil {
		edge = val.(models.Follow)
	}
	var notif *models.Notification
	if val := args.Get(1); val != nil {
		notif = val.(*models.Notification)
	}
	return edge, notif, args.Error(2)
}

func (m *FollowRepositoryMock) Unfollow(ctx context.Context, followerID, followingID string) error {
	args := m.Called(ctx, followerID, followingID)
	return args.Error(0)
}

func (m *FollowRepositoryMock) IsFollowing(ctx context.Context, followerID, followingID string) (bool, error) {
	args := m.Called(ctx, followerID, followingID)
	return args.Bool(0), args.Error(1)
}

func (m *FollowRepositoryMock) Counts(ctx context.Context, userID string) (models.FollowCounts, error) {
	args := m.Called(ctx, userID)
	var counts models.FollowCounts
	if val := args.Get(0); val != nil {
		counts = val.(models.FollowCounts)
	}
	return counts, args.Error(1)
}

type NotificationRepositoryMock struct {
	mock.Mock
}

func (m *NotificationRepositoryMock) ListForUser(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	args := m.Called(ctx, userID, limit)
	var items []models.Notification
	if val := args.Get(0); val != nil {
		items = val.([]models.Notification)
	}
	return items, args.Error(1)
}

func (m *NotificationRepositoryMock) CountUnread(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *NotificationRepositoryMock) MarkAllRead(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

type PostRepositoryMock struct {
	mock.Mock
}

func (m *PostRepositoryMock) CreatePost(ctx context.Context, authorID string, content string, imageKey *string) (models.Post, error) {
	args := m.Called(ctx, authorID, content, imageKey)
	var post models.Post
	if val := args.Get(0); val != nil {
		post = val.(models.Post)
	}
	return post, args.Error(1)
}

func (m *PostRepositoryMock) GetPost(ctx context.Context, postID int, viewerID string) (models.Post, error) {
	args := m.Called(ctx, postID, viewerID)
	var post models.Post
	if val := args.Get(0); val != nil {
		post = val.(models.Post)
	}
	return post, args.Error(1)
}

func (m *PostRepositoryMock) ListRecent(ctx context.Context, viewerID string, limit int) ([]models.Post, error) {
	args := m.Called(ctx, viewerID, limit)
	var posts []models.Post
	if val := args.Get(0); val != nil {
		posts = val.([]models.Post)
	}
	return posts, args.Error(1)
}

func (m *PostRepositoryMock) ListByAuthor(ctx context.Context, authorID string, viewerID string, limit int) ([]models.Post, error) {
	args := m.Called(ctx, authorID, viewerID, limit)
	var posts []models.Post
	if val := args.Get(0); val != nil {
		posts = val.([]models.Post)
	}
	return posts, args.Error(1)
}

func (m *PostRepositoryMock) SoftDeletePost(ctx context.Context, postID int, authorID string) error {
	args := m.Called(ctx, postID, authorID)
	return args.Error(0)
}

type LikeRepositoryMock struct {
	mock.Mock
}

func (m *LikeRepositoryMock) ToggleLike(ctx context.Context, postID int, userID string) (models.LikeState, *models.Notification, error) {
	args := m.Called(ctx, postID, userID)
	return likeResult(args)
}

func (m *LikeRepositoryMock) SetLike(ctx context.Context, postID int, userID string, liked bool) (models.LikeState, *models.Notification, error) {
	args := m.Called(ctx, postID, userID, liked)
	return likeResult(args)
}

func likeResult(args mock.Arguments) (models.LikeState, *models.Notification, error) {
	var state models.LikeState
	if val := args.Get(0); val != nil {
		state = val.(models.LikeState)
	}
	var notif *models.Notification
	if val := args.Get(1); val != nil {
		notif = val.(*models.Notification)
	}
	return state, notif, args.Error(2)
}

type CommentRepositoryMock struct {
	mock.Mock
}

func (m *CommentRepositoryMock) CreateComment(ctx context.Context, postID int, userID string, content string) (models.Comment, *models.Notification, error) {
	args := m.Called(ctx, postID, userID, content)
	var comment models.Comment
	if val := args.Get(0); val != nil {
		comment = val.(models.Comment)
	}
	var notif *models.Notification
	if val := args.Get(1); val != nil {
		notif = val.(*models.Notification)
	}
	return comment, notif, args.Error(2)
}

func (m *CommentRepositoryMock) ListComments(ctx context.Context, postID int) ([]models.Comment, error) {
	args := m.Called(ctx, postID)
	var comments []models.Comment
	if val := args.Get(0); val != nil {
		comments = val.([]models.Comment)
	}
	return comments, args.Error(1)
}

func (m *CommentRepositoryMock) SoftDeleteComment(ctx context.Context, commentID int, userID string) error {
	args := m.Called(ctx, commentID, userID)
	return args.Error(0)
}

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) Upsert(ctx context.Context, u models.User) (models.User, error) {
	args := m.Called(ctx, u)
	var out models.User
	if val := args.Get(0); val != nil {
		out = val.(models.User)
	}
	return out, args.Error(1)
}

func (m *UserRepositoryMock) GetByID(ctx context.Context, id string) (models.User, error) {
	args := m.Called(ctx, id)
	var u models.User
	if val := args.Get(0); val != nil {
		u = val.(models.User)
	}
	return u, args.Error(1)
}

func (m *UserRepositoryMock) GetByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	args := m.Called(ctx, ids)
	var users []models.User
	if val := args.Get(0); val != nil {
		users = val.([]models.User)
	}
	return users, args.Error(1)
}

func (m *UserRepositoryMock) GetByUsername(ctx context.Context, username string) (models.User, error) {
	args := m.Called(ctx, username)
	var u models.User
	if val := args.Get(0); val != nil {
		u = val.(models.User)
	}
	return u, args.Error(1)
}

func (m *UserRepositoryMock) Search(ctx context.Context, query string, limit int) ([]models.User, error) {
	args := m.Called(ctx, query, limit)
	var users []models.User
	if val := args.Get(0); val != nil {
		users = val.([]models.User)
	}
	return users, args.Error(1)
}

var (
	_ repositories.ChatRepository         = (*ChatRepositoryMock)(nil)
	_ repositories.MessageRepository      = (*MessageRepositoryMock)(nil)
	_ repositories.FollowRepository       = (*FollowRepositoryMock)(nil)
	_ repositories.NotificationRepository = (*NotificationRepositoryMock)(nil)
	_ repositories.PostRepository         = (*PostRepositoryMock)(nil)
	_ repositories.LikeRepository         = (*LikeRepositoryMock)(nil)
	_ repositories.CommentRepository      = (*CommentRepositoryMock)(nil)
	_ repositories.UserRepository         = (*UserRepositoryMock)(nil)
)
