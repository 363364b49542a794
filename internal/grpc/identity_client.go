package grpc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"bee-social/internal/identity"
	"bee-social/internal/models"
)

const (
	getUserMethod  = "/identity.v1.Directory/GetUser"
	getUsersMethod = "/identity.v1.Directory/GetUsers"
)

// IdentityClient talks to the identity provider's directory service. Requests
// and responses are google.protobuf.Struct messages keyed by snake_case names.
type IdentityClient struct {
	conn    grpc.ClientConnInterface
	timeout time.Duration
}

// NewIdentityClient wraps an established connection.
func NewIdentityClient(conn grpc.ClientConnInterface) *IdentityClient {
	return &IdentityClient{conn: conn, timeout: 3 * time.Second}
}

// GetUser fetches one user. NotFound maps to identity.ErrUnknownUser.
func (c *IdentityClient) GetUser(ctx context.Context, id string) (models.User, error) {
	req, err := structpb.NewStruct(map[string]any{"user_id": id})
	if err != nil {
		return models.User{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp := &structpb.Struct{}
	if err := c.conn.Invoke(ctx, getUserMethod, req, resp); err != nil {
		if status.Code(err) == codes.NotFound {
			return models.User{}, identity.ErrUnknownUser
		}
		return models.User{}, fmt.Errorf("identity GetUser: %w", err)
	}

	u, err := userFromStruct(resp)
	if err != nil {
		return models.User{}, err
	}
	if u.ID == "" {
		return models.User{}, identity.ErrUnknownUser
	}
	return u, nil
}

// GetUsers fetches several users in one call. Unknown ids are omitted.
func (c *IdentityClient) GetUsers(ctx context.Context, ids []string) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	list := make([]any, 0, len(ids))
	for _, id := range ids {
		list = append(list, id)
	}
	req, err := structpb.NewStruct(map[string]any{"user_ids": list})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp := &structpb.Struct{}
	if err := c.conn.Invoke(ctx, getUsersMethod, req, resp); err != nil {
		return nil, fmt.Errorf("identity GetUsers: %w", err)
	}

	values := resp.GetFields()["users"].GetListValue().GetValues()
	users := make([]models.User, 0, len(values))
	for _, v := range values {
		s := v.GetStructValue()
		if s == nil {
			continue
		}
		u, err := userFromStruct(s)
		if err != nil {
			return nil, err
		}
		if u.ID != "" {
			users = append(users, u)
		}
	}
	return users, nil
}

func userFromStruct(s *structpb.Struct) (models.User, error) {
	if s == nil {
		return models.User{}, errors.New("empty identity response")
	}
	f := s.GetFields()
	u := models.User{
		ID:          f["id"].GetStringValue(),
		Username:    f["username"].GetStringValue(),
		DisplayName: f["display_name"].GetStringValue(),
		AvatarURL:   f["profile_image_url"].GetStringValue(),
		Email:       f["email"].GetStringValue(),
	}
	if u.ID != "" && u.Username == "" {
		return models.User{}, fmt.Errorf("identity user %s has no username", u.ID)
	}
	return u, nil
}
