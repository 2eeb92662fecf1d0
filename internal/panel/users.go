package panel

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"remnawave.dev/internal/client"
)

// UsersService manages subscription accounts.
type UsersService struct {
	client *client.Client
}

// ListUsersParams narrows the user listing.
type ListUsersParams struct {
	Limit  int
	Offset int
	Search string
	Status string
}

// CreateUserRequest is the payload for a new account.
type CreateUserRequest struct {
	Username          string     `json:"username"`
	TrafficLimitBytes int64      `json:"traffic_limit_bytes,omitempty"`
	ExpireAt          *time.Time `json:"expire_at,omitempty"`
}

// UpdateUserRequest carries partial updates; nil fields stay untouched.
type UpdateUserRequest struct {
	Status            *string    `json:"status,omitempty"`
	TrafficLimitBytes *int64     `json:"traffic_limit_bytes,omitempty"`
	ExpireAt          *time.Time `json:"expire_at,omitempty"`
}

func (s *UsersService) List(ctx context.Context, params ListUsersParams) (UserPage, error) {
	query := url.Values{}
	if params.Limit > 0 {
		query.Set("limit", strconv.Itoa(params.Limit))
	}
	if params.Offset > 0 {
		query.Set("offset", strconv.Itoa(params.Offset))
	}
	if params.Search != "" {
		query.Set("search", params.Search)
	}
	if params.Status != "" {
		query.Set("status", params.Status)
	}
	var page UserPage
	if err := s.client.Get(ctx, "/users", query, &page); err != nil {
		return UserPage{}, err
	}
	return page, nil
}

func (s *UsersService) Get(ctx context.Context, id string) (User, error) {
	id, err := requireID(id, "user id")
	if err != nil {
		return User{}, err
	}
	var user User
	if err := s.client.Get(ctx, "/users/"+url.PathEscape(id), nil, &user); err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *UsersService) Create(ctx context.Context, req CreateUserRequest) (User, error) {
	if strings.TrimSpace(req.Username) == "" {
		return User{}, fmt.Errorf("%w: username is required", ErrInvalidInput)
	}
	var user User
	if err := s.client.Post(ctx, "/users", req, &user); err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *UsersService) Update(ctx context.Context, id string, req UpdateUserRequest) (User, error) {
	id, err := requireID(id, "user id")
	if err != nil {
		return User{}, err
	}
	var user User
	if err := s.client.Do(ctx, http.MethodPatch, "/users/"+url.PathEscape(id), nil, req, &user); err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *UsersService) Delete(ctx context.Context, id string) error {
	id, err := requireID(id, "user id")
	if err != nil {
		return err
	}
	return s.client.Do(ctx, http.MethodDelete, "/users/"+url.PathEscape(id), nil, nil, nil)
}

// ResetTraffic zeroes the account's used-traffic counter.
func (s *UsersService) ResetTraffic(ctx context.Context, id string) error {
	id, err := requireID(id, "user id")
	if err != nil {
		return err
	}
	return s.client.Post(ctx, "/users/"+url.PathEscape(id)+"/reset-traffic", nil, nil)
}

func requireID(id, what string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("%w: %s is required", ErrInvalidInput, what)
	}
	return id, nil
}
