package api

import (
	"context"
	"fmt"

	"github.com/ashik0401/task-mate-client/internal/model"
)

// SignIn exchanges email and password for a session. On success the
// client's bearer token is set to the new access token.
func (c *Client) SignIn(ctx context.Context, email, password string) (*model.Session, error) {
	var out sessionResponse
	err := c.Post(ctx, "/auth/sign-in", signInRequest{Email: email, Password: password}, &out)
	if err != nil {
		return nil, fmt.Errorf("signing in: %w", err)
	}

	c.SetToken(out.AccessToken)
	return &model.Session{
		UserID:      out.User.ID,
		Email:       out.User.Email,
		AccessToken: out.AccessToken,
	}, nil
}

// CurrentSession validates the client's bearer token against the
// identity provider and returns the session it belongs to. A nil
// session with nil error means signed out (no token configured).
// An invalid or expired token surfaces as an AuthError.
func (c *Client) CurrentSession(ctx context.Context) (*model.Session, error) {
	if c.bearerToken() == "" {
		return nil, nil
	}

	var out sessionResponse
	if err := c.Get(ctx, "/auth/session", &out); err != nil {
		return nil, fmt.Errorf("fetching session: %w", err)
	}

	token := out.AccessToken
	if token == "" {
		token = c.bearerToken()
	}
	return &model.Session{
		UserID:      out.User.ID,
		Email:       out.User.Email,
		AccessToken: token,
	}, nil
}

// SignOut revokes the current session and clears the client's token.
func (c *Client) SignOut(ctx context.Context) error {
	if c.bearerToken() == "" {
		return nil
	}
	if err := c.Post(ctx, "/auth/sign-out", nil, nil); err != nil {
		return fmt.Errorf("signing out: %w", err)
	}
	c.SetToken("")
	return nil
}
