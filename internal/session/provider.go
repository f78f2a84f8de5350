// Package session tracks the authenticated identity the application is
// running as and tells subscribers when it changes. The engine ties the
// change feed subscription's lifetime to these transitions.
package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ashik0401/task-mate-client/internal/api"
	"github.com/ashik0401/task-mate-client/internal/model"
)

// Provider is the identity provider boundary. The monitor only reads
// session state and revokes it; it never issues or refreshes
// credentials.
type Provider interface {
	// CurrentSession returns the active session, or nil when signed
	// out.
	CurrentSession(ctx context.Context) (*model.Session, error)

	// SignOut revokes the active session.
	SignOut(ctx context.Context) error
}

// tokenStore abstracts the credential persistence so tests can swap
// the system keyring out.
type tokenStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// APIProvider implements Provider on top of the task service's auth
// endpoints, with the access token persisted in the system keyring.
type APIProvider struct {
	client *api.Client
	tokens tokenStore
}

// NewAPIProvider creates a provider backed by the given API client.
func NewAPIProvider(client *api.Client) *APIProvider {
	return &APIProvider{client: client, tokens: TokenStore{}}
}

// CurrentSession loads the stored token, validates it against the
// identity provider, and returns the session it belongs to. A rejected
// token is cleared and reported as signed out rather than an error.
func (p *APIProvider) CurrentSession(ctx context.Context) (*model.Session, error) {
	token, err := p.tokens.Load()
	if err != nil {
		return nil, fmt.Errorf("loading session token: %w", err)
	}
	if token == "" {
		return nil, nil
	}

	p.client.SetToken(token)
	sess, err := p.client.CurrentSession(ctx)
	if err != nil {
		if api.IsAuthError(err) {
			slog.Info("stored session token rejected, clearing it")
			p.client.SetToken("")
			if clearErr := p.tokens.Clear(); clearErr != nil {
				slog.Warn("clearing rejected token failed", "error", clearErr)
			}
			return nil, nil
		}
		return nil, err
	}
	return sess, nil
}

// StoreSession persists a freshly signed-in session's token.
func (p *APIProvider) StoreSession(sess *model.Session) error {
	p.client.SetToken(sess.AccessToken)
	if err := p.tokens.Save(sess.AccessToken); err != nil {
		return fmt.Errorf("storing session token: %w", err)
	}
	return nil
}

// SignOut revokes the session with the identity provider and clears
// the stored token.
func (p *APIProvider) SignOut(ctx context.Context) error {
	if err := p.client.SignOut(ctx); err != nil && !api.IsAuthError(err) {
		return err
	}
	p.client.SetToken("")
	return p.tokens.Clear()
}
