// Package feed manages the subscription to the remote task change
// feed: the wire client that receives mutation events and the state
// machine that ties the subscription's lifetime to the session.
package feed

import (
	"context"

	"github.com/ashik0401/task-mate-client/internal/model"
)

// Scope selects which task events a subscription receives and the
// credential it presents.
type Scope struct {
	// OwnerID restricts the stream to tasks owned by this identity.
	// Empty receives events for all tasks.
	OwnerID string

	// Token is the bearer credential for the stream.
	Token string
}

// Handle is one established subscription. Events are delivered on the
// Events channel in feed order; the channel closes when the
// subscription ends. Err reports why it ended when the cause was not a
// Close call.
type Handle interface {
	Events() <-chan model.ChangeEvent
	Err() error
	Close()
}

// Feed is the change feed collaborator boundary.
type Feed interface {
	Subscribe(ctx context.Context, scope Scope) (Handle, error)
}
