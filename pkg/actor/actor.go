// Package actor identifies the user or system performing an action.
//
// The auth middleware attaches an Actor built from the access token; the
// inventory handlers read it to attribute stock movements and acknowledgements
// and to check permissions.
package actor

import (
	"context"
	"fmt"

	"github.com/omiam/omiam-backend/pkg/permissions"
)

const systemID = "system"

// Actor represents the entity performing an action in the system.
type Actor struct {
	// ID is the employee/user identifier used as employeeId
	ID string `json:"id"`

	// Name is the display name from the token
	Name string `json:"name"`

	// Role is the back-office role (admin, manager, kitchen, ...)
	Role string `json:"role,omitempty"`

	// Permissions overrides the role defaults when present
	Permissions []string `json:"permissions,omitempty"`
}

// String returns a string representation of the actor for logging
func (a *Actor) String() string {
	if a == nil {
		return systemID
	}
	return fmt.Sprintf("%s (%s)", a.Name, a.ID)
}

// Can reports whether the actor holds the given permission. Explicit token
// permissions win; otherwise the role defaults apply. The system actor can
// do everything.
func (a *Actor) Can(permission string) bool {
	if a.IsSystem() {
		return true
	}
	perms := a.Permissions
	if len(perms) == 0 {
		perms = permissions.ForRole(a.Role)
	}
	return permissions.HasPermission(perms, permission)
}

// IsSystem returns true if the actor represents the system.
func (a *Actor) IsSystem() bool {
	if a == nil {
		return true
	}
	return a.ID == systemID
}

type contextKey string

const actorContextKey contextKey = "actor"

// FromContext retrieves the Actor from the context.
// Returns nil if no actor is present (auth disabled or system operations).
func FromContext(ctx context.Context) *Actor {
	if ctx == nil {
		return nil
	}
	a, ok := ctx.Value(actorContextKey).(*Actor)
	if !ok {
		return nil
	}
	return a
}

// IDFromContext returns the actor ID, or "" when no actor is attached
func IDFromContext(ctx context.Context) string {
	if a := FromContext(ctx); a != nil {
		return a.ID
	}
	return ""
}

// WithActor returns a new context with the Actor attached.
func WithActor(ctx context.Context, a *Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, actorContextKey, a)
}

// SystemActor returns an Actor representing the service itself, used by
// event consumers.
func SystemActor() *Actor {
	return &Actor{
		ID:   systemID,
		Name: "System",
	}
}
