// Package gateway defines the backend-agnostic contract for identity,
// session and task document operations.
package gateway

import "context"

// Gateway is the Backend Gateway consumed by the controllers.
// Backends live under internal/backend; controllers never import them.
type Gateway interface {
	// CurrentSession returns the identity of the current session.
	// Returns ErrNoSession if there is none or it has expired.
	CurrentSession(ctx context.Context) (Identity, error)

	// CreateSession authenticates with email and password and makes the
	// new session current.
	CreateSession(ctx context.Context, email, password string) error

	// DeleteSession ends the current session.
	DeleteSession(ctx context.Context) error

	// CreateAccount registers a new identity under the given id.
	// It does not create a session.
	CreateAccount(ctx context.Context, id, email, password, name string) error

	// ListTasks returns all tasks owned by ownerID, newest first.
	ListTasks(ctx context.Context, ownerID string) ([]Task, error)

	// CreateTask stores a new task under id and returns the stored record,
	// including the backend-assigned creation time.
	CreateTask(ctx context.Context, id string, draft TaskDraft) (Task, error)

	// UpdateTask sets the completed field of a task and returns the stored record.
	UpdateTask(ctx context.Context, id string, completed bool) (Task, error)

	// DeleteTask removes a task.
	DeleteTask(ctx context.Context, id string) error
}
