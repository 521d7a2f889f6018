package gateway

import (
	"time"

	"github.com/google/uuid"
)

// Identity is an authenticated user as known to the backend.
type Identity struct {
	ID        string
	Name      string
	Email     string
	CreatedAt time.Time // zero if the backend does not report it
}

// Task is a single to-do entry owned by one identity.
type Task struct {
	ID        string
	Title     string
	Completed bool
	OwnerID   string
	CreatedAt time.Time
}

// TaskDraft holds the fields sent when creating a task.
type TaskDraft struct {
	Title     string
	Completed bool
	OwnerID   string
}

// NewID returns a fresh unique id for accounts and documents.
func NewID() string {
	return uuid.NewString()
}
