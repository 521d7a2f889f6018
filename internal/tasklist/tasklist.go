// Package tasklist holds the authenticated identity's tasks and reconciles
// them with the gateway.
//
// The gateway is the source of truth. The local list is replaced on Load
// and patched only after a mutation has been confirmed. The lock guards
// local state only and is never held across a gateway call, so
// completions apply in the order responses arrive; each one touches only
// the entry whose id it targets.
package tasklist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"lijstje/internal/gateway"
	"lijstje/internal/notify"
)

// ErrBlankTitle is returned by Create when the trimmed title is empty.
// Nothing is sent and nothing is notified.
var ErrBlankTitle = errors.New("title required")

// Controller owns one identity's task list.
type Controller struct {
	gw      gateway.Gateway
	n       notify.Notifier
	log     *slog.Logger
	ownerID string

	mu     sync.Mutex
	tasks  []gateway.Task
	loaded bool
}

// New creates an empty, unloaded Controller scoped to ownerID.
func New(gw gateway.Gateway, n notify.Notifier, log *slog.Logger, ownerID string) *Controller {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Controller{gw: gw, n: n, log: log, ownerID: ownerID}
}

// Owner returns the identity id the list is scoped to.
func (c *Controller) Owner() string {
	return c.ownerID
}

// Tasks returns a copy of the local list, newest first.
func (c *Controller) Tasks() []gateway.Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]gateway.Task, len(c.tasks))
	copy(out, c.tasks)
	return out
}

// Len returns the number of tasks in the local list.
func (c *Controller) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tasks)
}

// Loaded reports whether Load has completed, successfully or not.
func (c *Controller) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}

// Find returns the local task with the given id.
func (c *Controller) Find(id string) (gateway.Task, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.indexOf(id); i >= 0 {
		return c.tasks[i], true
	}
	return gateway.Task{}, false
}

// Load fetches every task of the owner and replaces the local list.
// On failure the list is left empty.
func (c *Controller) Load(ctx context.Context) error {
	tasks, err := c.gw.ListTasks(ctx, c.ownerID)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loaded = true
	if err != nil {
		c.tasks = nil
		c.log.Debug("load tasks failed", "owner", c.ownerID, "err", err)
		notify.Failed(c.n, notify.LoadFailed)
		return fmt.Errorf("load tasks: %w", err)
	}
	c.tasks = make([]gateway.Task, 0, len(tasks))
	for _, t := range tasks {
		// Every read is scoped to the owner, whatever the backend returned.
		if t.OwnerID == c.ownerID {
			c.tasks = append(c.tasks, t)
		}
	}
	return nil
}

// Create sends a new task with the trimmed title and prepends the stored
// record. A blank title is not attempted and returns ErrBlankTitle.
func (c *Controller) Create(ctx context.Context, title string) (gateway.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return gateway.Task{}, ErrBlankTitle
	}

	task, err := c.gw.CreateTask(ctx, gateway.NewID(), gateway.TaskDraft{
		Title:     title,
		Completed: false,
		OwnerID:   c.ownerID,
	})
	if err != nil {
		c.log.Debug("create task failed", "err", err)
		notify.Failed(c.n, notify.CreateFailed)
		return gateway.Task{}, fmt.Errorf("create task: %w", err)
	}

	c.mu.Lock()
	c.tasks = append([]gateway.Task{task}, c.tasks...)
	c.mu.Unlock()

	notify.Succeeded(c.n, notify.CreateSucceeded)
	return task, nil
}

// Toggle sets the completed field of a task. The local entry is patched
// only after the gateway confirms; on failure it keeps its prior value.
func (c *Controller) Toggle(ctx context.Context, id string, completed bool) error {
	if _, err := c.gw.UpdateTask(ctx, id, completed); err != nil {
		c.log.Debug("update task failed", "task", id, "err", err)
		notify.Failed(c.n, notify.ToggleFailed)
		return fmt.Errorf("update task: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.indexOf(id); i >= 0 {
		c.tasks[i].Completed = completed
	}
	return nil
}

// Delete removes a task and, once confirmed, its local entry.
func (c *Controller) Delete(ctx context.Context, id string) error {
	if err := c.gw.DeleteTask(ctx, id); err != nil {
		c.log.Debug("delete task failed", "task", id, "err", err)
		notify.Failed(c.n, notify.DeleteFailed)
		return fmt.Errorf("delete task: %w", err)
	}

	c.mu.Lock()
	if i := c.indexOf(id); i >= 0 {
		c.tasks = append(c.tasks[:i:i], c.tasks[i+1:]...)
	}
	c.mu.Unlock()

	notify.Succeeded(c.n, notify.DeleteSucceeded)
	return nil
}

// indexOf returns the position of id in the local list, or -1. Caller holds c.mu.
func (c *Controller) indexOf(id string) int {
	for i, t := range c.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}
