// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"lijstje/internal/gateway"
)

// Operation names used by CallCount and BeforeCall.
const (
	OpCurrentSession = "CurrentSession"
	OpCreateSession  = "CreateSession"
	OpDeleteSession  = "DeleteSession"
	OpCreateAccount  = "CreateAccount"
	OpListTasks      = "ListTasks"
	OpCreateTask     = "CreateTask"
	OpUpdateTask     = "UpdateTask"
	OpDeleteTask     = "DeleteTask"
)

// BaseTime is the creation time of the first record the fake assigns.
var BaseTime = time.Date(2024, 10, 27, 12, 0, 0, 0, time.UTC)

type fakeAccount struct {
	identity gateway.Identity
	password string
}

// FakeGateway is an in-memory implementation of gateway.Gateway for testing.
type FakeGateway struct {
	mu       sync.Mutex
	accounts map[string]fakeAccount // email -> account
	current  string                 // identity id of the current session
	tasks    []gateway.Task
	calls    map[string]int
	ticks    int

	// Error injection for testing
	CurrentSessionErr error
	CreateSessionErr  error
	DeleteSessionErr  error
	CreateAccountErr  error
	ListTasksErr      error
	CreateTaskErr     error
	UpdateTaskErr     error
	DeleteTaskErr     error

	// BeforeCall, if set, runs at the start of every operation outside the
	// fake's lock. Tests use it to hold calls in flight.
	BeforeCall func(op string)
}

// NewFakeGateway creates an empty FakeGateway with no session.
func NewFakeGateway() *FakeGateway {
	return &FakeGateway{
		accounts: make(map[string]fakeAccount),
		calls:    make(map[string]int),
	}
}

// AddAccount registers an identity that can log in with email and password.
func (f *FakeGateway) AddAccount(id, name, email, password string) gateway.Identity {
	f.mu.Lock()
	defer f.mu.Unlock()
	ident := gateway.Identity{ID: id, Name: name, Email: email, CreatedAt: f.nextTime()}
	f.accounts[email] = fakeAccount{identity: ident, password: password}
	return ident
}

// LogIn makes the identity with the given id the current session.
func (f *FakeGateway) LogIn(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = id
}

// CurrentID returns the identity id of the current session, or "".
func (f *FakeGateway) CurrentID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

// AddTask stores a task as-is.
func (f *FakeGateway) AddTask(task gateway.Task) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = append(f.tasks, task)
}

// Task returns the stored task with the given id.
func (f *FakeGateway) Task(id string) (gateway.Task, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return gateway.Task{}, false
}

// TaskCount returns the number of stored tasks across all owners.
func (f *FakeGateway) TaskCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tasks)
}

// CallCount returns how often an operation was invoked.
func (f *FakeGateway) CallCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// TotalCalls returns the number of operations invoked.
func (f *FakeGateway) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *FakeGateway) enter(op string) {
	if f.BeforeCall != nil {
		f.BeforeCall(op)
	}
	f.mu.Lock()
	f.calls[op]++
	f.mu.Unlock()
}

// nextTime returns a strictly increasing timestamp. Caller holds f.mu.
func (f *FakeGateway) nextTime() time.Time {
	f.ticks++
	return BaseTime.Add(time.Duration(f.ticks) * time.Minute)
}

func (f *FakeGateway) identityByID(id string) (gateway.Identity, bool) {
	for _, a := range f.accounts {
		if a.identity.ID == id {
			return a.identity, true
		}
	}
	return gateway.Identity{}, false
}

// CurrentSession implements gateway.Gateway.
func (f *FakeGateway) CurrentSession(ctx context.Context) (gateway.Identity, error) {
	f.enter(OpCurrentSession)
	if f.CurrentSessionErr != nil {
		return gateway.Identity{}, f.CurrentSessionErr
	}
	if err := ctx.Err(); err != nil {
		return gateway.Identity{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.current == "" {
		return gateway.Identity{}, gateway.ErrNoSession
	}
	ident, ok := f.identityByID(f.current)
	if !ok {
		return gateway.Identity{}, gateway.ErrNoSession
	}
	return ident, nil
}

// CreateSession implements gateway.Gateway.
func (f *FakeGateway) CreateSession(ctx context.Context, email, password string) error {
	f.enter(OpCreateSession)
	if f.CreateSessionErr != nil {
		return f.CreateSessionErr
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	acct, ok := f.accounts[email]
	if !ok || acct.password != password {
		return gateway.ErrInvalidCredentials
	}
	f.current = acct.identity.ID
	return nil
}

// DeleteSession implements gateway.Gateway.
func (f *FakeGateway) DeleteSession(ctx context.Context) error {
	f.enter(OpDeleteSession)
	if f.DeleteSessionErr != nil {
		return f.DeleteSessionErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.current == "" {
		return gateway.ErrNoSession
	}
	f.current = ""
	return nil
}

// CreateAccount implements gateway.Gateway.
func (f *FakeGateway) CreateAccount(ctx context.Context, id, email, password, name string) error {
	f.enter(OpCreateAccount)
	if f.CreateAccountErr != nil {
		return f.CreateAccountErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.accounts[email]; exists {
		return gateway.ErrConflict
	}
	f.accounts[email] = fakeAccount{
		identity: gateway.Identity{ID: id, Name: name, Email: email, CreatedAt: f.nextTime()},
		password: password,
	}
	return nil
}

// ListTasks implements gateway.Gateway.
func (f *FakeGateway) ListTasks(ctx context.Context, ownerID string) ([]gateway.Task, error) {
	f.enter(OpListTasks)
	if f.ListTasksErr != nil {
		return nil, f.ListTasksErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []gateway.Task
	for _, t := range f.tasks {
		if t.OwnerID == ownerID {
			result = append(result, t)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// CreateTask implements gateway.Gateway.
func (f *FakeGateway) CreateTask(ctx context.Context, id string, draft gateway.TaskDraft) (gateway.Task, error) {
	f.enter(OpCreateTask)
	if f.CreateTaskErr != nil {
		return gateway.Task{}, f.CreateTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tasks {
		if t.ID == id {
			return gateway.Task{}, gateway.ErrConflict
		}
	}
	task := gateway.Task{
		ID:        id,
		Title:     draft.Title,
		Completed: draft.Completed,
		OwnerID:   draft.OwnerID,
		CreatedAt: f.nextTime(),
	}
	f.tasks = append(f.tasks, task)
	return task, nil
}

// UpdateTask implements gateway.Gateway.
func (f *FakeGateway) UpdateTask(ctx context.Context, id string, completed bool) (gateway.Task, error) {
	f.enter(OpUpdateTask)
	if f.UpdateTaskErr != nil {
		return gateway.Task{}, f.UpdateTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, t := range f.tasks {
		if t.ID == id {
			f.tasks[i].Completed = completed
			return f.tasks[i], nil
		}
	}
	return gateway.Task{}, gateway.ErrNotFound
}

// DeleteTask implements gateway.Gateway.
func (f *FakeGateway) DeleteTask(ctx context.Context, id string) error {
	f.enter(OpDeleteTask)
	if f.DeleteTaskErr != nil {
		return f.DeleteTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, t := range f.tasks {
		if t.ID == id {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			return nil
		}
	}
	return gateway.ErrNotFound
}
