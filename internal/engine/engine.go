// Package engine owns the application state and implements every
// transaction that changes it.
package engine

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/erazemk/renova/internal/audit"
	"github.com/erazemk/renova/internal/model"
	"github.com/erazemk/renova/internal/store"
)

// IDFunc generates unique record ids.
type IDFunc func() string

// NewV7 returns a time-ordered UUID string.
func NewV7() string {
	return uuid.Must(uuid.NewV7()).String()
}

// State is the complete set of collections owned by the engine.
type State struct {
	Items []model.Item
	Loans []model.Loan
	Logs  []model.LogEntry
	Users []model.User
}

func (s State) value(key string) any {
	switch key {
	case store.KeyInventory:
		return s.Items
	case store.KeyLoans:
		return s.Loans
	case store.KeyLogs:
		return s.Logs
	case store.KeyUsers:
		return s.Users
	}
	panic("engine: unknown collection " + key)
}

// Engine applies transactions to the state and persists the collections
// they touch. It is safe for concurrent use; mutations are serialized.
type Engine struct {
	mu    sync.RWMutex
	state State

	db       *sql.DB
	records  *store.Records
	validate *validator.Validate
	now      func() time.Time
	newID    IDFunc
	log      *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDs overrides the id generator.
func WithIDs(f IDFunc) Option {
	return func(e *Engine) { e.newID = f }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// New loads the persisted collections from db. Missing or unreadable
// collections start from their defaults.
func New(ctx context.Context, db *sql.DB, opts ...Option) *Engine {
	e := &Engine{
		db:       db,
		validate: newValidator(),
		now:      time.Now,
		newID:    NewV7,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.records = store.NewRecords(db, e.log)

	e.state = State{
		Items: store.LoadList(ctx, e.records, store.KeyInventory, model.DefaultItems()),
		Loans: store.LoadList(ctx, e.records, store.KeyLoans, []model.Loan{}),
		Logs:  store.LoadList(ctx, e.records, store.KeyLogs, []model.LogEntry{}),
		Users: store.LoadList(ctx, e.records, store.KeyUsers, model.DefaultUsers()),
	}
	if len(e.state.Users) == 0 {
		e.state.Users = model.DefaultUsers()
	}

	return e
}

// Snapshot returns a copy of the current state.
func (e *Engine) Snapshot() State {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return State{
		Items: slices.Clone(e.state.Items),
		Loans: slices.Clone(e.state.Loans),
		Logs:  slices.Clone(e.state.Logs),
		Users: slices.Clone(e.state.Users),
	}
}

// commit persists the named collections of next and, only if that
// succeeds, makes next the current state. Callers must hold e.mu.
func (e *Engine) commit(ctx context.Context, next State, keys ...string) error {
	records := make([]store.Record, 0, len(keys))
	for _, key := range keys {
		records = append(records, store.Record{Key: key, Value: next.value(key)})
	}
	if err := e.records.SaveAll(ctx, records...); err != nil {
		return fmt.Errorf("persisting state: %w", err)
	}
	e.state = next
	return nil
}

// record derives the log entry for ev and returns next with it prepended.
func (e *Engine) record(next State, actor model.Actor, ev audit.Event) (State, model.LogEntry) {
	entry := audit.Record(e.newID(), e.now(), actor, ev)
	next.Logs = audit.Prepend(next.Logs, entry)
	return next, entry
}

func requireRole(actor model.Actor, minimum string) error {
	if !model.RoleAtLeast(actor.Role, minimum) {
		return ErrForbidden
	}
	return nil
}

func (e *Engine) itemIndex(id string) int {
	return slices.IndexFunc(e.state.Items, func(it model.Item) bool { return it.ID == id })
}

func (e *Engine) loanIndex(id string) int {
	return slices.IndexFunc(e.state.Loans, func(l model.Loan) bool { return l.ID == id })
}

func (e *Engine) userIndex(id string) int {
	return slices.IndexFunc(e.state.Users, func(u model.User) bool { return u.ID == id })
}
