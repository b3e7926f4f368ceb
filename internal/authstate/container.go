// Package authstate owns the process-wide answer to "who, if anyone, is
// logged in, and with what role". Route guards and role-conditional surfaces
// read snapshots; only the defined transitions mutate the state.
package authstate

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"coverdesk/internal/audit"
	"coverdesk/internal/platform/metrics"
	"coverdesk/internal/roles"
	"coverdesk/internal/session"
	"coverdesk/internal/token"
)

//go:generate mockgen -source=container.go -destination=mocks/mocks.go -package=mocks Exchanger

// Subject is the authenticated principal derived from the credential.
type Subject struct {
	ID    string
	Email string
	Role  roles.Role
}

// Snapshot is the authorization fact consumers act on. Subject is nil exactly
// when Authenticated is false.
type Snapshot struct {
	Authenticated bool
	Subject       *Subject
}

// ExchangeResult is what a successful credential exchange yields.
type ExchangeResult struct {
	Token string
	ID    string
	Email string
	Role  roles.Role
}

// Exchanger performs the credential exchange against the platform backend.
type Exchanger interface {
	ExchangeCredentials(ctx context.Context, email, password string) (ExchangeResult, error)
}

// Container serializes every transition through one mutex, so a restore
// racing a login applies atomically in arrival order (last writer wins).
type Container struct {
	mu      sync.Mutex
	store   token.Store
	decoder *session.Decoder
	exch    Exchanger
	logger  *slog.Logger
	metrics *metrics.Metrics
	sink    audit.Sink
	state   Snapshot
}

// Option configures a Container.
type Option func(*Container)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Container) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Container) { c.metrics = m }
}

func WithAuditSink(sink audit.Sink) Option {
	return func(c *Container) {
		if sink != nil {
			c.sink = sink
		}
	}
}

// New builds the container and derives the initial state from whatever the
// store currently holds. Only a store transport failure is an error; an
// absent, expired, or malformed credential just starts unauthenticated.
func New(ctx context.Context, store token.Store, decoder *session.Decoder, exch Exchanger, opts ...Option) (*Container, error) {
	c := &Container{
		store:   store,
		decoder: decoder,
		exch:    exch,
		logger:  slog.Default(),
		sink:    audit.Discard{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.restoreLocked(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Snapshot returns a copy of the current authorization fact.
func (c *Container) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap := c.state
	if snap.Subject != nil {
		sub := *snap.Subject
		snap.Subject = &sub
	}
	return snap
}

// Login applies an explicit successful-login payload. The caller must have
// persisted the credential via the token store already.
func (c *Container) Login(sub Subject) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = Snapshot{Authenticated: true, Subject: &sub}
}

// Logout clears the store and moves to unauthenticated, unconditionally.
// Logging out while already unauthenticated is a no-op.
func (c *Container) Logout(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	email := ""
	if c.state.Subject != nil {
		email = c.state.Subject.Email
	}
	if err := c.store.Clear(ctx); err != nil {
		return err
	}
	c.state = Snapshot{}
	if c.metrics != nil {
		c.metrics.Logouts.Inc()
	}
	c.record(ctx, audit.ActionLogout, email, "")
	return nil
}

// Restore re-derives state from the store, for when persisted storage may
// have drifted (another replica logged in or out).
func (c *Container) Restore(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.metrics != nil {
		c.metrics.Restores.Inc()
	}
	if err := c.restoreLocked(ctx); err != nil {
		return err
	}
	email := ""
	if c.state.Subject != nil {
		email = c.state.Subject.Email
	}
	c.record(ctx, audit.ActionRestore, email, "")
	return nil
}

// LoginWithCredentials exchanges email/password with the backend, persists
// the returned credential and role tag, and applies the login transition.
// On any failure the container state is untouched and the error carries the
// server's message.
func (c *Container) LoginWithCredentials(ctx context.Context, email, password string) (Subject, error) {
	result, err := c.exch.ExchangeCredentials(ctx, email, password)
	if err != nil {
		if c.metrics != nil {
			c.metrics.LoginFailures.Inc()
		}
		c.record(ctx, audit.ActionLoginFailed, email, err.Error())
		return Subject{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.store.Set(ctx, result.Token); err != nil {
		return Subject{}, err
	}
	if err := c.store.SetRole(ctx, result.Role.Name()); err != nil {
		// All-or-nothing: scrub the half-written store before reporting.
		_ = c.store.Clear(ctx)
		return Subject{}, err
	}

	sub := Subject{ID: result.ID, Email: result.Email, Role: result.Role}
	c.state = Snapshot{Authenticated: true, Subject: &sub}
	if c.metrics != nil {
		c.metrics.Logins.Inc()
	}
	c.record(ctx, audit.ActionLogin, result.Email, "")
	c.logger.InfoContext(ctx, "login succeeded", "role", result.Role.Name())
	return sub, nil
}

// restoreLocked holds the invariant shared by construction and Restore: a
// present, unexpired credential authenticates; anything else scrubs storage
// and lands unauthenticated.
func (c *Container) restoreLocked(ctx context.Context) error {
	cred, err := c.store.Get(ctx)
	if err != nil {
		return err
	}
	if cred == "" {
		c.state = Snapshot{}
		return nil
	}
	if c.decoder.IsExpired(cred) {
		if err := c.store.Clear(ctx); err != nil {
			return err
		}
		c.state = Snapshot{}
		c.logger.InfoContext(ctx, "persisted credential expired or malformed, cleared")
		return nil
	}

	claims := c.decoder.Decode(cred)
	sub := Subject{ID: claims.SubjectID, Email: claims.Email, Role: claims.Role}
	c.state = Snapshot{Authenticated: true, Subject: &sub}
	// Re-cache the role tag so synchronous readers stay consistent with the
	// credential.
	return c.store.SetRole(ctx, claims.Role.Name())
}

func (c *Container) record(ctx context.Context, action audit.Action, email, detail string) {
	meta := audit.MetaFromContext(ctx)
	c.sink.Record(audit.Event{
		Time:      time.Now(),
		Action:    action,
		Email:     email,
		Device:    meta.Device,
		RequestID: meta.RequestID,
		Detail:    detail,
	})
}
