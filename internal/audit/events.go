// Package audit keeps a trail of session activity so account holders and
// admins can review recent logins. Events flow through a buffered channel to
// a background worker, keeping the auth path non-blocking.
package audit

import (
	"context"
	"time"
)

// Action identifies what happened to the session.
type Action string

const (
	ActionLogin       Action = "login"
	ActionLoginFailed Action = "login_failed"
	ActionLogout      Action = "logout"
	ActionRestore     Action = "restore"
)

// Event is emitted from the auth container to capture a session transition.
// Keep it transport-agnostic so stores and sinks can fan out.
type Event struct {
	Time      time.Time `json:"time"`
	Action    Action    `json:"action"`
	Email     string    `json:"email,omitempty"`
	Device    string    `json:"device,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	Detail    string    `json:"detail,omitempty"`
}

// Sink accepts events without blocking the caller.
type Sink interface {
	Record(event Event)
}

// Discard drops every event; the default when no trail is wired.
type Discard struct{}

func (Discard) Record(Event) {}

// Meta carries request-scoped fields the HTTP layer knows and the emitter
// does not.
type Meta struct {
	RequestID string
	Device    string
}

type contextKeyMeta struct{}

// WithMeta attaches request metadata for downstream emitters.
func WithMeta(ctx context.Context, meta Meta) context.Context {
	return context.WithValue(ctx, contextKeyMeta{}, meta)
}

// MetaFromContext returns the attached metadata, or a zero Meta.
func MetaFromContext(ctx context.Context) Meta {
	meta, _ := ctx.Value(contextKeyMeta{}).(Meta)
	return meta
}
