// Package token owns persistence of the bearer credential and the cached role
// tag. It is the only read/write point for either value; everything else in
// the process receives copies.
package token

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var storeOps = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "coverdesk_token_store_ops_total",
	Help: "Token store operations by kind",
}, []string{"op"})

// Store persists one credential and one role tag per client profile.
//
// Absence is not an error: a cold store returns empty strings with a nil
// error. Only implementations with a network hop (Redis) surface transport
// errors.
type Store interface {
	// Get returns the persisted credential, or "" if none is stored.
	Get(ctx context.Context) (string, error)
	// Set overwrites the persisted credential.
	Set(ctx context.Context, credential string) error
	// Clear removes both the credential and the role tag.
	Clear(ctx context.Context) error
	// Role returns the cached role display name, or "" if none is stored.
	Role(ctx context.Context) (string, error)
	// SetRole caches the role display name; an empty name removes it.
	SetRole(ctx context.Context, name string) error
}
