package upstream

import (
	"context"
	"net/http"
)

// EnumValue is one entry of a server-defined enumeration (policy types,
// claim statuses, payment frequencies, ...).
type EnumValue struct {
	Code int    `json:"code"`
	Name string `json:"name"`
}

// Enums is the full reference bundle, keyed by enumeration name. Several
// surfaces need it at mount time, which is why fetches route through the
// de-duplicator.
type Enums map[string][]EnumValue

func (c *Client) Enums(ctx context.Context) (Enums, error) {
	var out Enums
	err := c.do(ctx, http.MethodGet, "/reference/enums", nil, &out)
	return out, err
}

// Dashboard is the role-scoped landing bundle.
type Dashboard struct {
	Counts         map[string]int `json:"counts"`
	RecentClaims   []Claim        `json:"recentClaims,omitempty"`
	RecentQuotes   []Quote        `json:"recentQuotes,omitempty"`
	ActivePolicies []Policy       `json:"activePolicies,omitempty"`
}

func (c *Client) Dashboard(ctx context.Context) (Dashboard, error) {
	var out Dashboard
	err := c.do(ctx, http.MethodGet, "/dashboard", nil, &out)
	return out, err
}
