// Package roles is the single source of truth for the platform's role
// vocabulary. The backend embeds roles in tokens and payloads as either the
// numeric code or the display name depending on the endpoint; everything in
// this process normalizes through this table.
package roles

import "strconv"

// Role is the canonical numeric form used in server payloads.
type Role int

const (
	Customer Role = iota
	Agent
	Admin
	Underwriter
)

var names = map[Role]string{
	Customer:    "Customer",
	Agent:       "Agent",
	Admin:       "Admin",
	Underwriter: "Underwriter",
}

var codes = map[string]Role{
	"Customer":    Customer,
	"Agent":       Agent,
	"Admin":       Admin,
	"Underwriter": Underwriter,
}

// Name returns the display form. Unknown codes render as Customer so a bad
// payload can never widen privileges.
func (r Role) Name() string {
	if name, ok := names[r]; ok {
		return name
	}
	return names[Customer]
}

func (r Role) String() string { return r.Name() }

// Valid reports whether r is one of the four defined codes.
func (r Role) Valid() bool {
	_, ok := names[r]
	return ok
}

// FromCode maps a numeric code to a Role, defaulting to Customer.
func FromCode(code int) Role {
	r := Role(code)
	if r.Valid() {
		return r
	}
	return Customer
}

// FromName maps a display name to a Role, defaulting to Customer.
func FromName(name string) Role {
	if r, ok := codes[name]; ok {
		return r
	}
	return Customer
}

// Normalize absorbs every representation the backend is known to emit: JSON
// numbers, numeric strings, and display names.
func Normalize(claim any) Role {
	switch v := claim.(type) {
	case float64:
		return FromCode(int(v))
	case int:
		return FromCode(v)
	case string:
		if code, err := strconv.Atoi(v); err == nil {
			return FromCode(code)
		}
		return FromName(v)
	default:
		return Customer
	}
}

// All lists the defined roles in code order, for allow-list construction.
func All() []Role {
	return []Role{Customer, Agent, Admin, Underwriter}
}
