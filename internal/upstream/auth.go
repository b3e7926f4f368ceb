package upstream

import (
	"context"
	"net/http"

	"coverdesk/internal/authstate"
	"coverdesk/internal/roles"
)

// LoginResponse is the credential-exchange payload as the backend sends it:
// the role travels as its numeric code.
type LoginResponse struct {
	Token string `json:"token"`
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  int    `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for a bearer token. The failure message comes
// from the server payload when present.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResponse, error) {
	var out LoginResponse
	err := c.do(ctx, http.MethodPost, "/auth/login", loginRequest{Email: email, Password: password}, &out)
	return out, err
}

// ExchangeAdapter plugs the client into the auth container's exchanger port.
type ExchangeAdapter struct {
	client *Client
}

func NewExchangeAdapter(client *Client) *ExchangeAdapter {
	return &ExchangeAdapter{client: client}
}

func (a *ExchangeAdapter) ExchangeCredentials(ctx context.Context, email, password string) (authstate.ExchangeResult, error) {
	resp, err := a.client.Login(ctx, email, password)
	if err != nil {
		return authstate.ExchangeResult{}, err
	}
	return authstate.ExchangeResult{
		Token: resp.Token,
		ID:    resp.ID,
		Email: resp.Email,
		Role:  roles.FromCode(resp.Role),
	}, nil
}
