package upstream

import (
	"context"
	"net/http"
	"time"
)

// Payment is a premium payment receipt.
type Payment struct {
	ID        string    `json:"id"`
	PolicyID  string    `json:"policyId"`
	Amount    float64   `json:"amount"`
	Method    string    `json:"method"`
	Reference string    `json:"reference"`
	PaidAt    time.Time `json:"paidAt"`
}

type PaymentRequest struct {
	PolicyID string  `json:"policyId"`
	Amount   float64 `json:"amount"`
	Method   string  `json:"method"`
}

func (c *Client) PayPremium(ctx context.Context, req PaymentRequest) (Payment, error) {
	var out Payment
	err := c.do(ctx, http.MethodPost, "/payments", req, &out)
	return out, err
}

func (c *Client) Payments(ctx context.Context, policyID string) ([]Payment, error) {
	var out []Payment
	err := c.do(ctx, http.MethodGet, "/policies/"+policyID+"/payments", nil, &out)
	return out, err
}
