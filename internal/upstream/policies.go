package upstream

import (
	"context"
	"net/http"
	"time"
)

// Policy is an issued insurance contract.
type Policy struct {
	ID         string    `json:"id"`
	ProposalID string    `json:"proposalId"`
	ProductID  string    `json:"productId"`
	Premium    float64   `json:"premium"`
	SumAssured float64   `json:"sumAssured"`
	Status     string    `json:"status"`
	StartDate  time.Time `json:"startDate"`
	EndDate    time.Time `json:"endDate"`
}

func (c *Client) Policies(ctx context.Context) ([]Policy, error) {
	var out []Policy
	err := c.do(ctx, http.MethodGet, "/policies", nil, &out)
	return out, err
}

func (c *Client) Policy(ctx context.Context, id string) (Policy, error) {
	var out Policy
	err := c.do(ctx, http.MethodGet, "/policies/"+id, nil, &out)
	return out, err
}

// PurchasePolicy converts an approved proposal into an active policy.
func (c *Client) PurchasePolicy(ctx context.Context, proposalID string) (Policy, error) {
	var out Policy
	err := c.do(ctx, http.MethodPost, "/policies", map[string]string{"proposalId": proposalID}, &out)
	return out, err
}
