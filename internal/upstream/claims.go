package upstream

import (
	"context"
	"net/http"
	"time"
)

// Claim is a request for payout against a policy.
type Claim struct {
	ID          string    `json:"id"`
	PolicyID    string    `json:"policyId"`
	Amount      float64   `json:"amount"`
	Reason      string    `json:"reason"`
	Status      string    `json:"status"`
	ReviewNotes string    `json:"reviewNotes,omitempty"`
	FiledAt     time.Time `json:"filedAt"`
}

type ClaimRequest struct {
	PolicyID string  `json:"policyId"`
	Amount   float64 `json:"amount"`
	Reason   string  `json:"reason"`
}

// ClaimReview is the underwriter/admin verdict on a filed claim.
type ClaimReview struct {
	Approved bool   `json:"approved"`
	Notes    string `json:"notes,omitempty"`
}

func (c *Client) FileClaim(ctx context.Context, req ClaimRequest) (Claim, error) {
	var out Claim
	err := c.do(ctx, http.MethodPost, "/claims", req, &out)
	return out, err
}

func (c *Client) Claims(ctx context.Context) ([]Claim, error) {
	var out []Claim
	err := c.do(ctx, http.MethodGet, "/claims", nil, &out)
	return out, err
}

// PendingClaims lists claims awaiting review.
func (c *Client) PendingClaims(ctx context.Context) ([]Claim, error) {
	var out []Claim
	err := c.do(ctx, http.MethodGet, "/claims/pending", nil, &out)
	return out, err
}

func (c *Client) ReviewClaim(ctx context.Context, id string, review ClaimReview) (Claim, error) {
	var out Claim
	err := c.do(ctx, http.MethodPut, "/claims/"+id+"/review", review, &out)
	return out, err
}
