package upstream

import (
	"context"
	"net/http"
	"time"
)

// Proposal is a formal application created from a quote, pending
// underwriting.
type Proposal struct {
	ID         string    `json:"id"`
	QuoteID    string    `json:"quoteId"`
	HolderName string    `json:"holderName"`
	Status     string    `json:"status"`
	Remarks    string    `json:"remarks,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

type ProposalRequest struct {
	QuoteID    string `json:"quoteId"`
	HolderName string `json:"holderName"`
	Nominee    string `json:"nominee,omitempty"`
}

// ProposalDecision is an underwriter's verdict.
type ProposalDecision struct {
	Approved bool   `json:"approved"`
	Remarks  string `json:"remarks,omitempty"`
}

func (c *Client) SubmitProposal(ctx context.Context, req ProposalRequest) (Proposal, error) {
	var out Proposal
	err := c.do(ctx, http.MethodPost, "/proposals", req, &out)
	return out, err
}

func (c *Client) Proposals(ctx context.Context) ([]Proposal, error) {
	var out []Proposal
	err := c.do(ctx, http.MethodGet, "/proposals", nil, &out)
	return out, err
}

func (c *Client) DecideProposal(ctx context.Context, id string, decision ProposalDecision) (Proposal, error) {
	var out Proposal
	err := c.do(ctx, http.MethodPut, "/proposals/"+id+"/decision", decision, &out)
	return out, err
}
