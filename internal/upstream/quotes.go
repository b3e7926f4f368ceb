package upstream

import (
	"context"
	"net/http"
	"time"
)

// Quote is a premium estimate for a product.
type Quote struct {
	ID         string    `json:"id"`
	ProductID  string    `json:"productId"`
	SumAssured float64   `json:"sumAssured"`
	TermMonths int       `json:"termMonths"`
	Premium    float64   `json:"premium"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
}

// QuoteRequest asks the backend to price a product; the rating itself is
// server-side.
type QuoteRequest struct {
	ProductID  string  `json:"productId"`
	SumAssured float64 `json:"sumAssured"`
	TermMonths int     `json:"termMonths"`
}

func (c *Client) RequestQuote(ctx context.Context, req QuoteRequest) (Quote, error) {
	var out Quote
	err := c.do(ctx, http.MethodPost, "/quotes", req, &out)
	return out, err
}

func (c *Client) Quotes(ctx context.Context) ([]Quote, error) {
	var out []Quote
	err := c.do(ctx, http.MethodGet, "/quotes", nil, &out)
	return out, err
}
