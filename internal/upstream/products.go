package upstream

import (
	"context"
	"net/http"
)

// Product is an insurance product as listed in the catalog.
type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	BasePremium float64 `json:"basePremium"`
	Active      bool    `json:"active"`
}

func (c *Client) Products(ctx context.Context) ([]Product, error) {
	var out []Product
	err := c.do(ctx, http.MethodGet, "/products", nil, &out)
	return out, err
}

func (c *Client) Product(ctx context.Context, id string) (Product, error) {
	var out Product
	err := c.do(ctx, http.MethodGet, "/products/"+id, nil, &out)
	return out, err
}
