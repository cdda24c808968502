package sanity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// Mutation is one entry of a transaction. Only document creation is
// needed by the site.
type Mutation struct {
	Create any `json:"create,omitempty"`
}

// MutateResult is the transaction receipt.
type MutateResult struct {
	TransactionID string `json:"transactionId"`
	Results       []struct {
		ID        string `json:"id"`
		Operation string `json:"operation"`
	} `json:"results"`
}

// Mutate commits mutations as a single transaction. It requires a token and
// always talks to the live API, never the CDN.
func (c *Client) Mutate(ctx context.Context, mutations ...Mutation) (MutateResult, error) {
	if c.cfg.Token == "" {
		return MutateResult{}, ErrMissingToken
	}
	payload, err := json.Marshal(struct {
		Mutations []Mutation `json:"mutations"`
	}{mutations})
	if err != nil {
		return MutateResult{}, fmt.Errorf("sanity: encode mutations: %w", err)
	}
	endpoint := c.cfg.baseURL(false) + "/" + c.cfg.version() + "/data/mutate/" +
		url.PathEscape(c.cfg.Dataset) + "?returnIds=true&visibility=sync"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return MutateResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)

	body, err := c.do(req)
	if err != nil {
		return MutateResult{}, fmt.Errorf("sanity: mutate: %w", err)
	}
	var res MutateResult
	if err := json.Unmarshal(body, &res); err != nil {
		return MutateResult{}, fmt.Errorf("sanity: decode mutate response: %w", err)
	}
	return res, nil
}
