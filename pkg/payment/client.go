// Package payment drives plan upgrades: it asks the backend for an order,
// hands the order to the checkout widget, and forwards the signed result
// back to the backend for verification.
package payment

import (
	"context"
	"fmt"
	"net/http"

	"github.com/celebstyle/celebstyle-cli/pkg/httpclient"
	"github.com/celebstyle/celebstyle-cli/pkg/plans"
)

const basePath = "/api/user/apikey/payment"

// Client is the HTTP client for the payment endpoints.
type Client struct {
	*httpclient.BaseClient
}

// NewClient wraps an authenticated base client.
func NewClient(base *httpclient.BaseClient) *Client {
	return &Client{BaseClient: base}
}

// CreateOrder asks the backend for a payable order for planID. The backend
// alone decides amount and currency.
func (c *Client) CreateOrder(ctx context.Context, planID plans.ID) (*CreateOrderResponse, error) {
	var resp CreateOrderResponse
	req := createOrderRequest{PlanID: string(planID)}
	if err := c.DoJSONWithContext(ctx, http.MethodPost, basePath+"/create-order", req, &resp); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	return &resp, nil
}

// Verify submits the gateway's completion fields and returns the server's
// confirmation message.
func (c *Client) Verify(ctx context.Context, req VerifyRequest) (string, error) {
	var resp verifyResponse
	if err := c.DoJSONWithContext(ctx, http.MethodPost, basePath+"/verify", req, &resp); err != nil {
		return "", fmt.Errorf("verify payment: %w", err)
	}
	return resp.Message, nil
}
