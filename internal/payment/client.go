package payment

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"tradepost.org/internal/market"
)

const defaultCallTimeout = 5 * time.Second

// Client is the checkout orchestrator's Authorizer backed by the external
// payment service. A transport failure surfaces as an error; only an explicit
// verdict from the service is reported as approved/declined.
type Client struct {
	conn    *grpc.ClientConn
	timeout time.Duration
}

// ClientOption configures the client.
type ClientOption func(*Client)

// WithCallTimeout bounds every Authorize call.
func WithCallTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// Dial connects to the payment service at addr.
func Dial(addr string, opts ...ClientOption) (*Client, error) {
	conn, err := grpc.NewClient(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(CodecName)),
	)
	if err != nil {
		return nil, err
	}
	c := &Client{conn: conn, timeout: defaultCallTimeout}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Authorize forwards the card to the payment service and returns its verdict.
func (c *Client) Authorize(ctx context.Context, card market.PaymentCard) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req := &AuthorizeRequest{
		HolderName: card.HolderName,
		CardNumber: card.Number,
		Expiry:     card.Expiry,
		CVV:        card.CVV,
	}
	resp := new(AuthorizeResponse)
	if err := c.conn.Invoke(ctx, authorizeMethod, req, resp); err != nil {
		return false, err
	}
	return resp.Approved, nil
}

func (c *Client) Close() error { return c.conn.Close() }
