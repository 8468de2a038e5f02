package payment

import (
	"context"
	"math/rand/v2"

	"go.uber.org/zap"

	"tradepost.org/internal/obs"
)

// Approver is the simulated authorization backend served by cmd/paymentd.
// Requests with missing fields are declined outright; complete requests are
// approved with a fixed probability.
type Approver struct {
	rate float64
	rng  func() float64
}

// ApproverOption configures the approver.
type ApproverOption func(*Approver)

// WithApprovalRate sets the probability a complete request is approved.
func WithApprovalRate(rate float64) ApproverOption {
	return func(a *Approver) {
		if rate >= 0 && rate <= 1 {
			a.rate = rate
		}
	}
}

// WithRandSource overrides the randomness source (useful for tests).
func WithRandSource(fn func() float64) ApproverOption {
	return func(a *Approver) {
		if fn != nil {
			a.rng = fn
		}
	}
}

// NewApprover constructs the approver with a 0.9 default approval rate.
func NewApprover(opts ...ApproverOption) *Approver {
	a := &Approver{rate: 0.9, rng: rand.Float64}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Authorize implements AuthorizationServer.
func (a *Approver) Authorize(_ context.Context, req *AuthorizeRequest) (*AuthorizeResponse, error) {
	if req.HolderName == "" || req.CardNumber == "" || req.Expiry == "" || req.CVV == "" {
		obs.Logger().Info("authorization declined", zap.String("reason", "incomplete card details"))
		return &AuthorizeResponse{Approved: false, Reason: "incomplete card details"}, nil
	}
	if a.rng() >= a.rate {
		obs.Logger().Info("authorization declined", zap.String("reason", "issuer declined"))
		return &AuthorizeResponse{Approved: false, Reason: "issuer declined"}, nil
	}
	return &AuthorizeResponse{Approved: true}, nil
}
