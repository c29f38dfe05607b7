package payu

import (
	"context"
	"sync"
)

// FakeClient is the processor test double. It hands out deterministic
// checkout URLs and records every request; FailNext makes the next call
// return an unsuccessful result so compensation paths can be exercised.
type FakeClient struct {
	mu       sync.Mutex
	FailNext bool
	FailWith string
	Requests []CheckoutRequest
}

func NewFakeClient() *FakeClient {
	return &FakeClient{}
}

func (f *FakeClient) CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.Requests = append(f.Requests, req)

	if f.FailNext {
		f.FailNext = false
		msg := f.FailWith
		if msg == "" {
			msg = "simulated processor failure"
		}
		return &CheckoutResult{
			Success:       false,
			ReferenceCode: req.ReferenceCode,
			Error:         msg,
		}, nil
	}

	return &CheckoutResult{
		Success:       true,
		CheckoutURL:   "https://sandbox.checkout.example/pay/" + req.ReferenceCode,
		ReferenceCode: req.ReferenceCode,
	}, nil
}

// RequestCount reports how many checkouts were requested.
func (f *FakeClient) RequestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Requests)
}
