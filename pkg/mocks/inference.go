package mocks

import (
	"context"
	"sync"

	"github.com/user/accidentscan/pkg/ports"
)

// InferenceClient is a mock implementation of ports.InferenceClient.
type InferenceClient struct {
	mu       sync.Mutex
	requests []ports.PredictRequest

	PredictFunc func(ctx context.Context, req ports.PredictRequest) (*ports.PredictResponse, error)
	HealthFunc  func(ctx context.Context) (*ports.HealthStatus, error)
}

func (m *InferenceClient) Predict(ctx context.Context, req ports.PredictRequest) (*ports.PredictResponse, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	if m.PredictFunc != nil {
		return m.PredictFunc(ctx, req)
	}
	class := 0
	return &ports.PredictResponse{PredictedClass: &class, Confidence: []float64{0.8, 0.2}, Status: "success"}, nil
}

func (m *InferenceClient) Health(ctx context.Context) (*ports.HealthStatus, error) {
	if m.HealthFunc != nil {
		return m.HealthFunc(ctx)
	}
	return &ports.HealthStatus{Status: "ok", Device: "cpu"}, nil
}

// Requests returns the requests received so far.
func (m *InferenceClient) Requests() []ports.PredictRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ports.PredictRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

var _ ports.InferenceClient = (*InferenceClient)(nil)
