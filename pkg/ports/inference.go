package ports

import "context"

// PredictRequest is the JSON body sent to the inference endpoint.
type PredictRequest struct {
	Frames [][]float32 `json:"frames"`
	Shape  []int       `json:"shape"`
}

// PredictResponse is the JSON body returned by the inference endpoint.
// PredictedClass is a pointer so a missing field can be told apart from class 0.
type PredictResponse struct {
	PredictedClass *int      `json:"predicted_class"`
	Confidence     []float64 `json:"confidence"`
	Status         string    `json:"status,omitempty"`
	Message        string    `json:"message,omitempty"`
}

// HealthStatus is returned by the endpoint's health check.
type HealthStatus struct {
	Status string `json:"status"`
	Device string `json:"device"`
}

// InferenceClient abstracts the external accident classification model.
type InferenceClient interface {
	// Predict sends one request with the full normalized tensor.
	Predict(ctx context.Context, req PredictRequest) (*PredictResponse, error)

	// Health queries the model server's health endpoint.
	Health(ctx context.Context) (*HealthStatus, error)
}
