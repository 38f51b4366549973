package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestStatus(t *testing.T) {
	if got := Status(nil); got != "success" {
		t.Errorf("expected success, got %s", got)
	}
	if got := Status(errors.New("x")); got != "error" {
		t.Errorf("expected error, got %s", got)
	}
}

func TestPredictionsTotal(t *testing.T) {
	before := testutil.ToFloat64(PredictionsTotal.WithLabelValues(OutcomePlaceholder))
	PredictionsTotal.WithLabelValues(OutcomePlaceholder).Inc()
	after := testutil.ToFloat64(PredictionsTotal.WithLabelValues(OutcomePlaceholder))
	if after-before != 1 {
		t.Errorf("expected counter to grow by 1, got %v", after-before)
	}
}
