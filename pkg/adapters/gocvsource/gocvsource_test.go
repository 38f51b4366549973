package gocvsource

import (
	"errors"
	"math"
	"testing"
)

func TestDurationFromCounts(t *testing.T) {
	tests := []struct {
		frames, fps, want float64
	}{
		{300, 30, 10},
		{45, 25, 1.8},
		{0, 30, 0},
		{300, 0, 0},
		{math.NaN(), 30, 0},
	}
	for _, tt := range tests {
		if got := durationFromCounts(tt.frames, tt.fps); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("durationFromCounts(%v, %v) = %v, want %v", tt.frames, tt.fps, got, tt.want)
		}
	}
}

func TestOpener_Unavailable(t *testing.T) {
	if Available() {
		t.Skip("built with OpenCV support")
	}
	if _, err := NewOpener().Open("clip.mp4"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}
