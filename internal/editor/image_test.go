package editor

import "testing"

func TestResizeWidth(t *testing.T) {
	tests := []struct {
		name       string
		startWidth float64
		dx         float64
		handle     ResizeHandle
		want       float64
	}{
		{"right handle grows", 200, 30, HandleRight, 230},
		{"right handle shrinks", 200, -30, HandleRight, 170},
		{"left handle inverts delta", 200, 30, HandleLeft, 170},
		{"left handle grows on leftward drag", 200, -30, HandleLeft, 230},
		{"clamps to minimum", 60, -100, HandleRight, 50},
		{"left handle clamps too", 60, 100, HandleLeft, 50},
		{"exactly at minimum", 100, -50, HandleRight, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResizeWidth(tt.startWidth, tt.dx, tt.handle); got != tt.want {
				t.Fatalf("ResizeWidth(%v, %v, %v) = %v, want %v", tt.startWidth, tt.dx, tt.handle, got, tt.want)
			}
		})
	}
}

func TestResizeDragLifecycle(t *testing.T) {
	drag := BeginResize(HandleRight, 400, 200)

	if got := drag.Move(420); got != 220 {
		t.Fatalf("Move(420) = %v, want 220", got)
	}
	if got := drag.Move(380); got != 180 {
		t.Fatalf("Move(380) = %v, want 180", got)
	}
	// Only the release position matters for the committed width.
	if got := drag.Commit(450); got != 250 {
		t.Fatalf("Commit(450) = %v, want 250", got)
	}
}

func TestNormalizeDimension(t *testing.T) {
	tests := []struct {
		value string
		want  float64
		ok    bool
	}{
		{"500", 500, true},
		{"500px", 500, true},
		{"500.5", 500.5, true},
		{"500.5px", 500.5, true},
		{"50%", 0, false},
		{"auto", 0, false},
		{"", 0, false},
		{"px", 0, false},
		{"-10", 0, false},
	}
	for _, tt := range tests {
		got, ok := NormalizeDimension(tt.value)
		if ok != tt.ok || got != tt.want {
			t.Fatalf("NormalizeDimension(%q) = (%v, %v), want (%v, %v)", tt.value, got, ok, tt.want, tt.ok)
		}
	}
}
