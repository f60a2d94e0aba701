package editor

import "testing"

func TestParsePosition(t *testing.T) {
	tests := []struct {
		value string
		want  Position
	}{
		{"", Position{50, 50}},
		{"25% 75%", Position{25, 75}},
		{"0% 0%", Position{0, 0}},
		{"12.5% 87.5%", Position{12.5, 87.5}},
		{"150% -10%", Position{100, 0}},
		{"garbage", Position{50, 50}},
		{"10%", Position{50, 50}},
		{"a% b%", Position{50, 50}},
	}
	for _, tt := range tests {
		if got := ParsePosition(tt.value); got != tt.want {
			t.Fatalf("ParsePosition(%q) = %+v, want %+v", tt.value, got, tt.want)
		}
	}
}

func TestPositionString(t *testing.T) {
	if got := (Position{X: 75, Y: 25}).String(); got != "75% 25%" {
		t.Fatalf("String() = %q, want %q", got, "75% 25%")
	}
	if got := (Position{X: 12.5, Y: 0}).String(); got != "12.5% 0%" {
		t.Fatalf("String() = %q, want %q", got, "12.5% 0%")
	}
}

func TestRepositionDrag(t *testing.T) {
	r := StartReposition("50% 50%")

	// 100px right in a 400px-wide frame is a quarter of the width; 50px up
	// in a 200px-tall frame is a quarter of the height.
	got := r.Drag(100, -50, 400, 200)
	if got != (Position{X: 75, Y: 25}) {
		t.Fatalf("Drag() = %+v, want {75 25}", got)
	}

	// Deltas are from the gesture start, not cumulative per move.
	got = r.Drag(40, 0, 400, 200)
	if got != (Position{X: 60, Y: 50}) {
		t.Fatalf("second Drag() = %+v, want {60 50}", got)
	}
}

func TestRepositionDragClamps(t *testing.T) {
	r := StartReposition("90% 10%")
	got := r.Drag(1000, -1000, 400, 200)
	if got != (Position{X: 100, Y: 0}) {
		t.Fatalf("Drag() = %+v, want {100 0}", got)
	}
}

func TestRepositionReleaseContinues(t *testing.T) {
	r := StartReposition("50% 50%")
	r.Drag(40, 0, 400, 200) // -> 60%
	r.Release()
	got := r.Drag(40, 0, 400, 200) // continues from 60%
	if got != (Position{X: 70, Y: 50}) {
		t.Fatalf("Drag() after Release = %+v, want {70 50}", got)
	}
}

func TestRepositionSeedsDefaultAndCommits(t *testing.T) {
	r := StartReposition("")
	if r.Draft() != (Position{X: 50, Y: 50}) {
		t.Fatalf("Draft() = %+v, want centered default", r.Draft())
	}
	r.Drag(0, 50, 400, 200)
	if got := r.Commit(); got != "50% 75%" {
		t.Fatalf("Commit() = %q, want %q", got, "50% 75%")
	}
}

func TestGestureClickVersusDrag(t *testing.T) {
	g := BeginGesture(100, 100)
	if g.Move(103, 102) {
		t.Fatal("sub-threshold move became a drag")
	}
	if !g.IsClick() {
		t.Fatal("sub-threshold gesture should be a click")
	}

	g = BeginGesture(100, 100)
	if !g.Move(100, 105) {
		t.Fatal("5px travel should start a drag")
	}
	// Returning near the start does not undo the drag.
	g.Move(101, 101)
	if g.IsClick() {
		t.Fatal("a gesture that exceeded the threshold is not a click")
	}
}
