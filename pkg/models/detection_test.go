package models

import "testing"

func TestBoundingBox_PadAndClamp(t *testing.T) {
	tests := []struct {
		name  string
		box   BoundingBox
		pad   int
		frame [2]int
		want  BoundingBox
	}{
		{
			name:  "pad inside frame",
			box:   BoundingBox{X: 20, Y: 20, Width: 40, Height: 30},
			pad:   10,
			frame: [2]int{200, 200},
			want:  BoundingBox{X: 10, Y: 10, Width: 60, Height: 50},
		},
		{
			name:  "pad clamps at origin",
			box:   BoundingBox{X: 5, Y: 5, Width: 40, Height: 30},
			pad:   10,
			frame: [2]int{200, 200},
			want:  BoundingBox{X: 0, Y: 0, Width: 55, Height: 45},
		},
		{
			name:  "pad clamps at far edge",
			box:   BoundingBox{X: 170, Y: 180, Width: 40, Height: 30},
			pad:   10,
			frame: [2]int{200, 200},
			want:  BoundingBox{X: 160, Y: 170, Width: 40, Height: 30},
		},
		{
			name:  "fully outside collapses to empty",
			box:   BoundingBox{X: 300, Y: 300, Width: 40, Height: 30},
			pad:   0,
			frame: [2]int{200, 200},
			want:  BoundingBox{X: 300, Y: 300, Width: 0, Height: 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.box.Pad(tt.pad).Clamp(tt.frame[0], tt.frame[1])
			if got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want.String(), got.String())
			}
		})
	}
}

func TestBoundingBox_Properties(t *testing.T) {
	box := BoundingBox{X: 10, Y: 20, Width: 200, Height: 100}

	if box.Area() != 20000 {
		t.Errorf("Expected area 20000, got %d", box.Area())
	}
	if box.AspectRatio() != 2.0 {
		t.Errorf("Expected aspect ratio 2.0, got %f", box.AspectRatio())
	}

	cx, cy := box.Center()
	if cx != 110 || cy != 70 {
		t.Errorf("Expected center (110,70), got (%f,%f)", cx, cy)
	}

	degenerate := BoundingBox{Width: -5, Height: 10}
	if degenerate.Area() != 0 {
		t.Errorf("Expected zero area for degenerate box, got %d", degenerate.Area())
	}
	if !degenerate.Empty() {
		t.Error("Expected degenerate box to be empty")
	}
}

func TestBoundingBox_DistanceTo(t *testing.T) {
	a := BoundingBox{X: 0, Y: 0, Width: 10, Height: 10}
	b := BoundingBox{X: 30, Y: 40, Width: 10, Height: 10}
	if d := a.DistanceTo(b); d != 50 {
		t.Errorf("Expected center distance 50, got %f", d)
	}
	if d := a.DistanceTo(a); d != 0 {
		t.Errorf("Expected zero distance to self, got %f", d)
	}
}

func TestExtractedName_String(t *testing.T) {
	name := ExtractedName{FirstMiddle: "JUAN SANTOS", LastName: "DELA CRUZ"}
	if got := name.String(); got != "JUAN SANTOS DELA CRUZ" {
		t.Errorf("Expected 'JUAN SANTOS DELA CRUZ', got %q", got)
	}
}
