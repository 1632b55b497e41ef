package input

import "testing"

func TestMapSquareCells(t *testing.T) {
	m := NewMapper(16, 16)

	tests := []struct {
		px, py float64
		want   Point
	}{
		{0, 0, Point{0, 0}},
		{15.9, 15.9, Point{0, 0}},
		{16, 0, Point{1, 0}},
		{8, 40, Point{0, 2}},
		{100, 100, Point{6, 6}},
	}
	for _, tt := range tests {
		got, _ := m.Map(tt.px, tt.py)
		if got != tt.want {
			t.Errorf("Map(%v, %v) = %v, want %v", tt.px, tt.py, got, tt.want)
		}
	}
}

func TestMapHalfHeightRow(t *testing.T) {
	m := NewMapper(16, 16)

	for py := 0.0; py < 160; py += 4 {
		square, half := m.Map(40, py)
		if half.X != square.X {
			t.Fatalf("py=%v: half column %d != square column %d", py, half.X, square.X)
		}
		if half.Y != square.Y/2 {
			t.Errorf("py=%v: half row = %d, want %d", py, half.Y, square.Y/2)
		}
	}
}

func TestMapStable(t *testing.T) {
	m := Mapper{CellW: 16, CellH: 16, OffsetX: 4, OffsetY: 4, Scale: 2}

	a, _ := m.Map(77, 53)
	b, _ := m.Map(77, 53)
	if a != b {
		t.Errorf("same pixel mapped to %v then %v", a, b)
	}
	// Cell (2, 1) spans [68,100) x [36,68) at scale 2 with offset 4.
	if a != (Point{2, 1}) {
		t.Errorf("Map(77, 53) = %v, want {2 1}", a)
	}
}

func TestMapNegative(t *testing.T) {
	m := NewMapper(16, 16)

	square, half := m.Map(-1, -1)
	if square != (Point{-1, -1}) {
		t.Errorf("square = %v, want {-1 -1}", square)
	}
	if half.Y != -1 {
		t.Errorf("half row = %d, want -1", half.Y)
	}
}

func TestMapZeroScaleDefaults(t *testing.T) {
	m := Mapper{CellW: 8, CellH: 8}
	square, _ := m.Map(17, 0)
	if square.X != 2 {
		t.Errorf("column = %d, want 2", square.X)
	}
}
