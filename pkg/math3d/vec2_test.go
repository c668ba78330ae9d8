package math3d

import "testing"

func TestVec2AddSub(t *testing.T) {
	a := V2(1, 2)
	b := V2(3, 4)
	if got := a.Add(b); got != (Vec2{4, 6}) {
		t.Errorf("got %v, want {4 6}", got)
	}
	if got := b.Sub(a); got != (Vec2{2, 2}) {
		t.Errorf("got %v, want {2 2}", got)
	}
}

func TestVec2Len(t *testing.T) {
	v := V2(3, 4)
	if got := v.Len(); got != 5 {
		t.Errorf("got %v, want 5", got)
	}
}

func TestVec2Lerp(t *testing.T) {
	a := V2(0, 0)
	b := V2(10, 10)
	if got := a.Lerp(b, 0.5); got != (Vec2{5, 5}) {
		t.Errorf("got %v, want {5 5}", got)
	}
}
