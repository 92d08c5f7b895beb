package util

import "testing"

func TestMinMax(t *testing.T) {
	if Min(3, 7) != 3 {
		t.Error("Min(3, 7) != 3")
	}
	if Max(3, 7) != 7 {
		t.Error("Max(3, 7) != 7")
	}
	if Min(uintptr(5), uintptr(2)) != 2 {
		t.Error("Min over uintptr failed")
	}
}

func TestRoundupRounddown(t *testing.T) {
	cases := []struct{ v, b, down, up int }{
		{0, 8, 0, 0},
		{1, 8, 0, 8},
		{8, 8, 8, 8},
		{9, 8, 8, 16},
	}
	for _, c := range cases {
		if got := Rounddown(c.v, c.b); got != c.down {
			t.Errorf("Rounddown(%d, %d) = %d, want %d", c.v, c.b, got, c.down)
		}
		if got := Roundup(c.v, c.b); got != c.up {
			t.Errorf("Roundup(%d, %d) = %d, want %d", c.v, c.b, got, c.up)
		}
	}
}

func TestReadnWriten(t *testing.T) {
	buf := make([]uint8, 8)
	Writen(buf, 4, 2, 0x11223344)
	got := Readn(buf, 4, 2)
	if got != 0x11223344 {
		t.Errorf("Readn after Writen = %#x, want %#x", got, 0x11223344)
	}
}

func TestReadnOutOfBoundsPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected Readn to panic on out-of-bounds access")
		}
	}()
	Readn(make([]uint8, 4), 4, 4)
}
