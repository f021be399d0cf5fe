package model

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCoordsRoundTrip(t *testing.T) {
	for x := -160; x <= 160; x += 7 {
		for y := -160; y <= 160; y += 11 {
			gx, gy, err := IDToCoords(CoordsToID(x, y))
			if err != nil {
				t.Fatalf("IDToCoords(%d,%d) failed: %v", x, y, err)
			}
			if gx != x || gy != y {
				t.Fatalf("round trip mismatch: got (%d,%d), want (%d,%d)", gx, gy, x, y)
			}
		}
	}
}

func TestIDToCoordsInvalid(t *testing.T) {
	for _, id := range []string{"", "1", "a,1", "1,b", "1;2"} {
		if _, _, err := IDToCoords(id); err == nil {
			t.Errorf("IDToCoords(%q) expected error", id)
		}
	}
}

func TestParseCoordList(t *testing.T) {
	got, err := ParseCoordList("1,2;-3,-4;;0, 5")
	if err != nil {
		t.Fatalf("ParseCoordList failed: %v", err)
	}
	want := []Coord{{1, 2}, {-3, -4}, {0, 5}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseCoordList mismatch (-want +got):\n%s", diff)
	}
}

func TestTokenIDRoundTrip(t *testing.T) {
	cases := []Coord{{0, 0}, {1, 0}, {0, 1}, {-1, -1}, {-150, 150}, {150, -150}, {23, -23}}
	for _, c := range cases {
		id := EncodeTokenID(c.X, c.Y)
		x, y, err := DecodeTokenID(id)
		if err != nil {
			t.Fatalf("DecodeTokenID(%s) failed: %v", id, err)
		}
		if x != c.X || y != c.Y {
			t.Errorf("token round trip for %v: got (%d,%d)", c, x, y)
		}
	}
}

func TestEncodeTokenIDKnownValues(t *testing.T) {
	if got := EncodeTokenID(0, 0); got != "0" {
		t.Errorf("EncodeTokenID(0,0) = %s", got)
	}
	if got := EncodeTokenID(0, 1); got != "1" {
		t.Errorf("EncodeTokenID(0,1) = %s", got)
	}
	// 1<<128
	if got := EncodeTokenID(1, 0); got != "340282366920938463463374607431768211456" {
		t.Errorf("EncodeTokenID(1,0) = %s", got)
	}
	// 2^128 - 1
	if got := EncodeTokenID(0, -1); got != "340282366920938463463374607431768211455" {
		t.Errorf("EncodeTokenID(0,-1) = %s", got)
	}
}
