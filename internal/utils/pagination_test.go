package utils

import "testing"

func TestAtoiDefault(t *testing.T) {
	cases := []struct {
		s    string
		def  int
		want int
	}{
		// empty -> default
		{"", 10, 10},
		// valid ints
		{"42", 0, 42},
		{"-13", 1, -13},
		{"0012", 99, 12},
		// invalid -> default (no trim)
		{"x", 5, 5},
		{" 42", 7, 7},
		// overflow -> default
		{"999999999999999999999999", -1, -1},
	}

	for _, tc := range cases {
		if got := AtoiDefault(tc.s, tc.def); got != tc.want {
			t.Fatalf("AtoiDefault(%q, %d) = %d; want %d", tc.s, tc.def, got, tc.want)
		}
	}
}

func TestPageBounds(t *testing.T) {
	cases := []struct {
		page, size   string
		wantP, wantS int
	}{
		{"", "", 1, 20},
		{"0", "0", 1, 1},
		{"-2", "500", 1, 100},
		{"3", "10", 3, 10},
		{"x", "y", 1, 20},
	}
	for _, tc := range cases {
		p, s := PageBounds(tc.page, tc.size, 20, 100)
		if p != tc.wantP || s != tc.wantS {
			t.Fatalf("PageBounds(%q,%q) = %d,%d; want %d,%d", tc.page, tc.size, p, s, tc.wantP, tc.wantS)
		}
	}
}

func TestTotalPages(t *testing.T) {
	if TotalPages(0, 10) != 0 || TotalPages(10, 0) != 0 {
		t.Fatalf("degenerate inputs must give 0")
	}
	if TotalPages(21, 10) != 3 || TotalPages(20, 10) != 2 {
		t.Fatalf("rounding up failed")
	}
}
