package core

import "testing"

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out float64
		ok  bool
	}{
		{"1", 1, true},
		{"1.0", 1, true},
		{"150.50", 150.5, true},
		{"1,23", 1.23, true},
		{"0.01", 0.01, true},
		{"12.345", 12.345, true},
		{" 2.50 ", 2.5, true},
		{"-1", 0, false},
		{"0", 0, false},
		{"0.004", 0.004, true},
		{"0,00", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %v, got %v (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	cases := map[float64]string{
		150.5: "150.50",
		2000:  "2000.00",
		0:     "0.00",
		-20:   "-20.00",
	}
	for in, want := range cases {
		if got := FormatAmount(in); got != want {
			t.Fatalf("FormatAmount(%v) = %q, want %q", in, got, want)
		}
	}

	a, b := 0.1, 0.2
	if got := FormatAmount(a + b); got != "0.30" {
		t.Fatalf("expected 0.30, got %q", got)
	}
}

func TestRoundAmount(t *testing.T) {
	a, b := 0.1, 0.2
	if got := RoundAmount(a + b); got != 0.3 {
		t.Fatalf("expected 0.3, got %v", got)
	}
}
