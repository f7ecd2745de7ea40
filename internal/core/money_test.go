package core

import "testing"

func TestParseDecimal(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"", "0", true},
		{"1", "1", true},
		{"1400.50", "1400.5", true},
		{"1,400.00", "1400", true},
		{"1,400", "1400", true},
		{"2,5", "2.5", true},
		{"₱ 950", "950", true},
		{" 3.25 ", "3.25", true},
		{"-1", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
	}
	for _, tc := range cases {
		got, err := ParseDecimal(tc.in)
		if tc.ok {
			if err != nil || !got.Equal(dec(tc.out)) {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestNonNegative(t *testing.T) {
	if !NonNegative(dec("-3")).IsZero() {
		t.Fatalf("expected clamp to zero")
	}
	if !NonNegative(dec("3")).Equal(dec("3")) {
		t.Fatalf("expected value unchanged")
	}
}
