package model

import "testing"

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want Amount
		ok   bool
	}{
		{"100.00", 10000, true},
		{"100", 10000, true},
		{"0", 0, true},
		{"-125.00", -12500, true},
		{"-125", -12500, true},
		{".50", 50, true},
		{"3.5", 350, true},
		{"12.345", 1234, true},
		{"", 0, false},
		{"abc", 0, false},
		{"12a.00", 0, false},
		{"-", 0, false},
	}
	for _, c := range cases {
		got, ok := ParseAmount(c.in)
		if ok != c.ok || got != c.want {
			t.Errorf("ParseAmount(%q) = %d, %v; want %d, %v", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestAmountString(t *testing.T) {
	if got := Amount(10000).String(); got != "100.00" {
		t.Errorf("String = %q, want 100.00", got)
	}
	if got := Amount(-12345).String(); got != "-123.45" {
		t.Errorf("String = %q, want -123.45", got)
	}
	if got := Amount(5).String(); got != "0.05" {
		t.Errorf("String = %q, want 0.05", got)
	}
}

func TestDivideHalfUp(t *testing.T) {
	// 100.00 over 3 units rounds 33.333... to 33.33
	if got := Amount(10000).DivideHalfUp(3); got != 3333 {
		t.Errorf("DivideHalfUp(3) = %d, want 3333", got)
	}
	// 0.05 over 2 rounds half up to 0.03
	if got := Amount(5).DivideHalfUp(2); got != 3 {
		t.Errorf("DivideHalfUp(2) = %d, want 3", got)
	}
	if got := Amount(-5).DivideHalfUp(2); got != -3 {
		t.Errorf("negative DivideHalfUp(2) = %d, want -3", got)
	}
	if got := Amount(100).DivideHalfUp(0); got != 0 {
		t.Errorf("divide by zero = %d, want 0", got)
	}
}
