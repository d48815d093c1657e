package syncer

import "testing"

func TestParseCursor(t *testing.T) {
	cases := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"100:abcdef", 100, true},
		{"0:tail", 0, true},
		{"42", 42, true},
		{"-5:x", -5, true},
		{"abc:100", 0, false},
		{":100", 0, false},
		{"", 0, false},
		{"12.5:x", 0, false},
	}

	for _, tc := range cases {
		got, ok := parseCursor(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Errorf("parseCursor(%q) = (%d, %v), want (%d, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}
