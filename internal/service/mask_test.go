package service

import "testing"

func TestMaskName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"John Doe", "J*** D**"},
		{"Alice", "A****"},
		{"X", "X"},
		{"  Mary   Jane  Watson ", "M*** J*** W*****"},
		{"", "Anonymous"},
		{"   ", "Anonymous"},
	}
	for _, tc := range cases {
		if got := MaskName(tc.in); got != tc.want {
			t.Fatalf("MaskName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
