package postgres

import "testing"

func TestEscapeLike(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"react", "react"},
		{"100%", `100\%`},
		{"snake_case", `snake\_case`},
		{`back\slash`, `back\\slash`},
	}
	for _, tc := range tests {
		if got := EscapeLike(tc.in); got != tc.want {
			t.Errorf("EscapeLike(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestPatterns(t *testing.T) {
	if got := ContainsPattern("re_act"); got != `%re\_act%` {
		t.Errorf("ContainsPattern = %q", got)
	}
	if got := PrefixPattern("re"); got != "re%" {
		t.Errorf("PrefixPattern = %q", got)
	}
}

func TestVectorLiteral(t *testing.T) {
	tests := []struct {
		in   []float32
		want string
	}{
		{nil, "[]"},
		{[]float32{1}, "[1]"},
		{[]float32{0.5, -0.25, 0}, "[0.5,-0.25,0]"},
	}
	for _, tc := range tests {
		if got := VectorLiteral(tc.in); got != tc.want {
			t.Errorf("VectorLiteral(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNewStore_RequiresDSN(t *testing.T) {
	if _, err := NewStore(Config{}); err == nil {
		t.Fatal("expected error for empty dsn")
	}
}
