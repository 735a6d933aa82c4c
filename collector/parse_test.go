package collector

import "testing"

func TestParseOptionalInt(t *testing.T) {
	tests := []struct {
		input string
		want  *int
	}{
		{"12345", intPtr(12345)},
		{"12,345", intPtr(12345)},
		{"3500 MB", intPtr(3500)},
		{"  42  ", intPtr(42)},
		{"0", intPtr(0)},
		{"", nil},
		{"N/A", nil},
		{"-", nil},
		{"none", nil},
	}

	for _, tt := range tests {
		got := ParseOptionalInt(tt.input)
		if !intPtrEqual(got, tt.want) {
			t.Errorf("ParseOptionalInt(%q) = %v, want %v", tt.input, fmtIntPtr(got), fmtIntPtr(tt.want))
		}
	}
}

func TestParseSignalLevel(t *testing.T) {
	tests := []struct {
		input string
		want  *int
	}{
		{"4/5 bars", intPtr(4)},
		{"3", intPtr(3)},
		{"signal: 12", intPtr(12)},
		{"0/5", intPtr(0)},
		{"", nil},
		{"N/A", nil},
		{"weak", nil},
	}

	for _, tt := range tests {
		got := ParseSignalLevel(tt.input)
		if !intPtrEqual(got, tt.want) {
			t.Errorf("ParseSignalLevel(%q) = %v, want %v", tt.input, fmtIntPtr(got), fmtIntPtr(tt.want))
		}
	}
}

func intPtr(n int) *int { return &n }

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func fmtIntPtr(p *int) interface{} {
	if p == nil {
		return "<nil>"
	}
	return *p
}
