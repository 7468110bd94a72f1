package intake

import "testing"

func TestNormalizeProbability(t *testing.T) {
	tests := []struct {
		in     float64
		want   float64
		wantOK bool
	}{
		{0.73, 0.73, true},
		{0, 0, true},
		{1, 1, true},
		{73, 0.73, true},
		{100, 1, true},
		{-5, 0, true}, // negative clamps
		{150, 0, false},
		{100.01, 0, false},
	}

	for _, tc := range tests {
		got, ok := NormalizeProbability(tc.in)
		if got != tc.want || ok != tc.wantOK {
			t.Errorf("NormalizeProbability(%v) = (%v, %v), want (%v, %v)", tc.in, got, ok, tc.want, tc.wantOK)
		}
	}
}

func TestFormatProbability(t *testing.T) {
	tests := []struct {
		in      float64
		present bool
		want    string
	}{
		{0.73, true, "73.0%"},
		{73, true, "73.0%"},
		{150, true, "—"},
		{-5, true, "0.0%"},
		{1, true, "100.0%"},
		{0, false, "—"},
	}

	for _, tc := range tests {
		if got := FormatProbability(tc.in, tc.present); got != tc.want {
			t.Errorf("FormatProbability(%v, %v) = %q, want %q", tc.in, tc.present, got, tc.want)
		}
	}
}
