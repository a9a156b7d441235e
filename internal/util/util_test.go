package util

import (
	"math"
	"testing"
)

func TestMedian(t *testing.T) {
	tests := []struct {
		name     string
		input    []float64
		expected float64
	}{
		{"single", []float64{4}, 4},
		{"odd unsorted", []float64{30, 10, 12}, 12},
		{"even", []float64{1, 2, 3, 10}, 2.5},
		{"duplicates", []float64{5, 5, 5}, 5},
		{"negative", []float64{-3, -1, -2}, -2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Median(tt.input)
			if result != tt.expected {
				t.Errorf("Median(%v) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestMedian_DoesNotReorderInput(t *testing.T) {
	in := []float64{30, 10, 12}
	Median(in)
	if in[0] != 30 || in[1] != 10 || in[2] != 12 {
		t.Errorf("input was modified: %v", in)
	}
}

func TestMedian_Empty(t *testing.T) {
	if !math.IsNaN(Median(nil)) {
		t.Error("expected NaN for empty input")
	}
}

func TestIsFinite(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected bool
	}{
		{"zero", 0, true},
		{"negative", -12.5, true},
		{"nan", math.NaN(), false},
		{"plus inf", math.Inf(1), false},
		{"minus inf", math.Inf(-1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsFinite(tt.input); got != tt.expected {
				t.Errorf("IsFinite(%v) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestRoundIndex(t *testing.T) {
	tests := []struct {
		name   string
		x      float64
		n      int
		want   int
		wantOK bool
	}{
		{"round down", 10.4, 100, 10, true},
		{"round up", 10.5, 100, 11, true},
		{"clamp low", -3, 100, 0, true},
		{"clamp high", 250, 100, 99, true},
		{"empty domain", 5, 0, 0, false},
		{"nan", math.NaN(), 100, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := RoundIndex(tt.x, tt.n)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("RoundIndex(%v, %d) = (%d, %v), want (%d, %v)", tt.x, tt.n, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestParseLength(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    float64
		wantErr bool
	}{
		{"pixels", "2100px", 2100, false},
		{"unitless", "12.5", 12.5, false},
		{"padded", " 40px ", 40, false},
		{"empty", "", 0, true},
		{"other unit", "10mm", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLength(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseLength(%q) expected error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseLength(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseLength(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestSafeFileName(t *testing.T) {
	got := SafeFileName("Op. 28: No 4/Prelude")
	want := "Op._28__No_4_Prelude"
	if got != want {
		t.Errorf("SafeFileName = %q, want %q", got, want)
	}
}
