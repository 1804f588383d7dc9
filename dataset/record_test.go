package dataset

import (
	"testing"
)

func TestNormalizeRating(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want *float64
	}{
		{name: "typical rating", raw: "4.1/5", want: fptr(4.1)},
		{name: "integer rating", raw: "4/5", want: fptr(4)},
		{name: "zero rating", raw: "0/5", want: fptr(0)},
		{name: "top rating", raw: "5/5", want: fptr(5)},
		{name: "spaces around slash", raw: "3.8 /5", want: fptr(3.8)},
		{name: "bare number", raw: "4.1", want: fptr(4.1)},
		{name: "new restaurant", raw: "NEW", want: nil},
		{name: "dash placeholder", raw: "-", want: nil},
		{name: "empty", raw: "", want: nil},
		{name: "wrong denominator", raw: "4.1/10", want: nil},
		{name: "above scale", raw: "5.1/5", want: nil},
		{name: "negative", raw: "-1/5", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeRating(tt.raw)
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("NormalizeRating(%q) = %v, want %v", tt.raw, got, tt.want)
			}
			if got != nil && *got != *tt.want {
				t.Errorf("NormalizeRating(%q) = %v, want %v", tt.raw, *got, *tt.want)
			}
		})
	}
}

func TestNormalizeCost(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want *float64
	}{
		{name: "plain number", raw: "800", want: fptr(800)},
		{name: "thousands separator", raw: "1,200", want: fptr(1200)},
		{name: "multiple separators", raw: "1,200,000", want: fptr(1200000)},
		{name: "decimal", raw: "450.5", want: fptr(450.5)},
		{name: "zero", raw: "0", want: fptr(0)},
		{name: "negative", raw: "-100", want: nil},
		{name: "non numeric", raw: "cheap", want: nil},
		{name: "empty", raw: "", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeCost(tt.raw)
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("NormalizeCost(%q) = %v, want %v", tt.raw, got, tt.want)
			}
			if got != nil && *got != *tt.want {
				t.Errorf("NormalizeCost(%q) = %v, want %v", tt.raw, *got, *tt.want)
			}
		})
	}
}

func TestNormalizeVotes(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want *int
	}{
		{name: "positive", raw: "775", want: iptr(775)},
		{name: "zero", raw: "0", want: iptr(0)},
		{name: "negative", raw: "-5", want: nil},
		{name: "float", raw: "7.5", want: nil},
		{name: "garbage", raw: "many", want: nil},
		{name: "empty", raw: "", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeVotes(tt.raw)
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("NormalizeVotes(%q) = %v, want %v", tt.raw, got, tt.want)
			}
			if got != nil && *got != *tt.want {
				t.Errorf("NormalizeVotes(%q) = %v, want %v", tt.raw, *got, *tt.want)
			}
		})
	}
}

func TestParseYesNo(t *testing.T) {
	tests := []struct {
		raw   string
		value bool
		ok    bool
	}{
		{raw: "Yes", value: true, ok: true},
		{raw: "No", value: false, ok: true},
		{raw: "yes", value: true, ok: true},
		{raw: " NO ", value: false, ok: true},
		{raw: "maybe", value: false, ok: false},
		{raw: "", value: false, ok: false},
	}

	for _, tt := range tests {
		value, ok := ParseYesNo(tt.raw)
		if value != tt.value || ok != tt.ok {
			t.Errorf("ParseYesNo(%q) = (%v, %v), want (%v, %v)", tt.raw, value, ok, tt.value, tt.ok)
		}
	}
}

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int         { return &v }
