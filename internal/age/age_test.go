package age

import (
	"testing"
	"time"
)

func TestParseThreshold(t *testing.T) {
	cases := []struct {
		spec string
		want time.Duration
	}{
		{"1", 24 * time.Hour},
		{"2", 48 * time.Hour},
		{"1d", 24 * time.Hour},
		{"1D", 24 * time.Hour},
		{"30s", 30 * time.Second},
		{"90S", 90 * time.Second},
		{"15m", 15 * time.Minute},
		{"1.5h", 90 * time.Minute},
		{"0.5", 12 * time.Hour},
		{".5h", 30 * time.Minute},
		{"2.h", 2 * time.Hour},
		{"+3d", 72 * time.Hour},
		{"-1h", -time.Hour},
		{"0", 0},
		{" 1d ", 24 * time.Hour},
	}
	for _, tc := range cases {
		t.Run(tc.spec, func(t *testing.T) {
			got, err := ParseThreshold(tc.spec)
			if err != nil {
				t.Fatalf("ParseThreshold(%q): %v", tc.spec, err)
			}
			if got != tc.want {
				t.Fatalf("ParseThreshold(%q) = %v, want %v", tc.spec, got, tc.want)
			}
		})
	}
}

func TestParseThresholdTruncatesToWholeSeconds(t *testing.T) {
	got, err := ParseThreshold("0.0255m")
	if err != nil {
		t.Fatal(err)
	}
	// 1.53s truncates to 1s.
	if got != time.Second {
		t.Fatalf("got %v, want 1s", got)
	}
}

func TestParseThresholdRejectsMalformed(t *testing.T) {
	for _, spec := range []string{"abc", "", "1w", "1dd", ".", "d", "1 d", "--1", "1.2.3", "0x10"} {
		t.Run(spec, func(t *testing.T) {
			if _, err := ParseThreshold(spec); err == nil {
				t.Fatalf("ParseThreshold(%q) should fail", spec)
			}
		})
	}
}
