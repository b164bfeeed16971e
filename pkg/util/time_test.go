package util

import "testing"

func TestParseFrameRate(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"30/1", 30},
		{"25/1", 25},
		{"30000/1001", 30000.0 / 1001.0},
		{"0/0", 0},
		{"1/0", 0},
		{"garbage", 0},
		{"", 0},
	}

	for _, tt := range tests {
		if got := ParseFrameRate(tt.in); got != tt.want {
			t.Errorf("ParseFrameRate(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFormatClock(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{0, "00:00"},
		{5, "00:05"},
		{59, "00:59"},
		{60, "01:00"},
		{3599, "59:59"},
		{-3, "00:00"},
	}

	for _, tt := range tests {
		if got := FormatClock(tt.seconds); got != tt.want {
			t.Errorf("FormatClock(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestFormatTimecode(t *testing.T) {
	// Frame 150 of a 30fps stream against two 10-second videos.
	got := FormatTimecode(150.0/30.0, 10.0)
	if got != "00:05 / 00:10" {
		t.Errorf("expected \"00:05 / 00:10\", got %q", got)
	}

	// Fractional seconds floor, never round up.
	if got := FormatTimecode(5.97, 9.999); got != "00:05 / 00:09" {
		t.Errorf("expected \"00:05 / 00:09\", got %q", got)
	}
}
