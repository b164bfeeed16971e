package util

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseFrameRate parses frame rate from ffprobe format (e.g., "30/1")
func ParseFrameRate(s string) float64 {
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return 0
	}
	num, err1 := strconv.ParseFloat(parts[0], 64)
	den, err2 := strconv.ParseFloat(parts[1], 64)
	if err1 != nil || err2 != nil || den == 0 {
		return 0
	}
	return num / den
}

// FormatClock formats whole seconds as MM:SS.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// FormatTimecode renders the elapsed/total time label for the scrub
// bar, e.g. "00:05 / 00:10". Fractional seconds are floored.
func FormatTimecode(currentSeconds, totalSeconds float64) string {
	return FormatClock(int(currentSeconds)) + " / " + FormatClock(int(totalSeconds))
}
