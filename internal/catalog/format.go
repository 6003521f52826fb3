package catalog

import (
	"fmt"
	"regexp"
)

// FormatDuration renders seconds as H:MM:SS from one hour upward, else M:SS.
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%d:%02d", minutes, secs)
}

var youTubePattern = regexp.MustCompile(`^.*(youtu\.be/|v/|u/\w/|embed/|watch\?v=|&v=)([^#&?]*).*`)

// ExtractYouTubeID returns the 11-character video id from common YouTube URL
// shapes, or "" when none is found.
func ExtractYouTubeID(rawURL string) string {
	match := youTubePattern.FindStringSubmatch(rawURL)
	if match == nil || len(match[2]) != 11 {
		return ""
	}
	return match[2]
}
