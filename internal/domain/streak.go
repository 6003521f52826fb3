package domain

import "time"

// ComputeStreak counts consecutive calendar days with at least one activity ending
// today. When today has no activity the run ending yesterday still counts.
// dates must be calendar dates as produced by CalendarDate; duplicates are allowed.
func ComputeStreak(dates []time.Time, today time.Time) int {
	if len(dates) == 0 {
		return 0
	}
	seen := make(map[time.Time]struct{}, len(dates))
	for _, d := range dates {
		seen[d] = struct{}{}
	}

	cursor := today
	if _, ok := seen[cursor]; !ok {
		cursor = cursor.AddDate(0, 0, -1)
		if _, ok := seen[cursor]; !ok {
			return 0
		}
	}

	streak := 0
	for {
		if _, ok := seen[cursor]; !ok {
			return streak
		}
		streak++
		cursor = cursor.AddDate(0, 0, -1)
	}
}
