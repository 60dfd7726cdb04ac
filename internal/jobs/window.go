package job

import "time"

// Window is a closed interval of schedule times.
type Window struct {
	Start time.Time
	End   time.Time
}

// DispatchWindow is [now-tolerance, now+tolerance].
func DispatchWindow(now time.Time, tolerance time.Duration) Window {
	return Window{Start: now.Add(-tolerance), End: now.Add(tolerance)}
}

// RetentionCutoff is the instant before which published posts are removed.
// A post scheduled exactly at the cutoff is kept.
func RetentionCutoff(now time.Time, period time.Duration) time.Time {
	return now.Add(-period)
}
