package derive

import (
	"time"

	"atelier/api/internal/store"
)

type SLAStatus string

const (
	SLAOnTrack  SLAStatus = "on_track"
	SLAWarning  SLAStatus = "warning"
	SLACritical SLAStatus = "critical"
	SLABreached SLAStatus = "breached"
)

// SLAStatusFor maps hours remaining until a deadline onto a traffic light.
// No deadline reads as on_track.
func SLAStatusFor(deadline *time.Time, now time.Time) SLAStatus {
	if deadline == nil {
		return SLAOnTrack
	}
	remaining := deadline.Sub(now).Hours()
	switch {
	case remaining <= 0:
		return SLABreached
	case remaining <= 24:
		return SLACritical
	case remaining <= 48:
		return SLAWarning
	default:
		return SLAOnTrack
	}
}

// SLADeadline adds the content type's business-day budget to createdAt by
// walking one calendar day at a time, only consuming budget on weekdays. The
// walk (rather than a closed form) keeps month/year rollover and leap years
// on the calendar's terms. Returns nil when the type has no definition.
func SLADeadline(contentType string, createdAt time.Time, defs []store.SLADefinition) *time.Time {
	totalDays := 0
	for _, def := range defs {
		if def.ContentType == contentType {
			totalDays = def.TotalDays
			break
		}
	}
	if totalDays <= 0 {
		return nil
	}

	deadline := createdAt
	remaining := totalDays
	for remaining > 0 {
		deadline = deadline.AddDate(0, 0, 1)
		if wd := deadline.Weekday(); wd != time.Saturday && wd != time.Sunday {
			remaining--
		}
	}
	return &deadline
}
