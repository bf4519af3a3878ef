// Package class owns classes and their timetable slots. A class is taught by
// one lecturer; lectures are scheduled against a class and one of its slots.
package class

import (
	"time"

	id "rollcall/pkg/domain"
)

// Class is one taught course section.
type Class struct {
	ID         id.ClassID
	Code       string
	Name       string
	LecturerID id.UserID
	CreatedAt  time.Time
}

// Slot is a recurring timetable position for a class, e.g. Tuesday 10:00
// for 90 minutes.
type Slot struct {
	ID       id.SlotID
	ClassID  id.ClassID
	Weekday  time.Weekday
	StartsAt string // "15:04", local campus time
	Duration time.Duration
}
