package availability

import (
	"time"
)

// Slot is a candidate start time annotated with its availability.
type Slot struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

// Booked is an existing appointment's raw interval on the day under test.
// The buffer is applied to the candidate slot, never to the stored interval.
type Booked struct {
	StartMinutes    int
	DurationMinutes int
}

// CheckInput carries everything needed to turn a generated Day into the final
// slot list for one date.
type CheckInput struct {
	Date     time.Time // midnight in the booking zone
	Config   *Config
	Booked   []Booked
	Now      time.Time
	Location *time.Location
}

// Check marks each candidate available or unavailable. Failing checks are
// reported in the order notice → conflict → lunch; the first failure wins.
func Check(day Day, in CheckInput) []Slot {
	if day.Blocked {
		return nil
	}
	duration := in.Config.SlotDuration()
	buffer := in.Config.Buffer()
	earliest := in.Now.Add(time.Duration(in.Config.Notice()) * time.Hour)

	loc := in.Location
	if loc == nil {
		loc = time.UTC
	}

	slots := make([]Slot, 0, len(day.Candidates))
	for _, c := range day.Candidates {
		s := Slot{Time: FormatClock(c.Minutes), Available: true}

		startAt := time.Date(in.Date.Year(), in.Date.Month(), in.Date.Day(), c.Minutes/60, c.Minutes%60, 0, 0, loc)
		switch {
		case startAt.Before(earliest):
			s.Available = false
			s.Reason = ReasonNotice
		case conflictsWithBooked(c.Minutes, duration, buffer, in.Booked):
			s.Available = false
			s.Reason = ReasonBooked
		case c.Lunch:
			s.Available = false
			s.Reason = ReasonLunch
		}
		slots = append(slots, s)
	}
	return slots
}

// conflictsWithBooked tests the buffered candidate interval
// [t-buffer, t+duration+buffer) against each raw booked interval.
func conflictsWithBooked(start, duration, buffer int, booked []Booked) bool {
	bufferedStart := start - buffer
	bufferedEnd := start + duration + buffer
	for _, b := range booked {
		if overlaps(bufferedStart, bufferedEnd, b.StartMinutes, b.StartMinutes+b.DurationMinutes) {
			return true
		}
	}
	return false
}

// HasRawConflict is the unbuffered commit-time overlap test used when a
// specific chosen time is submitted.
func HasRawConflict(start, duration int, booked []Booked) bool {
	for _, b := range booked {
		if overlaps(start, start+duration, b.StartMinutes, b.StartMinutes+b.DurationMinutes) {
			return true
		}
	}
	return false
}

// FullyBooked reports the day-level heuristic used in availability summaries:
// a day counts as full once its scheduled/confirmed interview count reaches
// FullyBookedThreshold, regardless of actual slot capacity.
func FullyBooked(count int) bool {
	return count >= FullyBookedThreshold
}
