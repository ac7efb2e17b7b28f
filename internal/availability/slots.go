package availability

import (
	"time"
)

// Block reasons returned when a whole day yields no slots.
const (
	BlockReasonHoliday = "blocked: holiday"
)

// Reasons attached to individual unavailable slots. When several checks fail
// the first in the order notice → conflict → lunch wins.
const (
	ReasonNotice = "too short notice"
	ReasonBooked = "already booked"
	ReasonLunch  = "lunch"
)

// Candidate is a generated start time before booking conflicts and notice are
// considered. Lunch intersection is computed at generation time because it
// depends only on configuration, not on bookings.
type Candidate struct {
	Minutes int
	Lunch   bool
}

// Day is the result of generating one date's candidate sequence.
type Day struct {
	Blocked     bool
	BlockReason string
	Candidates  []Candidate
}

// GenerateDay produces the ordered candidate start times for one date. The
// sequence is regenerated fresh on every call; nothing is cached.
func GenerateDay(date time.Time, cfg *Config, blocks *Blocks) Day {
	if blocks.IsHoliday(date) {
		return Day{Blocked: true, BlockReason: BlockReasonHoliday}
	}

	day := cfg.Day(date.Weekday())
	if !day.Enabled || len(day.Windows) == 0 {
		return Day{}
	}

	duration := cfg.SlotDuration()
	buffer := cfg.Buffer()
	step := duration + buffer

	lunchStart, lunchEnd, lunchOn := lunchInterval(blocks)

	var out []Candidate
	for _, w := range day.Windows {
		start, err := ParseClock(w.Start)
		if err != nil {
			continue
		}
		end, err := ParseClock(w.End)
		if err != nil {
			continue
		}
		for t := start; t+duration <= end; t += step {
			c := Candidate{Minutes: t}
			if lunchOn && overlaps(t, t+duration, lunchStart, lunchEnd) {
				c.Lunch = true
			}
			out = append(out, c)
		}
	}
	return Day{Candidates: out}
}

func lunchInterval(blocks *Blocks) (start, end int, ok bool) {
	if blocks == nil || !blocks.LunchBlock.Enabled {
		return 0, 0, false
	}
	s, err := ParseClock(blocks.LunchBlock.Start)
	if err != nil {
		return 0, 0, false
	}
	e, err := ParseClock(blocks.LunchBlock.End)
	if err != nil {
		return 0, 0, false
	}
	return s, e, true
}

// overlaps is the standard half-open interval test: [aStart,aEnd) intersects
// [bStart,bEnd) iff aStart < bEnd && bStart < aEnd.
func overlaps(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && bStart < aEnd
}
