// Package availability holds the recruiter-configured weekly schedule and the
// pure slot math that turns it into bookable start times.
package availability

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Kind distinguishes the two bookable appointment kinds.
type Kind string

const (
	KindInterview Kind = "interview"
	KindTrial     Kind = "trial"
)

// ParseKind validates a caller-supplied booking kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindInterview:
		return KindInterview, nil
	case KindTrial:
		return KindTrial, nil
	default:
		return "", fmt.Errorf("availability: unknown booking kind %q", s)
	}
}

// TrialDurationMinutes is fixed for trial shifts regardless of the configured
// slot duration.
const TrialDurationMinutes = 240

// Fallback values used when a setting is absent or zero.
const (
	DefaultSlotDurationMinutes = 30
	DefaultBufferMinutes       = 15
	DefaultAdvanceBookingDays  = 30
	DefaultMinNoticeHours      = 24
)

// FullyBookedThreshold marks a day as fully booked once it holds this many
// scheduled/confirmed interviews. This is a coarse heuristic, not a slot
// count derived from capacity.
const FullyBookedThreshold = 8

// Window is a single bookable range within a day, "HH:MM" inclusive start,
// exclusive end.
type Window struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// DaySchedule is the configuration for one weekday.
type DaySchedule struct {
	Enabled bool     `json:"enabled"`
	Windows []Window `json:"windows,omitempty"`
}

// Schedule maps lowercase weekday names ("monday"…) to their configuration.
type Schedule map[string]DaySchedule

// Config is the per-kind availability configuration.
type Config struct {
	Kind                Kind     `json:"kind"`
	Schedule            Schedule `json:"schedule"`
	SlotDurationMinutes int      `json:"slot_duration_minutes,omitempty"`
	BufferMinutes       int      `json:"buffer_minutes,omitempty"`
	AdvanceBookingDays  int      `json:"advance_booking_days,omitempty"`
	MinNoticeHours      int      `json:"min_notice_hours,omitempty"`
}

// LunchBlock is a single daily exclusion window applied to every slot.
type LunchBlock struct {
	Enabled bool   `json:"enabled"`
	Start   string `json:"start,omitempty"`
	End     string `json:"end,omitempty"`
}

// Blocks holds date-level and daily exclusions shared by both booking kinds.
type Blocks struct {
	// BankHolidays are ISO dates ("2026-12-25") that block the whole day.
	BankHolidays []string   `json:"bank_holidays,omitempty"`
	LunchBlock   LunchBlock `json:"lunch_block"`
}

// DefaultConfig returns the fallback configuration served when none is stored
// or the configuration store is unreachable.
func DefaultConfig(kind Kind) *Config {
	weekday := DaySchedule{Enabled: true, Windows: []Window{{Start: "09:00", End: "17:00"}}}
	return &Config{
		Kind: kind,
		Schedule: Schedule{
			"monday":    weekday,
			"tuesday":   weekday,
			"wednesday": weekday,
			"thursday":  weekday,
			"friday":    weekday,
			"saturday":  {Enabled: false},
			"sunday":    {Enabled: false},
		},
		SlotDurationMinutes: DefaultSlotDurationMinutes,
		BufferMinutes:       DefaultBufferMinutes,
		AdvanceBookingDays:  DefaultAdvanceBookingDays,
		MinNoticeHours:      DefaultMinNoticeHours,
	}
}

// DefaultBlocks returns empty blocking rules.
func DefaultBlocks() *Blocks {
	return &Blocks{LunchBlock: LunchBlock{Enabled: false}}
}

// SlotDuration resolves the appointment duration in minutes for this config's
// kind. Trials are always TrialDurationMinutes.
func (c *Config) SlotDuration() int {
	if c != nil && c.Kind == KindTrial {
		return TrialDurationMinutes
	}
	if c == nil || c.SlotDurationMinutes <= 0 {
		return DefaultSlotDurationMinutes
	}
	return c.SlotDurationMinutes
}

// Buffer resolves the idle minutes required between consecutive appointments.
func (c *Config) Buffer() int {
	if c == nil || c.BufferMinutes < 0 {
		return DefaultBufferMinutes
	}
	return c.BufferMinutes
}

// Notice resolves the minimum notice window in hours.
func (c *Config) Notice() int {
	if c == nil || c.MinNoticeHours < 0 {
		return DefaultMinNoticeHours
	}
	return c.MinNoticeHours
}

// AdvanceDays resolves how far ahead booking is allowed.
func (c *Config) AdvanceDays() int {
	if c == nil || c.AdvanceBookingDays <= 0 {
		return DefaultAdvanceBookingDays
	}
	return c.AdvanceBookingDays
}

// Day returns the schedule for a weekday, never nil-mapping surprises.
func (c *Config) Day(weekday time.Weekday) DaySchedule {
	if c == nil || c.Schedule == nil {
		return DaySchedule{}
	}
	return c.Schedule[strings.ToLower(weekday.String())]
}

// Validate rejects malformed schedules before they are written. Overlapping
// windows within one day are rejected rather than left to produce undefined
// slot sequences.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("availability: nil config")
	}
	if _, err := ParseKind(string(c.Kind)); err != nil {
		return err
	}
	// Zero means "absent, use the default"; negatives are never meaningful.
	if c.SlotDurationMinutes < 0 || c.BufferMinutes < 0 || c.AdvanceBookingDays < 0 || c.MinNoticeHours < 0 {
		return fmt.Errorf("availability: negative durations are not allowed")
	}
	for name, day := range c.Schedule {
		if !validWeekday(name) {
			return fmt.Errorf("availability: unknown weekday %q", name)
		}
		windows := make([]Window, len(day.Windows))
		copy(windows, day.Windows)
		sort.Slice(windows, func(i, j int) bool { return windows[i].Start < windows[j].Start })
		prevEnd := -1
		for _, w := range windows {
			start, err := ParseClock(w.Start)
			if err != nil {
				return fmt.Errorf("availability: %s: %w", name, err)
			}
			end, err := ParseClock(w.End)
			if err != nil {
				return fmt.Errorf("availability: %s: %w", name, err)
			}
			if end <= start {
				return fmt.Errorf("availability: %s: window %s-%s ends before it starts", name, w.Start, w.End)
			}
			if start < prevEnd {
				return fmt.Errorf("availability: %s: windows overlap at %s", name, w.Start)
			}
			prevEnd = end
		}
	}
	return nil
}

// Validate rejects malformed blocking rules.
func (b *Blocks) Validate() error {
	if b == nil {
		return fmt.Errorf("availability: nil blocks")
	}
	for _, d := range b.BankHolidays {
		if _, err := time.Parse("2006-01-02", d); err != nil {
			return fmt.Errorf("availability: bad bank holiday date %q", d)
		}
	}
	if b.LunchBlock.Enabled {
		start, err := ParseClock(b.LunchBlock.Start)
		if err != nil {
			return fmt.Errorf("availability: lunch block: %w", err)
		}
		end, err := ParseClock(b.LunchBlock.End)
		if err != nil {
			return fmt.Errorf("availability: lunch block: %w", err)
		}
		if end <= start {
			return fmt.Errorf("availability: lunch block ends before it starts")
		}
	}
	return nil
}

// IsHoliday reports whether the given date is a configured bank holiday.
func (b *Blocks) IsHoliday(date time.Time) bool {
	if b == nil {
		return false
	}
	iso := date.Format("2006-01-02")
	for _, d := range b.BankHolidays {
		if d == iso {
			return true
		}
	}
	return false
}

// ParseClock converts "HH:MM" into minutes from midnight.
func ParseClock(s string) (int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("bad clock time %q", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// FormatClock converts minutes from midnight back into "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

func validWeekday(name string) bool {
	switch name {
	case "monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday":
		return true
	}
	return false
}
