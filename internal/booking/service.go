package booking

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/recruitflow/booking-engine/internal/availability"
	"github.com/recruitflow/booking-engine/internal/bookinglink"
	"github.com/recruitflow/booking-engine/internal/candidates"
	"github.com/recruitflow/booking-engine/internal/interviews"
	"github.com/recruitflow/booking-engine/internal/observability/metrics"
	"github.com/recruitflow/booking-engine/pkg/logging"
)

const dateLayout = "2006-01-02"

// TokenValidator resolves raw booking tokens to active links.
type TokenValidator interface {
	Validate(ctx context.Context, raw string) (*bookinglink.Link, error)
}

// ConfigSource serves availability configuration. Failures degrade to defaults
// rather than blocking the booking flow.
type ConfigSource interface {
	GetConfig(ctx context.Context, kind availability.Kind) (*availability.Config, error)
	GetBlocks(ctx context.Context) (*availability.Blocks, error)
}

// Calendar is the slice of the interview store the flow reads and commits to.
type Calendar interface {
	ListActiveBetween(ctx context.Context, from, to time.Time) ([]interviews.Interview, error)
	ActiveCountsByDay(ctx context.Context, from, to time.Time, loc *time.Location) (map[string]int, error)
	BookAtomic(ctx context.Context, p interviews.BookParams) (*interviews.Interview, error)
}

// Directory advances candidates after a successful booking.
type Directory interface {
	AdvanceStatus(ctx context.Context, id uuid.UUID, target candidates.Status) (bool, error)
}

// AvailabilityView is the overview served when a candidate opens their link.
type AvailabilityView struct {
	Kind             string                               `json:"kind"`
	JobTitle         string                               `json:"job_title,omitempty"`
	DurationMinutes  int                                  `json:"duration_minutes"`
	From             string                               `json:"from"`
	To               string                               `json:"to"`
	Schedule         map[string]availability.DaySchedule `json:"schedule"`
	FullyBookedDates []string                             `json:"fully_booked_dates"`
	Holidays         []string                             `json:"holidays"`
	LunchBlock       availability.LunchBlock              `json:"lunch_block"`
}

// DaySlots is one date's slot listing.
type DaySlots struct {
	Date        string              `json:"date"`
	Blocked     bool                `json:"blocked"`
	BlockReason string              `json:"block_reason,omitempty"`
	Slots       []availability.Slot `json:"slots"`
}

// BookRequest is a candidate's chosen time.
type BookRequest struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

// Confirmation is returned after a committed booking.
type Confirmation struct {
	InterviewID      string `json:"interview_id"`
	ConfirmationCode string `json:"confirmation_code"`
	Kind             string `json:"kind"`
	Date             string `json:"date"`
	Time             string `json:"time"`
	DurationMinutes  int    `json:"duration_minutes"`
}

// Service drives the candidate-facing booking flow.
type Service struct {
	validator TokenValidator
	configs   ConfigSource
	calendar  Calendar
	directory Directory
	metrics   *metrics.BookingMetrics
	logger    *logging.Logger
	tracer    trace.Tracer
	location  *time.Location
	now       func() time.Time
}

// NewService creates a booking service. The location is the zone all dates and
// clock times are interpreted in.
func NewService(validator TokenValidator, configs ConfigSource, calendar Calendar, directory Directory, m *metrics.BookingMetrics, location *time.Location, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	if location == nil {
		location = time.UTC
	}
	return &Service{
		validator: validator,
		configs:   configs,
		calendar:  calendar,
		directory: directory,
		metrics:   m,
		logger:    logger.WithComponent("booking"),
		tracer:    otel.Tracer("booking"),
		location:  location,
		now:       time.Now,
	}
}

// WithNow overrides the clock for tests.
func (s *Service) WithNow(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// Availability serves the booking overview for a link: the bookable window,
// the weekly schedule, and the dates already too busy to offer.
func (s *Service) Availability(ctx context.Context, token string) (*AvailabilityView, *Error) {
	ctx, span := s.tracer.Start(ctx, "booking.availability")
	defer span.End()

	link, berr := s.resolveLink(ctx, token)
	if berr != nil {
		return nil, berr
	}
	span.SetAttributes(attribute.String("booking.kind", string(link.Kind)))

	cfg, blocks := s.loadConfig(ctx, link.Kind)
	cfg = linkConfig(cfg, link)
	today := s.today()
	until := today.AddDate(0, 0, cfg.AdvanceDays())

	counts, err := s.calendar.ActiveCountsByDay(ctx, today, until, s.location)
	if err != nil {
		return nil, internal(err)
	}

	var full, holidays []string
	for d := today; d.Before(until); d = d.AddDate(0, 0, 1) {
		iso := d.Format(dateLayout)
		if availability.FullyBooked(counts[iso]) {
			full = append(full, iso)
		}
		if blocks.IsHoliday(d) {
			holidays = append(holidays, iso)
		}
	}
	sort.Strings(full)

	return &AvailabilityView{
		Kind:             string(link.Kind),
		JobTitle:         link.JobTitle,
		DurationMinutes:  cfg.SlotDuration(),
		From:             today.Format(dateLayout),
		To:               until.AddDate(0, 0, -1).Format(dateLayout),
		Schedule:         cfg.Schedule,
		FullyBookedDates: full,
		Holidays:         holidays,
		LunchBlock:       blocks.LunchBlock,
	}, nil
}

// TimeSlots lists one date's slots with per-slot availability and reasons.
func (s *Service) TimeSlots(ctx context.Context, token, dateStr string) (*DaySlots, *Error) {
	ctx, span := s.tracer.Start(ctx, "booking.time_slots", trace.WithAttributes(attribute.String("booking.date", dateStr)))
	defer span.End()

	link, berr := s.resolveLink(ctx, token)
	if berr != nil {
		s.metrics.ObserveSlotRequest("unknown", string(berr.Kind))
		return nil, berr
	}

	date, berr := s.parseDate(dateStr)
	if berr != nil {
		s.metrics.ObserveSlotRequest(string(link.Kind), string(berr.Kind))
		return nil, berr
	}
	cfg, blocks := s.loadConfig(ctx, link.Kind)
	cfg = linkConfig(cfg, link)
	if berr := s.withinWindow(date, cfg); berr != nil {
		s.metrics.ObserveSlotRequest(string(link.Kind), string(berr.Kind))
		return nil, berr
	}

	slots, day, berr := s.slotsFor(ctx, cfg, blocks, date)
	if berr != nil {
		s.metrics.ObserveSlotRequest(string(link.Kind), string(berr.Kind))
		return nil, berr
	}
	s.metrics.ObserveSlotRequest(string(link.Kind), "ok")
	return &DaySlots{
		Date:        dateStr,
		Blocked:     day.Blocked,
		BlockReason: day.BlockReason,
		Slots:       slots,
	}, nil
}

// Book commits a chosen slot. Every pre-check here is advisory; the only
// authority on double booking is the transactional commit underneath.
func (s *Service) Book(ctx context.Context, token string, req BookRequest) (*Confirmation, *Error) {
	ctx, span := s.tracer.Start(ctx, "booking.book",
		trace.WithAttributes(attribute.String("booking.date", req.Date), attribute.String("booking.time", req.Time)))
	defer span.End()

	link, berr := s.resolveLink(ctx, token)
	if berr != nil {
		s.metrics.ObserveBooking("unknown", string(berr.Kind))
		return nil, berr
	}
	kind := string(link.Kind)

	fail := func(e *Error) (*Confirmation, *Error) {
		s.metrics.ObserveBooking(kind, e.Code)
		return nil, e
	}

	date, berr := s.parseDate(req.Date)
	if berr != nil {
		return fail(berr)
	}
	minutes, err := availability.ParseClock(req.Time)
	if err != nil {
		return fail(invalidInput(CodeBadTime, "Times must look like 14:30."))
	}
	cfg, blocks := s.loadConfig(ctx, link.Kind)
	cfg = linkConfig(cfg, link)
	if berr := s.withinWindow(date, cfg); berr != nil {
		return fail(berr)
	}
	startAt := time.Date(date.Year(), date.Month(), date.Day(), minutes/60, minutes%60, 0, 0, s.location)

	slots, day, berr := s.slotsFor(ctx, cfg, blocks, date)
	if berr != nil {
		return fail(berr)
	}
	if day.Blocked {
		return fail(temporal(CodeBlockedHoliday, "That date is not available."))
	}

	chosen := availability.FormatClock(minutes)
	var slot *availability.Slot
	for i := range slots {
		if slots[i].Time == chosen {
			slot = &slots[i]
			break
		}
	}
	if slot == nil {
		return fail(temporal(CodeNotBookable, "That time is not offered on this date."))
	}
	if !slot.Available {
		switch slot.Reason {
		case availability.ReasonNotice:
			if startAt.Before(s.now()) {
				return fail(temporal(CodeInThePast, "That time has already passed."))
			}
			return fail(temporal(CodeShortNotice, "That time is too soon. Please pick a later slot."))
		case availability.ReasonLunch:
			return fail(temporal(CodeBlockedLunch, "That time is not available."))
		default:
			return fail(conflict("That time was just taken. Please pick another slot."))
		}
	}

	code, err := interviews.NewConfirmationCode(link.Kind)
	if err != nil {
		return fail(internal(err))
	}

	start := s.now()
	iv, err := s.calendar.BookAtomic(ctx, interviews.BookParams{
		LinkID:           link.ID,
		CandidateID:      link.CandidateID,
		Kind:             link.Kind,
		ScheduledAt:      startAt.UTC(),
		DurationMinutes:  cfg.SlotDuration(),
		ConfirmationCode: code,
	})
	s.metrics.ObserveCommitLatency(kind, s.now().Sub(start).Seconds())
	if err != nil {
		switch {
		case errors.Is(err, interviews.ErrSlotTaken):
			return fail(conflict("That time was just taken. Please pick another slot."))
		case errors.Is(err, interviews.ErrLinkNoLongerValid), errors.Is(err, interviews.ErrLinkUsedUp):
			return fail(invalidToken())
		default:
			s.logger.Error("booking commit failed", "error", err, "link_id", link.ID)
			return fail(internal(err))
		}
	}

	// The booking is committed; moving the candidate forward is best effort
	// and the lapse sweep will reconcile if it loses a race here.
	target := candidates.ScheduledStatus(link.Kind)
	if advanced, err := s.directory.AdvanceStatus(ctx, link.CandidateID, target); err != nil {
		s.logger.Error("candidate advance failed after booking", "error", err,
			"candidate_id", link.CandidateID, "target", target)
	} else if !advanced {
		s.logger.Warn("candidate not advanced after booking", "candidate_id", link.CandidateID, "target", target)
	}

	s.metrics.ObserveBooking(kind, "booked")
	s.logger.Info("booking committed", "interview_id", iv.ID, "kind", kind, "scheduled_at", iv.ScheduledAt)
	return &Confirmation{
		InterviewID:      iv.ID.String(),
		ConfirmationCode: iv.ConfirmationCode,
		Kind:             kind,
		Date:             req.Date,
		Time:             chosen,
		DurationMinutes:  iv.DurationMinutes,
	}, nil
}

func (s *Service) resolveLink(ctx context.Context, token string) (*bookinglink.Link, *Error) {
	link, err := s.validator.Validate(ctx, token)
	if errors.Is(err, bookinglink.ErrInvalidLink) {
		return nil, invalidToken()
	}
	if err != nil {
		return nil, internal(err)
	}
	return link, nil
}

// linkConfig overlays an interview link's issued duration onto the configured
// slot length. The grid, the advisory checks and the committed interval must
// all describe the same minutes; trials stay fixed regardless.
func linkConfig(cfg *availability.Config, link *bookinglink.Link) *availability.Config {
	if link.Kind == availability.KindTrial || link.DurationMinutes <= 0 {
		return cfg
	}
	c := *cfg
	c.SlotDurationMinutes = link.DurationMinutes
	return &c
}

// loadConfig fetches the stored configuration, falling back to defaults when
// the config store is unreachable so candidates can keep booking.
func (s *Service) loadConfig(ctx context.Context, kind availability.Kind) (*availability.Config, *availability.Blocks) {
	cfg, err := s.configs.GetConfig(ctx, kind)
	if err != nil {
		s.logger.Error("config load failed, using defaults", "error", err, "kind", kind)
		cfg = availability.DefaultConfig(kind)
	}
	blocks, err := s.configs.GetBlocks(ctx)
	if err != nil {
		s.logger.Error("blocks load failed, using defaults", "error", err)
		blocks = availability.DefaultBlocks()
	}
	return cfg, blocks
}

func (s *Service) slotsFor(ctx context.Context, cfg *availability.Config, blocks *availability.Blocks, date time.Time) ([]availability.Slot, availability.Day, *Error) {
	day := availability.GenerateDay(date, cfg, blocks)
	if day.Blocked {
		return nil, day, nil
	}

	dayEnd := date.AddDate(0, 0, 1)
	active, err := s.calendar.ListActiveBetween(ctx, date.UTC(), dayEnd.UTC())
	if err != nil {
		return nil, day, internal(err)
	}
	booked := make([]availability.Booked, 0, len(active))
	for _, iv := range active {
		local := iv.ScheduledAt.In(s.location)
		booked = append(booked, availability.Booked{
			StartMinutes:    local.Hour()*60 + local.Minute(),
			DurationMinutes: iv.DurationMinutes,
		})
	}

	slots := availability.Check(day, availability.CheckInput{
		Date:     date,
		Config:   cfg,
		Booked:   booked,
		Now:      s.now(),
		Location: s.location,
	})
	return slots, day, nil
}

func (s *Service) parseDate(dateStr string) (time.Time, *Error) {
	d, err := time.ParseInLocation(dateLayout, dateStr, s.location)
	if err != nil {
		return time.Time{}, invalidInput(CodeBadDate, "Dates must look like 2026-03-14.")
	}
	return d, nil
}

// withinWindow rejects dates in the past or beyond the advance booking limit.
func (s *Service) withinWindow(date time.Time, cfg *availability.Config) *Error {
	today := s.today()
	if date.Before(today) {
		return temporal(CodeInThePast, "That date has already passed.")
	}
	if !date.Before(today.AddDate(0, 0, cfg.AdvanceDays())) {
		return temporal(CodeTooFarAhead, "That date is too far ahead to book.")
	}
	return nil
}

func (s *Service) today() time.Time {
	n := s.now().In(s.location)
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, s.location)
}
