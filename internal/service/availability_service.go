package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/room-booking-api/internal/models"
	appErrors "github.com/noah-isme/room-booking-api/pkg/errors"
)

const (
	clockLayout = "15:04"
	dateLayout  = "2006-01-02"
)

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

type roomCatalog interface {
	List(ctx context.Context) ([]models.Room, error)
	ListFreeOfClasses(ctx context.Context, day, start, end string) ([]models.Room, error)
}

type scheduleCatalog interface {
	ListByDay(ctx context.Context, day string) ([]models.ClassSchedule, error)
	ListSubjects(ctx context.Context, departmentID, search string) ([]models.Subject, error)
}

type bookingCalendar interface {
	ListActiveBetween(ctx context.Context, from, to time.Time) ([]models.Booking, error)
}

// AvailabilityOptions tunes the daily grid.
type AvailabilityOptions struct {
	Location  *time.Location
	FirstHour int
	LastHour  int
	CacheTTL  time.Duration
}

// AvailabilityService answers room availability questions from class
// schedules and ad-hoc bookings.
type AvailabilityService struct {
	rooms     roomCatalog
	schedules scheduleCatalog
	bookings  bookingCalendar
	cache     *CacheService
	opts      AvailabilityOptions
	logger    *zap.Logger
}

// NewAvailabilityService constructs the service. Unset options default to UTC
// and the 08:00 to 21:00 grid.
func NewAvailabilityService(rooms roomCatalog, schedules scheduleCatalog, bookings bookingCalendar, cache *CacheService, opts AvailabilityOptions, logger *zap.Logger) *AvailabilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.FirstHour == 0 && opts.LastHour == 0 {
		opts.FirstHour, opts.LastHour = 8, 21
	}
	return &AvailabilityService{rooms: rooms, schedules: schedules, bookings: bookings, cache: cache, opts: opts, logger: logger}
}

// Available lists rooms with no class on day overlapping [start, end).
// Ad-hoc bookings are not considered here; the daily grid shows them.
func (s *AvailabilityService) Available(ctx context.Context, day, start, end string) ([]models.Room, error) {
	day = strings.ToLower(strings.TrimSpace(day))
	if day == "" || strings.TrimSpace(start) == "" || strings.TrimSpace(end) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "day, start and end are required")
	}
	if !models.ValidWeekday(day) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown day %q", day))
	}
	startMin, err := parseClock(start)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start must be HH:MM")
	}
	endMin, err := parseClock(end)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end must be HH:MM")
	}
	if startMin >= endMin {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start must be before end")
	}

	rooms, err := s.rooms.ListFreeOfClasses(ctx, day, formatClock(startMin), formatClock(endMin))
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list available rooms")
	}
	if rooms == nil {
		rooms = []models.Room{}
	}
	return rooms, nil
}

// DailyGrid builds the hourly occupancy of every room on date (YYYY-MM-DD).
func (s *AvailabilityService) DailyGrid(ctx context.Context, date string) (*models.DailyGrid, error) {
	date = strings.TrimSpace(date)
	if !datePattern.MatchString(date) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
	}
	day, err := time.ParseInLocation(dateLayout, date, s.opts.Location)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be a valid calendar date")
	}

	if cached, ok := s.cache.LoadGrid(ctx, date); ok {
		return cached, nil
	}
	gen := s.cache.GridGeneration()

	weekday := models.WeekdayName(day.Weekday())
	rooms, err := s.rooms.List(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list rooms")
	}
	schedules, err := s.schedules.ListByDay(ctx, weekday)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list class schedules")
	}
	bookings, err := s.bookings.ListActiveBetween(ctx, day, day.AddDate(0, 0, 1))
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list bookings")
	}

	grid := BuildDailyGrid(day, s.opts.FirstHour, s.opts.LastHour, rooms, schedules, bookings)
	s.cache.StoreGrid(ctx, grid, s.opts.CacheTTL, gen)
	return &grid, nil
}

// ListSubjects returns the subjects taught in a department.
func (s *AvailabilityService) ListSubjects(ctx context.Context, departmentID, search string) ([]models.Subject, error) {
	departmentID = strings.TrimSpace(departmentID)
	if departmentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "departmentId is required")
	}
	subjects, err := s.schedules.ListSubjects(ctx, departmentID, search)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list subjects")
	}
	if subjects == nil {
		subjects = []models.Subject{}
	}
	return subjects, nil
}

// BuildDailyGrid computes one-hour slots from firstHour to lastHour inclusive
// for every room on day, which must be midnight in the grid's location.
// A class or APPROVED booking overlapping a slot marks it OCCUPIED; otherwise a
// PENDING booking marks it PENDING; anything else is FREE. REJECTED bookings
// never count. Overlap is closed-open at both ends.
func BuildDailyGrid(day time.Time, firstHour, lastHour int, rooms []models.Room, schedules []models.ClassSchedule, bookings []models.Booking) models.DailyGrid {
	hours := make([]string, 0, lastHour-firstHour+1)
	for h := firstHour; h <= lastHour; h++ {
		hours = append(hours, formatClock(h*60))
	}

	classesByRoom := make(map[string][]models.ClassSchedule)
	for _, schedule := range schedules {
		classesByRoom[schedule.RoomID] = append(classesByRoom[schedule.RoomID], schedule)
	}
	bookingsByRoom := make(map[string][]models.Booking)
	for _, booking := range bookings {
		bookingsByRoom[booking.RoomID] = append(bookingsByRoom[booking.RoomID], booking)
	}

	y, m, d := day.Date()
	loc := day.Location()
	result := make([]models.RoomSlots, 0, len(rooms))
	for _, room := range rooms {
		slots := make(map[string]models.SlotStatus, len(hours))
		for i, label := range hours {
			hour := firstHour + i
			slotStartMin, slotEndMin := hour*60, hour*60+60
			slotStart := time.Date(y, m, d, hour, 0, 0, 0, loc)
			slotEnd := slotStart.Add(time.Hour)

			status := models.SlotFree
			for _, class := range classesByRoom[room.ID] {
				classStart, errStart := parseClock(class.StartTime)
				classEnd, errEnd := parseClock(class.EndTime)
				if errStart != nil || errEnd != nil {
					continue
				}
				if overlaps(classStart, classEnd, slotStartMin, slotEndMin) {
					status = models.SlotOccupied
					break
				}
			}
			if status != models.SlotOccupied {
				for _, booking := range bookingsByRoom[room.ID] {
					if !booking.StartAt.Before(slotEnd) || !booking.EndAt.After(slotStart) {
						continue
					}
					switch booking.Status {
					case models.BookingStatusApproved:
						status = models.SlotOccupied
					case models.BookingStatusPending:
						status = models.SlotPending
					}
					if status == models.SlotOccupied {
						break
					}
				}
			}
			slots[label] = status
		}
		result = append(result, models.RoomSlots{Room: room, Slots: slots})
	}

	return models.DailyGrid{
		Date:    day.Format(dateLayout),
		Weekday: models.WeekdayName(day.Weekday()),
		Hours:   hours,
		Rooms:   result,
	}
}

// overlaps reports whether [aStart, aEnd) and [bStart, bEnd) intersect.
func overlaps(aStart, aEnd, bStart, bEnd int) bool {
	return !(aEnd <= bStart || aStart >= bEnd)
}

// parseClock converts HH:MM into minutes after midnight.
func parseClock(value string) (int, error) {
	t, err := time.Parse(clockLayout, strings.TrimSpace(value))
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

func formatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
