package service

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/room-booking-api/internal/models"
	"github.com/noah-isme/room-booking-api/internal/repository"
	appErrors "github.com/noah-isme/room-booking-api/pkg/errors"
)

type stubRoomCatalog struct {
	rooms     []models.Room
	schedules []models.ClassSchedule
	err       error
	calls     int
}

func (s *stubRoomCatalog) List(ctx context.Context) ([]models.Room, error) {
	s.calls++
	return s.rooms, s.err
}

// ListFreeOfClasses mirrors the predicate of RoomRepository.ListFreeOfClasses,
// NOT (end_time <= start OR start_time >= end), as string comparison on
// zero-padded HH:MM values. TestAvailableOverRoomRepository pins that SQL.
func (s *stubRoomCatalog) ListFreeOfClasses(ctx context.Context, day, start, end string) ([]models.Room, error) {
	if s.err != nil {
		return nil, s.err
	}
	var free []models.Room
	for _, room := range s.rooms {
		busy := false
		for _, class := range s.schedules {
			if class.RoomID == room.ID && class.Day == day && class.StartTime < end && class.EndTime > start {
				busy = true
				break
			}
		}
		if !busy {
			free = append(free, room)
		}
	}
	return free, nil
}

type stubScheduleCatalog struct {
	schedules []models.ClassSchedule
	subjects  []models.Subject
	lastDay   string
	onList    func()
}

func (s *stubScheduleCatalog) ListByDay(ctx context.Context, day string) ([]models.ClassSchedule, error) {
	s.lastDay = day
	if s.onList != nil {
		s.onList()
	}
	var result []models.ClassSchedule
	for _, class := range s.schedules {
		if class.Day == day {
			result = append(result, class)
		}
	}
	return result, nil
}

func (s *stubScheduleCatalog) ListSubjects(ctx context.Context, departmentID, search string) ([]models.Subject, error) {
	return s.subjects, nil
}

type stubBookingCalendar struct {
	bookings []models.Booking
	from, to time.Time
}

func (s *stubBookingCalendar) ListActiveBetween(ctx context.Context, from, to time.Time) ([]models.Booking, error) {
	s.from, s.to = from, to
	return s.bookings, nil
}

type memoryCacheRepo struct {
	entries  map[string]models.DailyGrid
	patterns []string
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	grid, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	*dest.(*models.DailyGrid) = grid
	return nil
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if m.entries == nil {
		m.entries = make(map[string]models.DailyGrid)
	}
	m.entries[key] = value.(models.DailyGrid)
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	m.patterns = append(m.patterns, pattern)
	m.entries = nil
	return nil
}

var (
	labOne = models.Room{ID: "r-lab1", Code: "LAB-1", Name: "Lab Komputer 1", Kind: "LAB"}
	roomA  = models.Room{ID: "r-a101", Code: "A101", Name: "Ruang A101", Kind: "CLASSROOM"}
)

func mondayLecture() models.ClassSchedule {
	return models.ClassSchedule{ID: "cs-1", SubjectCode: "IF201", SubjectName: "Basis Data", Day: "senin", StartTime: "10:00", EndTime: "12:00", RoomID: labOne.ID}
}

func TestAvailableHonoursClosedOpenOverlap(t *testing.T) {
	rooms := &stubRoomCatalog{rooms: []models.Room{labOne, roomA}, schedules: []models.ClassSchedule{mondayLecture()}}
	svc := NewAvailabilityService(rooms, &stubScheduleCatalog{}, &stubBookingCalendar{}, nil, AvailabilityOptions{}, zap.NewNop())

	cases := []struct {
		start, end string
		labFree    bool
	}{
		{"10:00", "12:00", false},
		{"09:00", "10:00", true},
		{"09:30", "10:30", false},
		{"12:00", "13:00", true},
		{"11:59", "12:30", false},
		{"8:00", "9:00", true},
	}
	for _, tc := range cases {
		t.Run(tc.start+"-"+tc.end, func(t *testing.T) {
			got, err := svc.Available(context.Background(), "Senin", tc.start, tc.end)
			require.NoError(t, err)
			ids := make([]string, 0, len(got))
			for _, r := range got {
				ids = append(ids, r.ID)
			}
			assert.Contains(t, ids, roomA.ID)
			if tc.labFree {
				assert.Contains(t, ids, labOne.ID)
			} else {
				assert.NotContains(t, ids, labOne.ID)
			}
		})
	}

	got, err := svc.Available(context.Background(), "selasa", "10:00", "12:00")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestAvailableRejectsBadInput(t *testing.T) {
	svc := NewAvailabilityService(&stubRoomCatalog{}, &stubScheduleCatalog{}, &stubBookingCalendar{}, nil, AvailabilityOptions{}, nil)

	cases := map[string][3]string{
		"missing day":    {"", "10:00", "11:00"},
		"unknown day":    {"monday", "10:00", "11:00"},
		"bad start":      {"senin", "ten", "11:00"},
		"bad end":        {"senin", "10:00", "25:00"},
		"inverted range": {"senin", "11:00", "10:00"},
		"empty range":    {"senin", "10:00", "10:00"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Available(context.Background(), in[0], in[1], in[2])
			assert.Equal(t, appErrors.ErrValidation.Code, codeOf(err))
		})
	}
}

func TestAvailableEmptyResultIsNotNil(t *testing.T) {
	rooms := &stubRoomCatalog{rooms: []models.Room{labOne}, schedules: []models.ClassSchedule{mondayLecture()}}
	svc := NewAvailabilityService(rooms, &stubScheduleCatalog{}, &stubBookingCalendar{}, nil, AvailabilityOptions{}, nil)

	got, err := svc.Available(context.Background(), "senin", "10:00", "11:00")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	rooms.err = errors.New("db down")
	_, err = svc.Available(context.Background(), "senin", "10:00", "11:00")
	assert.Equal(t, appErrors.ErrInternal.Code, codeOf(err))
}

func TestBuildDailyGridPrecedence(t *testing.T) {
	day := time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)
	at := func(h, m int) time.Time { return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute) }
	bookings := []models.Booking{
		{ID: "b-1", RoomID: roomA.ID, StartAt: at(14, 0), EndAt: at(15, 0), Status: models.BookingStatusApproved},
		{ID: "b-2", RoomID: roomA.ID, StartAt: at(14, 30), EndAt: at(15, 30), Status: models.BookingStatusPending},
		{ID: "b-3", RoomID: roomA.ID, StartAt: at(17, 0), EndAt: at(19, 0), Status: models.BookingStatusRejected},
		{ID: "b-4", RoomID: labOne.ID, StartAt: at(11, 0), EndAt: at(12, 0), Status: models.BookingStatusPending},
	}

	grid := BuildDailyGrid(day, 8, 21, []models.Room{labOne, roomA}, []models.ClassSchedule{mondayLecture()}, bookings)

	assert.Equal(t, "2024-05-06", grid.Date)
	assert.Equal(t, "senin", grid.Weekday)
	require.Len(t, grid.Hours, 14)
	assert.Equal(t, "08:00", grid.Hours[0])
	assert.Equal(t, "21:00", grid.Hours[13])
	require.Len(t, grid.Rooms, 2)

	lab := grid.Rooms[0].Slots
	assert.Len(t, lab, 14)
	assert.Equal(t, models.SlotFree, lab["09:00"])
	assert.Equal(t, models.SlotOccupied, lab["10:00"])
	// the class outranks the pending booking in the same slot
	assert.Equal(t, models.SlotOccupied, lab["11:00"])
	assert.Equal(t, models.SlotFree, lab["12:00"])

	a := grid.Rooms[1].Slots
	assert.Equal(t, models.SlotFree, a["13:00"])
	assert.Equal(t, models.SlotOccupied, a["14:00"])
	assert.Equal(t, models.SlotPending, a["15:00"])
	assert.Equal(t, models.SlotFree, a["16:00"])
	assert.Equal(t, models.SlotFree, a["17:00"])
	assert.Equal(t, models.SlotFree, a["18:00"])
}

func TestDailyGridLoadsWeekdayAndCaches(t *testing.T) {
	rooms := &stubRoomCatalog{rooms: []models.Room{labOne}}
	schedules := &stubScheduleCatalog{schedules: []models.ClassSchedule{mondayLecture()}}
	calendar := &stubBookingCalendar{}
	cacheRepo := &memoryCacheRepo{}
	cache := NewCacheService(cacheRepo, NewMetricsService(), time.Minute, nil, true)
	jakarta := time.FixedZone("WIB", 7*3600)
	svc := NewAvailabilityService(rooms, schedules, calendar, cache, AvailabilityOptions{Location: jakarta, FirstHour: 7, LastHour: 9}, nil)

	grid, err := svc.DailyGrid(context.Background(), "2024-05-06")
	require.NoError(t, err)
	assert.Equal(t, "senin", schedules.lastDay)
	assert.Equal(t, []string{"07:00", "08:00", "09:00"}, grid.Hours)
	assert.Equal(t, time.Date(2024, 5, 6, 0, 0, 0, 0, jakarta), calendar.from)
	assert.Equal(t, 24*time.Hour, calendar.to.Sub(calendar.from))
	assert.Contains(t, cacheRepo.entries, "availability:daily:2024-05-06")

	_, err = svc.DailyGrid(context.Background(), "2024-05-06")
	require.NoError(t, err)
	assert.Equal(t, 1, rooms.calls)

	cache.InvalidateGrids(context.Background())
	_, err = svc.DailyGrid(context.Background(), "2024-05-06")
	require.NoError(t, err)
	assert.Equal(t, 2, rooms.calls)
}

func TestDailyGridRejectsMalformedDates(t *testing.T) {
	svc := NewAvailabilityService(&stubRoomCatalog{}, &stubScheduleCatalog{}, &stubBookingCalendar{}, nil, AvailabilityOptions{}, nil)
	for _, date := range []string{"", "06-05-2024", "2024-5-6", "2024-02-30", "2024-05-06T00:00:00Z"} {
		_, err := svc.DailyGrid(context.Background(), date)
		assert.Equal(t, appErrors.ErrValidation.Code, codeOf(err), date)
	}
}

func TestListSubjectsRequiresDepartment(t *testing.T) {
	schedules := &stubScheduleCatalog{}
	svc := NewAvailabilityService(&stubRoomCatalog{}, schedules, &stubBookingCalendar{}, nil, AvailabilityOptions{}, nil)

	_, err := svc.ListSubjects(context.Background(), " ", "")
	assert.Equal(t, appErrors.ErrValidation.Code, codeOf(err))

	subjects, err := svc.ListSubjects(context.Background(), "dep-if", "basis")
	require.NoError(t, err)
	assert.NotNil(t, subjects)

	schedules.subjects = []models.Subject{{Code: "IF201", Name: "Basis Data"}}
	subjects, err = svc.ListSubjects(context.Background(), "dep-if", "basis")
	require.NoError(t, err)
	assert.Len(t, subjects, 1)
}

func TestParseAndFormatClock(t *testing.T) {
	minutes, err := parseClock("07:05")
	require.NoError(t, err)
	assert.Equal(t, 425, minutes)
	assert.Equal(t, "07:05", formatClock(minutes))

	_, err = parseClock("7am")
	assert.Error(t, err)
	assert.True(t, overlaps(600, 720, 570, 630))
	assert.False(t, overlaps(600, 720, 540, 600))
	assert.False(t, overlaps(600, 720, 720, 780))
}

func TestDailyGridSkipsCachingWhenInvalidatedMidBuild(t *testing.T) {
	rooms := &stubRoomCatalog{rooms: []models.Room{labOne}}
	schedules := &stubScheduleCatalog{}
	cacheRepo := &memoryCacheRepo{}
	cache := NewCacheService(cacheRepo, nil, time.Minute, nil, true)
	// a booking commits while the grid is being assembled
	schedules.onList = func() { cache.InvalidateGrids(context.Background()) }
	svc := NewAvailabilityService(rooms, schedules, &stubBookingCalendar{}, cache, AvailabilityOptions{}, nil)

	_, err := svc.DailyGrid(context.Background(), "2024-05-06")
	require.NoError(t, err)
	assert.NotContains(t, cacheRepo.entries, "availability:daily:2024-05-06")

	schedules.onList = nil
	_, err = svc.DailyGrid(context.Background(), "2024-05-06")
	require.NoError(t, err)
	assert.Contains(t, cacheRepo.entries, "availability:daily:2024-05-06")
}

func TestAvailableOverRoomRepository(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rooms := repository.NewRoomRepository(sqlx.NewDb(db, "postgres"))
	svc := NewAvailabilityService(rooms, &stubScheduleCatalog{}, &stubBookingCalendar{}, nil, AvailabilityOptions{}, nil)

	// a class ending at 10:00 touches but does not overlap [10:00, 12:00)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE day = $1 AND NOT (end_time <= $2 OR start_time >= $3)")).
		WithArgs("senin", "10:00", "12:00").
		WillReturnRows(sqlmock.NewRows([]string{"id", "code", "name", "kind"}).
			AddRow(roomA.ID, roomA.Code, roomA.Name, roomA.Kind).
			AddRow(labOne.ID, labOne.Code, labOne.Name, labOne.Kind))

	free, err := svc.Available(context.Background(), " Senin ", "10:00", "12:00")
	require.NoError(t, err)
	require.Len(t, free, 2)
	assert.Equal(t, roomA.Code, free[0].Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
