package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/room-booking-api/internal/models"
)

// ScheduleRepository reads recurring class schedules.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository creates a new schedule repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// ListByDay returns every class held on the named weekday.
func (r *ScheduleRepository) ListByDay(ctx context.Context, day string) ([]models.ClassSchedule, error) {
	const query = `SELECT id, subject_code, subject_name, lecturer_name, credit_hours, day, start_time, end_time, room_id, department_id
	FROM class_schedules WHERE day = $1 ORDER BY room_id, start_time`
	var schedules []models.ClassSchedule
	if err := r.db.SelectContext(ctx, &schedules, query, day); err != nil {
		return nil, fmt.Errorf("list schedules by day: %w", err)
	}
	return schedules, nil
}

// ListSubjects returns the distinct subjects taught in a department, optionally
// narrowed by a case-insensitive match on subject name or code.
func (r *ScheduleRepository) ListSubjects(ctx context.Context, departmentID, search string) ([]models.Subject, error) {
	builder := strings.Builder{}
	builder.WriteString(`SELECT DISTINCT subject_code, subject_name, lecturer_name, credit_hours FROM class_schedules WHERE department_id = $1`)
	args := []interface{}{departmentID}
	if search = strings.TrimSpace(search); search != "" {
		args = append(args, "%"+search+"%")
		builder.WriteString(fmt.Sprintf(" AND (subject_name ILIKE $%d OR subject_code ILIKE $%d)", len(args), len(args)))
	}
	builder.WriteString(" ORDER BY subject_name, subject_code")

	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return subjects, nil
}
