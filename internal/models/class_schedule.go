package models

import "time"

// Weekday names as stored in class_schedules.day, indexed by time.Weekday.
var weekdayNames = [...]string{"minggu", "senin", "selasa", "rabu", "kamis", "jumat", "sabtu"}

// WeekdayName returns the stored day name for d.
func WeekdayName(d time.Weekday) string {
	return weekdayNames[d]
}

// ValidWeekday reports whether day is a stored day name.
func ValidWeekday(day string) bool {
	for _, name := range weekdayNames {
		if name == day {
			return true
		}
	}
	return false
}

// ClassSchedule is a recurring weekly lecture occupying a room. StartTime and
// EndTime are zero-padded HH:MM wall-clock values so they order as strings.
type ClassSchedule struct {
	ID           string `db:"id" json:"id"`
	SubjectCode  string `db:"subject_code" json:"subject_code"`
	SubjectName  string `db:"subject_name" json:"subject_name"`
	LecturerName string `db:"lecturer_name" json:"lecturer_name"`
	CreditHours  int    `db:"credit_hours" json:"credit_hours"`
	Day          string `db:"day" json:"day"`
	StartTime    string `db:"start_time" json:"start_time"`
	EndTime      string `db:"end_time" json:"end_time"`
	RoomID       string `db:"room_id" json:"room_id"`
	DepartmentID string `db:"department_id" json:"department_id"`
}

// Subject is the distinct course taught in a department.
type Subject struct {
	Code         string `db:"subject_code" json:"code"`
	Name         string `db:"subject_name" json:"name"`
	LecturerName string `db:"lecturer_name" json:"lecturer_name"`
	CreditHours  int    `db:"credit_hours" json:"credit_hours"`
}
