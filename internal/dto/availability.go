package dto

// AvailableRoomsQuery selects a weekday time window.
type AvailableRoomsQuery struct {
	Day   string `form:"day"`
	Start string `form:"start"`
	End   string `form:"end"`
}

// DailyGridQuery selects a calendar date (YYYY-MM-DD).
type DailyGridQuery struct {
	Date string `form:"date"`
}

// SubjectQuery lists subjects for a department.
type SubjectQuery struct {
	DepartmentID string `form:"departmentId"`
	Search       string `form:"search"`
}
