package models

import "time"

// BookingCategory determines the approval chain of a booking.
type BookingCategory string

const (
	BookingCategorySubstituteHour BookingCategory = "SUBSTITUTE_HOUR"
	BookingCategoryOther          BookingCategory = "OTHER"
)

// BookingStatus represents the aggregate state of a booking.
type BookingStatus string

const (
	BookingStatusPending  BookingStatus = "PENDING"
	BookingStatusApproved BookingStatus = "APPROVED"
	BookingStatusRejected BookingStatus = "REJECTED"
)

// Booking is a request to reserve a room for a time interval.
type Booking struct {
	ID                string          `db:"id" json:"id"`
	RequesterID       string          `db:"requester_id" json:"requester_id"`
	RoomID            string          `db:"room_id" json:"room_id"`
	Purpose           *string         `db:"purpose" json:"purpose,omitempty"`
	Category          BookingCategory `db:"category" json:"category"`
	StartAt           time.Time       `db:"start_at" json:"start_at"`
	EndAt             time.Time       `db:"end_at" json:"end_at"`
	Status            BookingStatus   `db:"status" json:"status"`
	SubstituteSubject *string         `db:"substitute_subject" json:"substitute_subject,omitempty"`
	TeachingLecturer  *string         `db:"teaching_lecturer" json:"teaching_lecturer,omitempty"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time       `db:"updated_at" json:"updated_at"`
}

// BookingDetail enriches a booking with display names and its approvals.
type BookingDetail struct {
	Booking
	RoomCode      string           `db:"room_code" json:"room_code"`
	RoomName      string           `db:"room_name" json:"room_name"`
	RequesterName string           `db:"requester_name" json:"requester_name"`
	Approvals     []ApprovalDetail `db:"-" json:"approvals"`
}
