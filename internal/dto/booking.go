package dto

import (
	"time"

	"github.com/noah-isme/room-booking-api/internal/models"
)

// CreateBookingRequest is the payload for requesting a room.
type CreateBookingRequest struct {
	RoomID            string                 `json:"room_id" validate:"required,uuid"`
	Category          models.BookingCategory `json:"category" validate:"required,oneof=SUBSTITUTE_HOUR OTHER"`
	StartAt           time.Time              `json:"start_at"`
	EndAt             time.Time              `json:"end_at"`
	Purpose           string                 `json:"purpose" validate:"max=500"`
	SubstituteSubject string                 `json:"substitute_subject" validate:"max=200"`
	TeachingLecturer  string                 `json:"teaching_lecturer" validate:"max=200"`
}

// BookingCreated returns the stored booking with the approval chain it spawned.
type BookingCreated struct {
	Booking   models.Booking    `json:"booking"`
	Approvals []models.Approval `json:"approvals"`
}

// ExportQuery selects the report format.
type ExportQuery struct {
	Format string `form:"format"`
}
