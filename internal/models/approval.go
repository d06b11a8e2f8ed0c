package models

import "time"

// ApprovalStatus tracks a single approver's decision.
type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "PENDING"
	ApprovalStatusApproved ApprovalStatus = "APPROVED"
	ApprovalStatusRejected ApprovalStatus = "REJECTED"
)

// Approval is one required sign-off on a booking.
type Approval struct {
	ID           string         `db:"id" json:"id"`
	BookingID    string         `db:"booking_id" json:"booking_id"`
	ApproverID   string         `db:"approver_id" json:"approver_id"`
	ApproverRole UserRole       `db:"approver_role" json:"approver_role"`
	Status       ApprovalStatus `db:"status" json:"status"`
	Comment      *string        `db:"comment" json:"comment,omitempty"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

// ApprovalDetail carries the approver's display name.
type ApprovalDetail struct {
	Approval
	ApproverName string `db:"approver_name" json:"approver_name"`
}

// PendingApproval is an approval awaiting the current user, with its booking.
type PendingApproval struct {
	Approval
	Booking       Booking `db:"booking" json:"booking"`
	RoomCode      string  `db:"room_code" json:"room_code"`
	RoomName      string  `db:"room_name" json:"room_name"`
	RequesterName string  `db:"requester_name" json:"requester_name"`
}

// ChainEntry is one approver resolved for a new booking.
type ChainEntry struct {
	ApproverID string
	Role       UserRole
}

// AggregateStatus derives a booking status from its approval statuses: any
// rejection rejects, unanimous approval approves, anything else is pending.
// An empty set stays pending.
func AggregateStatus(statuses []ApprovalStatus) BookingStatus {
	if len(statuses) == 0 {
		return BookingStatusPending
	}
	approved := 0
	for _, s := range statuses {
		switch s {
		case ApprovalStatusRejected:
			return BookingStatusRejected
		case ApprovalStatusApproved:
			approved++
		}
	}
	if approved == len(statuses) {
		return BookingStatusApproved
	}
	return BookingStatusPending
}
