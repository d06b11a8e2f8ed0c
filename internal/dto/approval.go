package dto

import "github.com/noah-isme/room-booking-api/internal/models"

// DecideApprovalRequest captures an approver's decision and optional comment.
type DecideApprovalRequest struct {
	Decision models.ApprovalStatus `json:"decision" validate:"required,oneof=APPROVED REJECTED"`
	Comment  string                `json:"comment" validate:"max=1000"`
}

// DecisionResult reports the decided approval and the booking after
// aggregation.
type DecisionResult struct {
	Approval models.Approval `json:"approval"`
	Booking  models.Booking  `json:"booking"`
}
