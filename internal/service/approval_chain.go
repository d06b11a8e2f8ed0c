package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/noah-isme/room-booking-api/internal/models"
	appErrors "github.com/noah-isme/room-booking-api/pkg/errors"
)

type approverDirectory interface {
	FindDeptHead(ctx context.Context, departmentID string) (*models.User, error)
	FindLecturerByName(ctx context.Context, name string) (*models.User, error)
	FindClassRep(ctx context.Context, departmentID, cohort string) (*models.User, error)
}

// ChainRequest is the input needed to resolve a booking's approvers.
type ChainRequest struct {
	Category          models.BookingCategory
	Requester         *models.User
	SubstituteSubject string
	TeachingLecturer  string
}

// ApprovalChainBuilder resolves who must approve a booking.
type ApprovalChainBuilder struct {
	directory approverDirectory
}

// NewApprovalChainBuilder constructs the builder.
func NewApprovalChainBuilder(directory approverDirectory) *ApprovalChainBuilder {
	return &ApprovalChainBuilder{directory: directory}
}

// Build returns the approvers for req in row-creation order. The department
// head is resolved first for every category and its absence fails the request
// before anything else is looked up.
func (b *ApprovalChainBuilder) Build(ctx context.Context, req ChainRequest) ([]models.ChainEntry, error) {
	if req.Requester == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "requester is required")
	}
	requester := req.Requester

	if requester.DepartmentID == nil || *requester.DepartmentID == "" {
		return nil, appErrors.Clone(appErrors.ErrApproverNotFound, "department head not found: requester has no department")
	}
	head, err := b.resolve("department head", func() (*models.User, error) {
		return b.directory.FindDeptHead(ctx, *requester.DepartmentID)
	})
	if err != nil {
		return nil, err
	}
	headEntry := models.ChainEntry{ApproverID: head.ID, Role: models.RoleDeptHead}

	switch req.Category {
	case models.BookingCategoryOther:
		return []models.ChainEntry{headEntry}, nil
	case models.BookingCategorySubstituteHour:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported booking category %q", req.Category))
	}

	lecturerName := req.TeachingLecturer
	if strings.TrimSpace(req.SubstituteSubject) == "" || strings.TrimSpace(lecturerName) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "substitute subject and teaching lecturer are required for SUBSTITUTE_HOUR bookings")
	}

	lecturer, err := b.resolve(fmt.Sprintf("lecturer %q", lecturerName), func() (*models.User, error) {
		return b.directory.FindLecturerByName(ctx, lecturerName)
	})
	if err != nil {
		return nil, err
	}
	// a match without the LECTURER role is treated as not found
	if !lecturer.HasRole(models.RoleLecturer) {
		return nil, appErrors.Clone(appErrors.ErrApproverNotFound, fmt.Sprintf("lecturer %q not found", lecturerName))
	}

	if requester.Cohort == nil || *requester.Cohort == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "requester cohort is not on file; contact an administrator")
	}
	classRep, err := b.resolve("class representative", func() (*models.User, error) {
		return b.directory.FindClassRep(ctx, *requester.DepartmentID, *requester.Cohort)
	})
	if err != nil {
		return nil, err
	}

	return []models.ChainEntry{
		{ApproverID: classRep.ID, Role: models.RoleClassRep},
		{ApproverID: lecturer.ID, Role: models.RoleLecturer},
		headEntry,
	}, nil
}

func (b *ApprovalChainBuilder) resolve(label string, lookup func() (*models.User, error)) (*models.User, error) {
	user, err := lookup()
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrApproverNotFound, label+" not found")
		}
		return nil, appErrors.Internal(err, "failed to resolve "+label)
	}
	return user, nil
}
