package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/room-booking-api/internal/dto"
	"github.com/noah-isme/room-booking-api/internal/models"
	"github.com/noah-isme/room-booking-api/internal/repository"
	appErrors "github.com/noah-isme/room-booking-api/pkg/errors"
)

const (
	bookingResource  = "booking"
	approvalResource = "approval"
)

type bookingStore interface {
	WithinTx(ctx context.Context, fn func(store repository.BookingTxStore) error) error
	List(ctx context.Context, filter repository.BookingFilter) ([]models.BookingDetail, error)
	ListPendingForApprover(ctx context.Context, approverID string) ([]models.PendingApproval, error)
	Delete(ctx context.Context, id string) error
}

type userDirectory interface {
	approverDirectory
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// BookingService runs the booking and approval state machine.
type BookingService struct {
	repo      bookingStore
	users     userDirectory
	chain     *ApprovalChainBuilder
	audit     auditLogger
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// BookingServiceOption configures the service.
type BookingServiceOption func(*BookingService)

// WithBookingCache invalidates cached availability grids after every write.
func WithBookingCache(cache *CacheService) BookingServiceOption {
	return func(s *BookingService) {
		s.cache = cache
	}
}

// WithBookingMetrics records transitions and transaction timings.
func WithBookingMetrics(metrics *MetricsService) BookingServiceOption {
	return func(s *BookingService) {
		s.metrics = metrics
	}
}

// WithBookingClock overrides the time source.
func WithBookingClock(now func() time.Time) BookingServiceOption {
	return func(s *BookingService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewBookingService constructs the service.
func NewBookingService(repo bookingStore, users userDirectory, audit auditLogger, validate *validator.Validate, logger *zap.Logger, opts ...BookingServiceOption) *BookingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	svc := &BookingService{
		repo:      repo,
		users:     users,
		chain:     NewApprovalChainBuilder(users),
		audit:     audit,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// Create validates the request, resolves the approval chain and stores the
// booking with one PENDING approval per approver in a single transaction.
func (s *BookingService) Create(ctx context.Context, req dto.CreateBookingRequest, requesterID string) (*dto.BookingCreated, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid booking payload")
	}
	if req.StartAt.IsZero() || req.EndAt.IsZero() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_at and end_at are required")
	}
	if !req.EndAt.After(req.StartAt) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_at must be after start_at")
	}
	purpose := strings.TrimSpace(req.Purpose)
	if req.Category == models.BookingCategoryOther && purpose == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "purpose is required for OTHER bookings")
	}

	requester, err := s.users.FindByID(ctx, requesterID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "requester not found")
		}
		return nil, appErrors.Internal(err, "failed to load requester")
	}

	chain, err := s.chain.Build(ctx, ChainRequest{
		Category:          req.Category,
		Requester:         requester,
		SubstituteSubject: req.SubstituteSubject,
		TeachingLecturer:  req.TeachingLecturer,
	})
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	booking := models.Booking{
		ID:          uuid.NewString(),
		RequesterID: requester.ID,
		RoomID:      req.RoomID,
		Purpose:     optionalString(purpose),
		Category:    req.Category,
		StartAt:     req.StartAt.UTC(),
		EndAt:       req.EndAt.UTC(),
		Status:      models.BookingStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.Category == models.BookingCategorySubstituteHour {
		booking.SubstituteSubject = optionalString(strings.TrimSpace(req.SubstituteSubject))
		booking.TeachingLecturer = optionalString(req.TeachingLecturer)
	}
	approvals := make([]models.Approval, len(chain))
	for i, entry := range chain {
		approvals[i] = models.Approval{
			ID:           uuid.NewString(),
			BookingID:    booking.ID,
			ApproverID:   entry.ApproverID,
			ApproverRole: entry.Role,
			Status:       models.ApprovalStatusPending,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
	}

	started := time.Now()
	err = s.repo.WithinTx(ctx, func(store repository.BookingTxStore) error {
		if err := store.InsertBooking(ctx, &booking); err != nil {
			return err
		}
		return store.InsertApprovals(ctx, approvals)
	})
	s.metrics.ObserveTransaction("create_booking", err, time.Since(started))
	if err != nil {
		if repository.IsForeignKeyViolation(err) || repository.IsInvalidTextRepresentation(err) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown room")
		}
		return nil, appErrors.Internal(err, "failed to create booking")
	}

	s.metrics.RecordBookingTransition(models.BookingStatusPending)
	s.logger.Info("booking created",
		zap.String("booking_id", booking.ID),
		zap.String("requester_id", requester.ID),
		zap.String("category", string(booking.Category)),
		zap.Int("approvers", len(approvals)),
	)
	s.emitAudit(ctx, requester.ID, models.AuditActionBookingCreate, bookingResource, booking.ID, map[string]interface{}{
		"room_id":   booking.RoomID,
		"category":  booking.Category,
		"start_at":  booking.StartAt,
		"end_at":    booking.EndAt,
		"approvers": chain,
	})
	s.invalidateAvailability(ctx)

	return &dto.BookingCreated{Booking: booking, Approvals: approvals}, nil
}

// Decide records an approver's decision. A rejection finalises the booking
// and rejects every other pending approval; an approval finalises it only once
// every approval is APPROVED. All of it happens in one transaction.
func (s *BookingService) Decide(ctx context.Context, approvalID, actingUserID string, req dto.DecideApprovalRequest) (*dto.DecisionResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "decision must be APPROVED or REJECTED")
	}
	if approvalID == "" || actingUserID == "" {
		return nil, appErrors.ErrForbiddenOrNotFound
	}
	if _, err := uuid.Parse(approvalID); err != nil {
		return nil, appErrors.ErrForbiddenOrNotFound
	}

	comment := optionalString(strings.TrimSpace(req.Comment))
	var (
		result    dto.DecisionResult
		finalized models.BookingStatus
		cascaded  int64
	)

	started := time.Now()
	err := s.repo.WithinTx(ctx, func(store repository.BookingTxStore) error {
		approval, err := store.FindApprovalForApprover(ctx, approvalID, actingUserID)
		if err != nil {
			return notFoundAsForbidden(err)
		}
		// lock the parent first so concurrent decisions on one booking queue up
		booking, err := store.LockBooking(ctx, approval.BookingID)
		if err != nil {
			return notFoundAsForbidden(err)
		}

		now := s.now().UTC()
		if err := store.DecideApproval(ctx, repository.DecideApprovalParams{
			ApprovalID: approvalID,
			ApproverID: actingUserID,
			Status:     req.Decision,
			Comment:    comment,
			DecidedAt:  now,
		}); err != nil {
			return notFoundAsForbidden(err)
		}
		approval.Status = req.Decision
		approval.Comment = comment
		approval.UpdatedAt = now

		switch req.Decision {
		case models.ApprovalStatusRejected:
			if booking.Status == models.BookingStatusPending {
				if err := store.FinalizeBooking(ctx, booking.ID, models.BookingStatusRejected, now); err != nil {
					return err
				}
				finalized = models.BookingStatusRejected
			}
			cascaded, err = store.RejectPendingApprovals(ctx, booking.ID, cascadeComment(approval.ApproverRole, comment), now)
			if err != nil {
				return err
			}
		case models.ApprovalStatusApproved:
			statuses, err := store.ApprovalStatuses(ctx, booking.ID)
			if err != nil {
				return err
			}
			if booking.Status == models.BookingStatusPending && models.AggregateStatus(statuses) == models.BookingStatusApproved {
				if err := store.FinalizeBooking(ctx, booking.ID, models.BookingStatusApproved, now); err != nil {
					return err
				}
				finalized = models.BookingStatusApproved
			}
		}
		if finalized != "" {
			booking.Status = finalized
			booking.UpdatedAt = now
		}

		result = dto.DecisionResult{Approval: *approval, Booking: *booking}
		return nil
	})
	s.metrics.ObserveTransaction("decide_approval", err, time.Since(started))
	if err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, appErrors.Internal(err, "failed to record decision")
	}

	s.logger.Info("approval decided",
		zap.String("approval_id", approvalID),
		zap.String("booking_id", result.Booking.ID),
		zap.String("approver_id", actingUserID),
		zap.String("decision", string(req.Decision)),
		zap.Int64("cascaded", cascaded),
	)
	if finalized != "" {
		s.metrics.RecordBookingTransition(finalized)
		s.logger.Info("booking finalized", zap.String("booking_id", result.Booking.ID), zap.String("status", string(finalized)))
	}
	s.emitAudit(ctx, actingUserID, models.AuditActionApprovalDecide, approvalResource, approvalID, map[string]interface{}{
		"booking_id":     result.Booking.ID,
		"decision":       req.Decision,
		"comment":        comment,
		"booking_status": result.Booking.Status,
	})
	s.invalidateAvailability(ctx)

	return &result, nil
}

// ListPendingForApprover returns the approvals waiting on userID.
func (s *BookingService) ListPendingForApprover(ctx context.Context, userID string) ([]models.PendingApproval, error) {
	pending, err := s.repo.ListPendingForApprover(ctx, userID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list pending approvals")
	}
	if pending == nil {
		pending = []models.PendingApproval{}
	}
	return pending, nil
}

// List returns the bookings visible to actor. Roles are checked in order:
// ADMIN sees everything, LECTURER sees bookings naming them as teaching
// lecturer, DEPT_HEAD and CLASS_REP see bookings requested from their
// department. Anyone else is refused.
func (s *BookingService) List(ctx context.Context, actor *models.JWTClaims) ([]models.BookingDetail, error) {
	filter, err := visibilityFilter(actor)
	if err != nil {
		return nil, err
	}
	if filter == nil {
		return []models.BookingDetail{}, nil
	}
	return s.list(ctx, *filter)
}

// ListMine returns the bookings requested by requesterID, newest first.
func (s *BookingService) ListMine(ctx context.Context, requesterID string) ([]models.BookingDetail, error) {
	if requesterID == "" {
		return nil, appErrors.ErrUnauthorized
	}
	return s.list(ctx, repository.BookingFilter{RequesterID: requesterID})
}

// Delete removes a booking and its approvals. Only administrators may delete.
func (s *BookingService) Delete(ctx context.Context, bookingID string, actor *models.JWTClaims) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	if !actor.HasRole(models.RoleAdmin) {
		return appErrors.Clone(appErrors.ErrForbidden, "only administrators can delete bookings")
	}
	if _, err := uuid.Parse(bookingID); err != nil {
		return appErrors.Clone(appErrors.ErrNotFound, "booking not found")
	}
	if err := s.repo.Delete(ctx, bookingID); err != nil {
		if errors.Is(err, sql.ErrNoRows) || repository.IsInvalidTextRepresentation(err) {
			return appErrors.Clone(appErrors.ErrNotFound, "booking not found")
		}
		return appErrors.Internal(err, "failed to delete booking")
	}
	s.logger.Info("booking deleted", zap.String("booking_id", bookingID), zap.String("actor_id", actor.UserID))
	s.emitAudit(ctx, actor.UserID, models.AuditActionBookingDelete, bookingResource, bookingID, nil)
	s.invalidateAvailability(ctx)
	return nil
}

func (s *BookingService) list(ctx context.Context, filter repository.BookingFilter) ([]models.BookingDetail, error) {
	bookings, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list bookings")
	}
	if bookings == nil {
		bookings = []models.BookingDetail{}
	}
	return bookings, nil
}

// visibilityFilter maps the actor's roles to a listing filter. A nil filter
// with no error means the actor may list but nothing can match.
func visibilityFilter(actor *models.JWTClaims) (*repository.BookingFilter, error) {
	switch {
	case actor == nil:
		return nil, appErrors.ErrUnauthorized
	case actor.HasRole(models.RoleAdmin):
		return &repository.BookingFilter{}, nil
	case actor.HasRole(models.RoleLecturer):
		if actor.FullName == "" {
			return nil, nil
		}
		return &repository.BookingFilter{TeachingLecturer: actor.FullName}, nil
	case models.HasAnyRole(actor.Roles, models.RoleDeptHead, models.RoleClassRep):
		if actor.DepartmentID == nil || *actor.DepartmentID == "" {
			return nil, nil
		}
		return &repository.BookingFilter{RequesterDepartmentID: *actor.DepartmentID}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrForbidden, "your role cannot list bookings")
	}
}

func cascadeComment(role models.UserRole, original *string) string {
	comment := fmt.Sprintf("Automatically rejected: %s rejected this booking", role)
	if original != nil && *original != "" {
		comment += ` ("` + *original + `")`
	}
	return comment
}

func notFoundAsForbidden(err error) error {
	if errors.Is(err, sql.ErrNoRows) || repository.IsInvalidTextRepresentation(err) {
		return appErrors.ErrForbiddenOrNotFound
	}
	return err
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func (s *BookingService) invalidateAvailability(ctx context.Context) {
	s.cache.InvalidateGrids(ctx)
}

func (s *BookingService) emitAudit(ctx context.Context, actorID, action, resource, resourceID string, payload map[string]interface{}) {
	if s.audit == nil {
		return
	}
	var newValues []byte
	if payload != nil {
		newValues, _ = json.Marshal(payload)
	}
	log := &models.AuditLog{
		UserID:     &actorID,
		Action:     action,
		Resource:   resource,
		ResourceID: &resourceID,
		NewValues:  newValues,
		IPAddress:  "system",
		UserAgent:  "booking-service",
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to record booking audit", zap.String("action", action), zap.Error(err))
	}
}
