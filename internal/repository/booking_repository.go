package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/room-booking-api/internal/models"
	"github.com/noah-isme/room-booking-api/pkg/database"
)

const (
	bookingColumns  = `id, requester_id, room_id, purpose, category, start_at, end_at, status, substitute_subject, teaching_lecturer, created_at, updated_at`
	approvalColumns = `id, booking_id, approver_id, approver_role, status, comment, created_at, updated_at`

	pqForeignKeyViolation       = "23503"
	pqInvalidTextRepresentation = "22P02"
)

// IsForeignKeyViolation reports whether err is a postgres foreign key failure.
func IsForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqForeignKeyViolation
}

// IsInvalidTextRepresentation reports whether postgres rejected a value for its
// column type, such as a non-UUID string compared against a uuid key.
func IsInvalidTextRepresentation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqInvalidTextRepresentation
}

// BookingTxStore is the set of booking and approval writes available inside a
// transaction. Every method sees the writes made earlier in the same
// transaction.
type BookingTxStore interface {
	InsertBooking(ctx context.Context, booking *models.Booking) error
	InsertApprovals(ctx context.Context, approvals []models.Approval) error
	FindApprovalForApprover(ctx context.Context, approvalID, approverID string) (*models.Approval, error)
	LockBooking(ctx context.Context, bookingID string) (*models.Booking, error)
	DecideApproval(ctx context.Context, params DecideApprovalParams) error
	FinalizeBooking(ctx context.Context, bookingID string, status models.BookingStatus, at time.Time) error
	RejectPendingApprovals(ctx context.Context, bookingID, comment string, at time.Time) (int64, error)
	ApprovalStatuses(ctx context.Context, bookingID string) ([]models.ApprovalStatus, error)
}

// DecideApprovalParams groups the columns written by a decision.
type DecideApprovalParams struct {
	ApprovalID string
	ApproverID string
	Status     models.ApprovalStatus
	Comment    *string
	DecidedAt  time.Time
}

// BookingFilter narrows booking listings. Empty fields are ignored.
type BookingFilter struct {
	RequesterID           string
	RequesterDepartmentID string
	TeachingLecturer      string
}

// BookingRepository persists bookings and their approvals.
type BookingRepository struct {
	db        *sqlx.DB
	txTimeout time.Duration
}

// NewBookingRepository constructs the repository. txTimeout bounds every
// transaction started through WithinTx; zero disables the bound.
func NewBookingRepository(db *sqlx.DB, txTimeout time.Duration) *BookingRepository {
	return &BookingRepository{db: db, txTimeout: txTimeout}
}

// WithinTx runs fn in one read-committed transaction. Any error returned by fn
// rolls back every write made through the store.
func (r *BookingRepository) WithinTx(ctx context.Context, fn func(store BookingTxStore) error) error {
	return database.WithTx(ctx, r.db, r.txTimeout, func(tx *sqlx.Tx) error {
		return fn(&bookingTx{tx: tx})
	})
}

// List returns bookings matching the filter, newest first, with approvals attached.
func (r *BookingRepository) List(ctx context.Context, filter BookingFilter) ([]models.BookingDetail, error) {
	builder := strings.Builder{}
	builder.WriteString(`SELECT b.id, b.requester_id, b.room_id, b.purpose, b.category, b.start_at, b.end_at, b.status,
       b.substitute_subject, b.teaching_lecturer, b.created_at, b.updated_at,
       r.code AS room_code, r.name AS room_name, u.full_name AS requester_name
	FROM bookings b
	JOIN rooms r ON r.id = b.room_id
	JOIN users u ON u.id = b.requester_id`)

	args := make([]interface{}, 0, 3)
	conditions := make([]string, 0, 3)
	if filter.RequesterID != "" {
		args = append(args, filter.RequesterID)
		conditions = append(conditions, fmt.Sprintf("b.requester_id = $%d", len(args)))
	}
	if filter.RequesterDepartmentID != "" {
		args = append(args, filter.RequesterDepartmentID)
		conditions = append(conditions, fmt.Sprintf("u.department_id = $%d", len(args)))
	}
	if filter.TeachingLecturer != "" {
		args = append(args, filter.TeachingLecturer)
		conditions = append(conditions, fmt.Sprintf("b.teaching_lecturer = $%d", len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY b.created_at DESC, b.id")

	var bookings []models.BookingDetail
	if err := r.db.SelectContext(ctx, &bookings, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	if len(bookings) == 0 {
		return bookings, nil
	}

	ids := make([]string, len(bookings))
	for i := range bookings {
		ids[i] = bookings[i].ID
	}
	approvals, err := r.listApprovals(ctx, ids)
	if err != nil {
		return nil, err
	}
	byBooking := make(map[string][]models.ApprovalDetail, len(bookings))
	for _, approval := range approvals {
		byBooking[approval.BookingID] = append(byBooking[approval.BookingID], approval)
	}
	for i := range bookings {
		bookings[i].Approvals = byBooking[bookings[i].ID]
		if bookings[i].Approvals == nil {
			bookings[i].Approvals = []models.ApprovalDetail{}
		}
	}
	return bookings, nil
}

func (r *BookingRepository) listApprovals(ctx context.Context, bookingIDs []string) ([]models.ApprovalDetail, error) {
	const query = `SELECT a.id, a.booking_id, a.approver_id, a.approver_role, a.status, a.comment, a.created_at, a.updated_at,
       u.full_name AS approver_name
	FROM approvals a
	JOIN users u ON u.id = a.approver_id
	WHERE a.booking_id = ANY($1)
	ORDER BY a.booking_id, a.created_at, a.id`
	var approvals []models.ApprovalDetail
	if err := r.db.SelectContext(ctx, &approvals, query, pq.Array(bookingIDs)); err != nil {
		return nil, fmt.Errorf("list approvals: %w", err)
	}
	return approvals, nil
}

// ListPendingForApprover returns PENDING approvals assigned to approverID with
// their booking, oldest first.
func (r *BookingRepository) ListPendingForApprover(ctx context.Context, approverID string) ([]models.PendingApproval, error) {
	const query = `SELECT a.id, a.booking_id, a.approver_id, a.approver_role, a.status, a.comment, a.created_at, a.updated_at,
       b.id AS "booking.id", b.requester_id AS "booking.requester_id", b.room_id AS "booking.room_id",
       b.purpose AS "booking.purpose", b.category AS "booking.category", b.start_at AS "booking.start_at",
       b.end_at AS "booking.end_at", b.status AS "booking.status", b.substitute_subject AS "booking.substitute_subject",
       b.teaching_lecturer AS "booking.teaching_lecturer", b.created_at AS "booking.created_at", b.updated_at AS "booking.updated_at",
       r.code AS room_code, r.name AS room_name, u.full_name AS requester_name
	FROM approvals a
	JOIN bookings b ON b.id = a.booking_id
	JOIN rooms r ON r.id = b.room_id
	JOIN users u ON u.id = b.requester_id
	WHERE a.approver_id = $1 AND a.status = 'PENDING'
	ORDER BY a.created_at, a.id`
	var pending []models.PendingApproval
	if err := r.db.SelectContext(ctx, &pending, query, approverID); err != nil {
		return nil, fmt.Errorf("list pending approvals: %w", err)
	}
	return pending, nil
}

// ListActiveBetween returns PENDING or APPROVED bookings intersecting [from, to).
func (r *BookingRepository) ListActiveBetween(ctx context.Context, from, to time.Time) ([]models.Booking, error) {
	const query = `SELECT ` + bookingColumns + ` FROM bookings
	WHERE status IN ('PENDING', 'APPROVED') AND start_at < $2 AND end_at > $1
	ORDER BY room_id, start_at`
	var bookings []models.Booking
	if err := r.db.SelectContext(ctx, &bookings, query, from, to); err != nil {
		return nil, fmt.Errorf("list active bookings: %w", err)
	}
	return bookings, nil
}

// Delete removes a booking; its approvals go with it through ON DELETE CASCADE.
func (r *BookingRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check booking delete rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

type bookingTx struct {
	tx *sqlx.Tx
}

func (s *bookingTx) InsertBooking(ctx context.Context, booking *models.Booking) error {
	const query = `INSERT INTO bookings (` + bookingColumns + `)
	VALUES (:id, :requester_id, :room_id, :purpose, :category, :start_at, :end_at, :status, :substitute_subject, :teaching_lecturer, :created_at, :updated_at)`
	if _, err := s.tx.NamedExecContext(ctx, query, booking); err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

func (s *bookingTx) InsertApprovals(ctx context.Context, approvals []models.Approval) error {
	if len(approvals) == 0 {
		return nil
	}
	const query = `INSERT INTO approvals (` + approvalColumns + `)
	VALUES (:id, :booking_id, :approver_id, :approver_role, :status, :comment, :created_at, :updated_at)`
	if _, err := s.tx.NamedExecContext(ctx, query, approvals); err != nil {
		return fmt.Errorf("insert approvals: %w", err)
	}
	return nil
}

func (s *bookingTx) FindApprovalForApprover(ctx context.Context, approvalID, approverID string) (*models.Approval, error) {
	const query = `SELECT ` + approvalColumns + ` FROM approvals WHERE id = $1 AND approver_id = $2`
	var approval models.Approval
	if err := s.tx.GetContext(ctx, &approval, query, approvalID, approverID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find approval: %w", err)
	}
	return &approval, nil
}

// LockBooking takes the row lock that serialises every decision on a booking.
func (s *bookingTx) LockBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	const query = `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1 FOR UPDATE`
	var booking models.Booking
	if err := s.tx.GetContext(ctx, &booking, query, bookingID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("lock booking: %w", err)
	}
	return &booking, nil
}

// DecideApproval moves a PENDING approval owned by the approver to its final
// status. sql.ErrNoRows means the row was not pending or not theirs.
func (s *bookingTx) DecideApproval(ctx context.Context, params DecideApprovalParams) error {
	const query = `UPDATE approvals SET status = $3, comment = $4, updated_at = $5
	WHERE id = $1 AND approver_id = $2 AND status = 'PENDING'`
	result, err := s.tx.ExecContext(ctx, query, params.ApprovalID, params.ApproverID, params.Status, params.Comment, params.DecidedAt)
	if err != nil {
		return fmt.Errorf("decide approval: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check approval update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// FinalizeBooking moves a PENDING booking to a terminal status.
func (s *bookingTx) FinalizeBooking(ctx context.Context, bookingID string, status models.BookingStatus, at time.Time) error {
	const query = `UPDATE bookings SET status = $2, updated_at = $3 WHERE id = $1 AND status = 'PENDING'`
	result, err := s.tx.ExecContext(ctx, query, bookingID, status, at)
	if err != nil {
		return fmt.Errorf("finalize booking: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check booking update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *bookingTx) RejectPendingApprovals(ctx context.Context, bookingID, comment string, at time.Time) (int64, error) {
	const query = `UPDATE approvals SET status = 'REJECTED', comment = $2, updated_at = $3
	WHERE booking_id = $1 AND status = 'PENDING'`
	result, err := s.tx.ExecContext(ctx, query, bookingID, comment, at)
	if err != nil {
		return 0, fmt.Errorf("reject pending approvals: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check approval cascade rows: %w", err)
	}
	return rows, nil
}

func (s *bookingTx) ApprovalStatuses(ctx context.Context, bookingID string) ([]models.ApprovalStatus, error) {
	const query = `SELECT status FROM approvals WHERE booking_id = $1`
	var statuses []models.ApprovalStatus
	if err := s.tx.SelectContext(ctx, &statuses, query, bookingID); err != nil {
		return nil, fmt.Errorf("list approval statuses: %w", err)
	}
	return statuses, nil
}
