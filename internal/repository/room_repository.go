package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/room-booking-api/internal/models"
)

// RoomRepository reads the room catalogue.
type RoomRepository struct {
	db *sqlx.DB
}

// NewRoomRepository constructs the repository.
func NewRoomRepository(db *sqlx.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// List returns every room ordered by code.
func (r *RoomRepository) List(ctx context.Context) ([]models.Room, error) {
	const query = `SELECT id, code, name, kind FROM rooms ORDER BY code`
	var rooms []models.Room
	if err := r.db.SelectContext(ctx, &rooms, query); err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return rooms, nil
}

// ListFreeOfClasses returns rooms with no class schedule on day overlapping the
// closed-open interval [start, end). Times are zero-padded HH:MM strings, so
// lexical comparison matches chronological order.
func (r *RoomRepository) ListFreeOfClasses(ctx context.Context, day, start, end string) ([]models.Room, error) {
	const query = `SELECT id, code, name, kind FROM rooms
	WHERE id NOT IN (
		SELECT room_id FROM class_schedules
		WHERE day = $1 AND NOT (end_time <= $2 OR start_time >= $3)
	)
	ORDER BY code`
	var rooms []models.Room
	if err := r.db.SelectContext(ctx, &rooms, query, day, start, end); err != nil {
		return nil, fmt.Errorf("list available rooms: %w", err)
	}
	return rooms, nil
}
