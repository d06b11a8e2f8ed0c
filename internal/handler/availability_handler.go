package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/room-booking-api/internal/dto"
	"github.com/noah-isme/room-booking-api/internal/models"
	appErrors "github.com/noah-isme/room-booking-api/pkg/errors"
	"github.com/noah-isme/room-booking-api/pkg/response"
)

type availabilityService interface {
	Available(ctx context.Context, day, start, end string) ([]models.Room, error)
	DailyGrid(ctx context.Context, date string) (*models.DailyGrid, error)
	ListSubjects(ctx context.Context, departmentID, search string) ([]models.Subject, error)
}

// AvailabilityHandler answers room availability queries.
type AvailabilityHandler struct {
	service availabilityService
}

// NewAvailabilityHandler builds a new handler.
func NewAvailabilityHandler(service availabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{service: service}
}

// Available godoc
// @Summary Rooms free of classes
// @Tags Rooms
// @Produce json
// @Security BearerAuth
// @Param day query string true "Weekday (senin..minggu)"
// @Param start query string true "Start HH:MM"
// @Param end query string true "End HH:MM"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /rooms/available [get]
func (h *AvailabilityHandler) Available(c *gin.Context) {
	var query dto.AvailableRoomsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid availability query"))
		return
	}
	rooms, err := h.service.Available(c.Request.Context(), query.Day, query.Start, query.End)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rooms, nil)
}

// DailyGrid godoc
// @Summary Hourly occupancy grid
// @Tags Rooms
// @Produce json
// @Security BearerAuth
// @Param date query string true "Date YYYY-MM-DD"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /rooms/availability [get]
func (h *AvailabilityHandler) DailyGrid(c *gin.Context) {
	var query dto.DailyGridQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid grid query"))
		return
	}
	grid, err := h.service.DailyGrid(c.Request.Context(), query.Date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grid, nil)
}

// Subjects godoc
// @Summary Subjects taught in a department
// @Tags Schedules
// @Produce json
// @Security BearerAuth
// @Param departmentId query string true "Department ID"
// @Param search query string false "Name or code filter"
// @Success 200 {object} response.Envelope
// @Router /schedules/subjects [get]
func (h *AvailabilityHandler) Subjects(c *gin.Context) {
	var query dto.SubjectQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid subject query"))
		return
	}
	subjects, err := h.service.ListSubjects(c.Request.Context(), query.DepartmentID, query.Search)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subjects, nil)
}
