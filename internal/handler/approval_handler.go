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

type approvalService interface {
	ListPendingForApprover(ctx context.Context, userID string) ([]models.PendingApproval, error)
	Decide(ctx context.Context, approvalID, actingUserID string, req dto.DecideApprovalRequest) (*dto.DecisionResult, error)
}

// ApprovalHandler exposes the approver's inbox and decisions.
type ApprovalHandler struct {
	service approvalService
}

// NewApprovalHandler builds a new handler.
func NewApprovalHandler(service approvalService) *ApprovalHandler {
	return &ApprovalHandler{service: service}
}

// ListPending godoc
// @Summary List approvals waiting on me
// @Tags Approvals
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /approvals/pending [get]
func (h *ApprovalHandler) ListPending(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	items, err := h.service.ListPendingForApprover(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, map[string]interface{}{"total": len(items)})
}

// Decide godoc
// @Summary Approve or reject
// @Description Records a decision on an approval assigned to the caller
// @Tags Approvals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Approval ID"
// @Param payload body dto.DecideApprovalRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /approvals/{id} [put]
func (h *ApprovalHandler) Decide(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.DecideApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid decision payload"))
		return
	}
	result, err := h.service.Decide(c.Request.Context(), c.Param("id"), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
