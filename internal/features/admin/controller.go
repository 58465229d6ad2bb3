package admin

import (
	"fmt"
	"strconv"

	"go-classhub/internal/common/apperr"
	"go-classhub/internal/features/accesslog"
	"go-classhub/internal/features/approval"
	"go-classhub/internal/features/audit"
	"go-classhub/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Controller struct {
	Review   ReviewService
	Approval approval.Service
	Audit    audit.Sink
	Access   accesslog.Repository
}

func NewController(review ReviewService, approvalSvc approval.Service, auditSink audit.Sink, access accesslog.Repository) *Controller {
	return &Controller{
		Review:   review,
		Approval: approvalSvc,
		Audit:    auditSink,
		Access:   access,
	}
}

type rejectBody struct {
	Reason string `json:"reason"`
}

// Pending godoc
// @Summary List pending upload requests for review
// @Tags admin
// @Produce json
// @Success 200 {array} request.ReviewItem
// @Router /api/admin/uploads/pending [get]
func (ctrl *Controller) Pending(c *fiber.Ctx) error {
	items, err := ctrl.Review.PendingReview(c.UserContext())
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(items)
}

// Approve godoc
// @Summary Approve a pending upload request
// @Tags admin
// @Param id path string true "Request ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/admin/uploads/{id}/approve [post]
func (ctrl *Controller) Approve(c *fiber.Ctx) error {
	adminID, err := primitive.ObjectIDFromHex(middleware.Claims(c).UserID)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	requestID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return apperr.Respond(c, apperr.Validation("invalid request id"))
	}

	fileID, err := ctrl.Approval.Approve(c.UserContext(), requestID, adminID)
	if err != nil {
		return apperr.Respond(c, err)
	}

	ctrl.Audit.Record(c.UserContext(), adminID, audit.ActionApprove, "upload_request", requestID.Hex(),
		"upload request approved", map[string]any{"file_id": fileID.Hex()})

	return c.JSON(fiber.Map{
		"message": "Upload request approved",
		"file_id": fileID.Hex(),
	})
}

// Reject godoc
// @Summary Reject a pending upload request
// @Tags admin
// @Param id path string true "Request ID"
// @Param body body rejectBody true "Rejection reason"
// @Success 200 {object} map[string]interface{}
// @Router /api/admin/uploads/{id}/reject [post]
func (ctrl *Controller) Reject(c *fiber.Ctx) error {
	adminID, err := primitive.ObjectIDFromHex(middleware.Claims(c).UserID)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	requestID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return apperr.Respond(c, apperr.Validation("invalid request id"))
	}

	var body rejectBody
	if err := c.BodyParser(&body); err != nil {
		return apperr.Respond(c, apperr.Validation("invalid request body"))
	}

	if err := ctrl.Approval.Reject(c.UserContext(), requestID, adminID, body.Reason); err != nil {
		return apperr.Respond(c, err)
	}

	ctrl.Audit.Record(c.UserContext(), adminID, audit.ActionReject, "upload_request", requestID.Hex(),
		"upload request rejected", map[string]any{"reason": body.Reason})

	return c.JSON(fiber.Map{"message": "Upload request rejected"})
}

// Export godoc
// @Summary Export the upload request history as xlsx
// @Tags admin
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param page query int false "Page" default(1)
// @Param limit query int false "Rows per page" default(500)
// @Router /api/admin/uploads/export [get]
func (ctrl *Controller) Export(c *fiber.Ctx) error {
	page, _ := strconv.ParseInt(c.Query("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(c.Query("limit", "500"), 10, 64)

	data, filename, err := ctrl.Review.ExportRequests(c.UserContext(), page, limit)
	if err != nil {
		return apperr.Respond(c, err)
	}

	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Send(data)
}

// AuditLogs godoc
// @Summary List audit records of review decisions
// @Tags admin
// @Produce json
// @Param action query string false "Filter by action"
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(20)
// @Success 200 {array} audit.Record
// @Router /api/admin/audit [get]
func (ctrl *Controller) AuditLogs(c *fiber.Ctx) error {
	page, _ := strconv.ParseInt(c.Query("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(c.Query("limit", "20"), 10, 64)

	filters := map[string]interface{}{}
	if action := c.Query("action"); action != "" {
		filters["action"] = action
	}

	records, err := ctrl.Audit.ListLogs(c.UserContext(), filters, page, limit)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(records)
}

// FileAccessLog godoc
// @Summary List download records of a published file
// @Tags admin
// @Produce json
// @Param id path string true "File ID"
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(50)
// @Success 200 {array} accesslog.Entry
// @Router /api/admin/files/{id}/access-log [get]
func (ctrl *Controller) FileAccessLog(c *fiber.Ctx) error {
	fileID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return apperr.Respond(c, apperr.Validation("invalid file id"))
	}

	page, _ := strconv.ParseInt(c.Query("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(c.Query("limit", "50"), 10, 64)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 500 {
		limit = 50
	}

	entries, err := ctrl.Access.ListByFile(c.UserContext(), fileID, limit, (page-1)*limit)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(entries)
}
