package request

import (
	"fmt"

	"go-classhub/internal/common/apperr"
	"go-classhub/internal/features/audit"
	"go-classhub/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Controller struct {
	Service Service
	Audit   audit.Sink
}

func NewController(service Service, auditSink audit.Sink) *Controller {
	return &Controller{
		Service: service,
		Audit:   auditSink,
	}
}

// Submit godoc
// @Summary Submit an upload request
// @Description Uploads a candidate file into quarantine and creates a pending review request
// @Tags uploads
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "File to upload"
// @Param class_id formData string true "Target class"
// @Param description formData string false "Description"
// @Param based_on_file_id formData string false "File this upload replaces"
// @Success 201 {object} UploadRequest
// @Router /api/uploads [post]
func (ctrl *Controller) Submit(c *fiber.Ctx) error {
	claims := middleware.Claims(c)
	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return apperr.Respond(c, apperr.Validation("file field is required"))
	}

	classID, err := primitive.ObjectIDFromHex(c.FormValue("class_id"))
	if err != nil {
		return apperr.Respond(c, apperr.Validation("invalid class id"))
	}

	var basedOn *primitive.ObjectID
	if raw := c.FormValue("based_on_file_id"); raw != "" {
		oid, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			return apperr.Respond(c, apperr.Validation("invalid based_on_file_id"))
		}
		basedOn = &oid
	}

	payload, err := fileHeader.Open()
	if err != nil {
		return apperr.Respond(c, apperr.Validation("unreadable file payload"))
	}
	defer payload.Close()

	req, err := ctrl.Service.Submit(c.UserContext(), SubmitInput{
		UserID:        userID,
		ClassID:       classID,
		FileName:      fileHeader.Filename,
		MimeType:      fileHeader.Header.Get("Content-Type"),
		Size:          fileHeader.Size,
		Description:   c.FormValue("description"),
		BasedOnFileID: basedOn,
		Payload:       payload,
	})
	if err != nil {
		return apperr.Respond(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(req)
}

// ListMine godoc
// @Summary List own upload requests
// @Tags uploads
// @Produce json
// @Success 200 {array} UploadRequest
// @Router /api/uploads/mine [get]
func (ctrl *Controller) ListMine(c *fiber.Ctx) error {
	claims := middleware.Claims(c)
	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	requests, err := ctrl.Service.ListMine(c.UserContext(), userID)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(requests)
}

// Cancel godoc
// @Summary Cancel a pending upload request
// @Tags uploads
// @Param id path string true "Request ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/uploads/{id} [delete]
func (ctrl *Controller) Cancel(c *fiber.Ctx) error {
	claims := middleware.Claims(c)
	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	requestID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return apperr.Respond(c, apperr.Validation("invalid request id"))
	}

	if err := ctrl.Service.Cancel(c.UserContext(), requestID, userID); err != nil {
		return apperr.Respond(c, err)
	}

	ctrl.Audit.Record(c.UserContext(), userID, audit.ActionCancel, "upload_request", requestID.Hex(),
		"upload request cancelled by requester", nil)

	return c.JSON(fiber.Map{"message": "Upload request cancelled"})
}

// DownloadQuarantined godoc
// @Summary Download the candidate bytes of a pending request
// @Tags uploads
// @Param id path string true "Request ID"
// @Success 200 {file} file "File content"
// @Router /api/uploads/{id}/file [get]
func (ctrl *Controller) DownloadQuarantined(c *fiber.Ctx) error {
	requestID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return apperr.Respond(c, apperr.Validation("invalid request id"))
	}

	reader, req, err := ctrl.Service.DownloadQuarantined(c.UserContext(), requestID, middleware.Claims(c))
	if err != nil {
		return apperr.Respond(c, err)
	}

	c.Set(fiber.HeaderContentType, req.MimeType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", req.FileName))
	return c.SendStream(reader)
}
