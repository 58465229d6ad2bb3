package file

import (
	"fmt"

	"go-classhub/internal/common/apperr"
	"go-classhub/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Controller struct {
	Service Service
}

func NewController(service Service) *Controller {
	return &Controller{
		Service: service,
	}
}

// Download godoc
// @Summary Download a published file
// @Description Serves an approved file; anonymous access is permitted for current versions
// @Tags files
// @Param id path string true "File ID"
// @Success 200 {file} file "File content"
// @Router /api/files/{id}/download [get]
func (ctrl *Controller) Download(c *fiber.Ctx) error {
	fileID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return apperr.Respond(c, apperr.Validation("invalid file id"))
	}

	reader, f, err := ctrl.Service.DownloadPublished(c.UserContext(), fileID, AccessContext{
		Claims:    middleware.Claims(c),
		IP:        c.IP(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
	})
	if err != nil {
		return apperr.Respond(c, err)
	}

	c.Set(fiber.HeaderContentType, f.MimeType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", f.Name))
	return c.SendStream(reader)
}

// Versions godoc
// @Summary List all versions of a document
// @Tags files
// @Param id path string true "File ID"
// @Success 200 {array} PublishedFile
// @Router /api/files/{id}/versions [get]
func (ctrl *Controller) Versions(c *fiber.Ctx) error {
	fileID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return apperr.Respond(c, apperr.Validation("invalid file id"))
	}

	chain, err := ctrl.Service.Versions(c.UserContext(), fileID)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(chain)
}
