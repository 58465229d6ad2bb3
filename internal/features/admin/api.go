package admin

import (
	"go-classhub/internal/common/api"
	"go-classhub/internal/config"
	"go-classhub/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type Api struct {
	controller *Controller
	config     *config.Config
}

func NewApi(controller *Controller, config *config.Config) api.Route {
	return &Api{
		controller: controller,
		config:     config,
	}
}

func (h *Api) Setup(app *fiber.App) {
	group := app.Group("/api/admin",
		middleware.AuthMiddleware(h.config.SkipAuth),
		middleware.AdminMiddleware())

	group.Get("/uploads/pending", h.controller.Pending)
	group.Get("/uploads/export", h.controller.Export)
	group.Post("/uploads/:id/approve", h.controller.Approve)
	group.Post("/uploads/:id/reject", h.controller.Reject)
	group.Get("/audit", h.controller.AuditLogs)
	group.Get("/files/:id/access-log", h.controller.FileAccessLog)
}
