package notification

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
	group := app.Group("/api/notifications", middleware.AuthMiddleware(h.config.SkipAuth))

	group.Get("/", h.controller.List)
	group.Get("/unread-count", h.controller.UnreadCount)
	group.Patch("/read-all", h.controller.MarkAllAsRead)
	group.Patch("/:id/read", h.controller.MarkAsRead)
}
