package request

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
	group := app.Group("/api/uploads", middleware.AuthMiddleware(h.config.SkipAuth))

	group.Post("/", h.controller.Submit)
	group.Get("/mine", h.controller.ListMine)
	group.Delete("/:id", h.controller.Cancel)
	group.Get("/:id/file", h.controller.DownloadQuarantined)
}
