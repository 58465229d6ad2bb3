package file

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
	// Downloads allow anonymous callers; claims are parsed when present so
	// the access log can attribute the download.
	app.Get("/api/files/:id/download", middleware.OptionalAuthMiddleware(), h.controller.Download)

	app.Get("/api/files/:id/versions",
		middleware.AuthMiddleware(h.config.SkipAuth),
		middleware.AdminMiddleware(),
		h.controller.Versions)
}
