package main

import (
	"context"
	"fmt"
	"log"
	"time"

	common_api "go-classhub/internal/common/api"
	"go-classhub/internal/common/apperr"
	"go-classhub/internal/config"
	"go-classhub/internal/database"
	"go-classhub/internal/features/accesslog"
	"go-classhub/internal/features/admin"
	"go-classhub/internal/features/approval"
	"go-classhub/internal/features/audit"
	"go-classhub/internal/features/class"
	"go-classhub/internal/features/file"
	"go-classhub/internal/features/notification"
	"go-classhub/internal/features/request"
	"go-classhub/internal/features/storage"
	"go-classhub/internal/features/sweeper"
	"go-classhub/internal/logger"
	"go-classhub/internal/middleware"
	"go-classhub/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// NewFiberServer creates the Fiber app. Errors that escape a handler are
// rendered through the shared taxonomy so every route reports failures the
// same way.
func NewFiberServer(cfg *config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		BodyLimit:             int(cfg.MaxUploadBytes()) + 1<<20,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if apperr.KindOf(err) != "" {
				return apperr.Respond(c, err)
			}
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(middleware.CORSMiddleware())

	return app
}

// AsRoute tags a constructor so Fx adds its result to the "routes" group.
func AsRoute(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(common_api.Route)),
		fx.ResultTags(`group:"routes"`),
	)
}

// RegisterAllRoutes takes the "routes" group and calls Setup() on each one.
func RegisterAllRoutes(app *fiber.App, routes []common_api.Route) {
	for _, route := range routes {
		route.Setup(app)
	}
}

var RegisterAllRoutesWithAnnotation = fx.Annotate(
	RegisterAllRoutes,
	fx.ParamTags(``, `group:"routes"`),
)

// StartServer starts Fiber in a goroutine and shuts it down when the app
// exits.
func StartServer(lc fx.Lifecycle, app *fiber.App, cfg *config.Config) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			utils.SetSecret(cfg.JWTSecret)
			go func() {
				port := fmt.Sprintf(":%s", cfg.Port)
				if err := app.Listen(port); err != nil {
					log.Fatalf("Server failed to start: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.Shutdown()
		},
	})
}

// InitializeIndexes creates the duplicate-pending backstop indexes on boot.
func InitializeIndexes(lc fx.Lifecycle, requestRepo request.Repository, zlog *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				if err := requestRepo.EnsureIndexes(ctx); err != nil {
					zlog.Error("ensuring upload request indexes", zap.Error(err))
				}
			}()
			return nil
		},
	})
}

// StartSweeper ties the orphan sweeper to the app lifecycle.
func StartSweeper(lc fx.Lifecycle, s *sweeper.Sweeper) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return s.Start()
		},
		OnStop: func(ctx context.Context) error {
			s.Stop()
			return nil
		},
	})
}

func main() {
	app := fx.New(
		fx.Provide(
			// Load Config
			config.LoadConfig,

			// Initialize Logger
			logger.NewLogger,

			// Initialize Fiber Server
			NewFiberServer,

			// Initialize Database
			database.NewDatabase,
			database.NewTxRunner,

			// Storage areas
			storage.NewAreaManager,

			// Initialize Repository
			request.NewRepository,
			file.NewRepository,
			class.NewRegistry,
			notification.NewRepository,
			accesslog.NewRepository,
			audit.NewRepository,

			// Initialize Service
			accesslog.NewRecorder,
			audit.NewSink,
			request.NewService,
			file.NewService,
			approval.NewService,
			admin.NewReviewService,
			sweeper.NewSweeper,

			// Interface adapters
			func(r file.Repository) request.FileFinder { return r },

			// Initialize Controller
			request.NewController,
			file.NewController,
			notification.NewController,
			admin.NewController,

			// Initialize API Routes
			AsRoute(request.NewApi),
			AsRoute(file.NewApi),
			AsRoute(notification.NewApi),
			AsRoute(admin.NewApi),
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(
			RegisterAllRoutesWithAnnotation,
			StartServer,
			StartSweeper,
			InitializeIndexes,
		),
	)

	app.Run()
}
