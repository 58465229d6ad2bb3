package notification

import (
	"strconv"

	"go-classhub/internal/common/apperr"
	"go-classhub/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Controller struct {
	Repo Repository
}

func NewController(repo Repository) *Controller {
	return &Controller{
		Repo: repo,
	}
}

// List godoc
// @Summary List own notifications
// @Tags notifications
// @Produce json
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(10)
// @Success 200 {object} map[string]interface{}
// @Router /api/notifications [get]
func (ctrl *Controller) List(c *fiber.Ctx) error {
	userID, err := primitive.ObjectIDFromHex(middleware.Claims(c).UserID)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	page, _ := strconv.ParseInt(c.Query("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(c.Query("limit", "10"), 10, 64)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	notifications, total, err := ctrl.Repo.GetByUserID(c.UserContext(), userID, page, limit)
	if err != nil {
		return apperr.Respond(c, err)
	}

	return c.JSON(fiber.Map{
		"data":  notifications,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// UnreadCount godoc
// @Summary Count unread notifications
// @Tags notifications
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/notifications/unread-count [get]
func (ctrl *Controller) UnreadCount(c *fiber.Ctx) error {
	userID, err := primitive.ObjectIDFromHex(middleware.Claims(c).UserID)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	count, err := ctrl.Repo.GetUnreadCount(c.UserContext(), userID)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(fiber.Map{"count": count})
}

// MarkAsRead godoc
// @Summary Mark a notification as read
// @Tags notifications
// @Param id path string true "Notification ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/notifications/{id}/read [patch]
func (ctrl *Controller) MarkAsRead(c *fiber.Ctx) error {
	userID, err := primitive.ObjectIDFromHex(middleware.Claims(c).UserID)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	id, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return apperr.Respond(c, apperr.Validation("invalid notification id"))
	}

	if err := ctrl.Repo.MarkAsRead(c.UserContext(), id, userID); err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(fiber.Map{"status": "success"})
}

// MarkAllAsRead godoc
// @Summary Mark all notifications as read
// @Tags notifications
// @Success 200 {object} map[string]interface{}
// @Router /api/notifications/read-all [patch]
func (ctrl *Controller) MarkAllAsRead(c *fiber.Ctx) error {
	userID, err := primitive.ObjectIDFromHex(middleware.Claims(c).UserID)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	if err := ctrl.Repo.MarkAllAsRead(c.UserContext(), userID); err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(fiber.Map{"status": "success"})
}
