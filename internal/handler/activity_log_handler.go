package handler

import (
	"strings"

	"go-inventory-ledger/internal/middleware"
	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ActivityLogHandler struct {
	activity service.ActivityLogService
}

func NewActivityLogHandler(activity service.ActivityLogService) *ActivityLogHandler {
	return &ActivityLogHandler{activity: activity}
}

// GetActivityLogs lists audit entries newest first
// GET /api/activity-logs?user_id=&action_type=&table_name=&record_id=&start_date=&end_date=&limit=&offset=
func (h *ActivityLogHandler) GetActivityLogs(c *fiber.Ctx) error {
	userID, err := queryUint(c, "user_id")
	if err != nil {
		return err
	}
	recordID, err := queryUint(c, "record_id")
	if err != nil {
		return err
	}

	filter := repository.ActivityLogFilter{
		UserID:     userID,
		ActionType: model.ActionType(strings.ToUpper(c.Query("action_type"))),
		Entity:     c.Query("table_name"),
		RecordID:   recordID,
		StartDate:  c.Query("start_date"),
		EndDate:    c.Query("end_date"),
		Limit:      queryInt(c, "limit", 100),
		Offset:     queryInt(c, "offset", 0),
	}

	page, err := h.activity.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    page.Logs,
		"count":   len(page.Logs),
		"total":   page.Total,
	})
}

// GetUserActivityLogs lists one user's audit entries. Users may read their
// own history; anyone else needs the activity log privilege.
// GET /api/activity-logs/user/:userId?limit=
func (h *ActivityLogHandler) GetUserActivityLogs(c *fiber.Ctx) error {
	userID, err := paramID(c, "userId")
	if err != nil {
		return err
	}
	if userID != middleware.UserID(c) && !middleware.HasPrivilege(c, model.PrivActivityLogView) {
		return service.Forbidden("can only view your own activity")
	}

	page, err := h.activity.List(c.UserContext(), repository.ActivityLogFilter{
		UserID: &userID,
		Limit:  queryInt(c, "limit", 100),
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    page.Logs,
		"count":   len(page.Logs),
		"total":   page.Total,
	})
}
