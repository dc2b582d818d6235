package handler

import (
	"errors"

	"go-inventory-ledger/internal/middleware"
	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cast"
	"go.uber.org/zap"
)

var statusByKind = map[service.ErrorKind]int{
	service.KindInvalidInput:       fiber.StatusBadRequest,
	service.KindInsufficientStock:  fiber.StatusBadRequest,
	service.KindInvariantViolation: fiber.StatusBadRequest,
	service.KindNotFound:           fiber.StatusNotFound,
	service.KindConflict:           fiber.StatusConflict,
	service.KindUnauthorized:       fiber.StatusUnauthorized,
	service.KindForbidden:          fiber.StatusForbidden,
	service.KindStoreFailure:       fiber.StatusInternalServerError,
}

// ErrorHandler renders every error returned by a handler as
// {"success": false, "error": ..., "code": ...}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{
			"success": false,
			"error":   fe.Message,
			"code":    fe.Code,
		})
	}

	var appErr *service.AppError
	if !errors.As(err, &appErr) {
		appErr = service.StoreFailure(err)
	}
	status, ok := statusByKind[appErr.Kind]
	if !ok {
		status = fiber.StatusInternalServerError
	}

	body := fiber.Map{
		"success": false,
		"error":   appErr.Error(),
		"code":    appErr.Kind,
	}
	if appErr.Kind == service.KindInsufficientStock {
		body["current_stock"] = appErr.CurrentStock
		body["requested"] = appErr.Requested
		body["unit"] = appErr.Unit
	}
	if status >= fiber.StatusInternalServerError {
		zap.L().Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err))
		// store details stay in the log
		body["error"] = "internal server error"
	}
	return c.Status(status).JSON(body)
}

func ok(c *fiber.Ctx, data interface{}) error {
	return c.JSON(fiber.Map{"success": true, "data": data})
}

func okList(c *fiber.Ctx, data interface{}, count int) error {
	return c.JSON(fiber.Map{"success": true, "data": data, "count": count})
}

func created(c *fiber.Ctx, message string, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "message": message, "data": data})
}

func message(c *fiber.Ctx, msg string) error {
	return c.JSON(fiber.Map{"success": true, "message": msg})
}

func parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return service.InvalidInput("invalid JSON body")
	}
	return nil
}

// paramID reads a positive numeric route parameter.
func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := cast.ToUintE(c.Params(name))
	if err != nil || id == 0 {
		return 0, service.InvalidInput("invalid %s", name)
	}
	return id, nil
}

// queryInt reads an integer query parameter, def when absent or malformed.
func queryInt(c *fiber.Ctx, name string, def int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	n, err := cast.ToIntE(raw)
	if err != nil {
		return def
	}
	return n
}

// queryUint reads an optional positive id from the query string.
func queryUint(c *fiber.Ctx, name string) (*uint, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	id, err := cast.ToUintE(raw)
	if err != nil || id == 0 {
		return nil, service.InvalidInput("invalid %s", name)
	}
	return &id, nil
}

// auditor writes activity log entries for successful mutations.
type auditor struct {
	activity service.ActivityLogService
}

func (a auditor) record(c *fiber.Ctx, action model.ActionType, entity string, recordID uint, oldData, newData interface{}) {
	if a.activity == nil {
		return
	}
	entry := service.ActivityEntry{
		ActionType: action,
		Entity:     entity,
		OldData:    oldData,
		NewData:    newData,
		IPAddress:  c.IP(),
		UserAgent:  c.Get(fiber.HeaderUserAgent),
	}
	if uid := middleware.UserID(c); uid != 0 {
		entry.UserID = &uid
	}
	if recordID != 0 {
		entry.RecordID = &recordID
	}
	a.activity.Record(c.UserContext(), entry)
}
