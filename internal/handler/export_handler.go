package handler

import (
	"fmt"
	"net/url"

	"go-inventory-ledger/internal/export"
	"go-inventory-ledger/internal/middleware"
	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
)

// maxUploadSize bounds spreadsheet uploads.
const maxUploadSize = 10 << 20

type ExportHandler struct {
	auditor
	exports service.ExportService
}

func NewExportHandler(exports service.ExportService, activity service.ActivityLogService) *ExportHandler {
	return &ExportHandler{auditor: auditor{activity}, exports: exports}
}

func sendFile(c *fiber.Ctx, file *service.ExportFile) error {
	c.Set(fiber.HeaderContentType, file.ContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename*=UTF-8''%s", url.PathEscape(file.Name)))
	return c.Send(file.Data)
}

// Export returns a handler for one export kind. ?format=csv switches from xlsx.
func (h *ExportHandler) Export(kind export.Kind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		format, err := export.ParseFormat(c.Query("format"))
		if err != nil {
			return service.InvalidInput("%s", err.Error())
		}
		filter, err := transactionFilter(c)
		if err != nil {
			return err
		}
		file, err := h.exports.Export(c.UserContext(), kind, format, filter)
		if err != nil {
			return err
		}
		return sendFile(c, file)
	}
}

// Custom renders a filtered products, transactions or inventory export.
// POST /api/export/custom
func (h *ExportHandler) Custom(c *fiber.Ctx) error {
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		return service.InvalidInput("%s", err.Error())
	}
	var req service.CustomExportRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	file, err := h.exports.Custom(c.UserContext(), req, format)
	if err != nil {
		return err
	}
	return sendFile(c, file)
}

// Template returns the upload form for products, inbound or outbound rows.
func (h *ExportHandler) Template(kind export.Kind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		format, err := export.ParseFormat(c.Query("format"))
		if err != nil {
			return service.InvalidInput("%s", err.Error())
		}
		file, err := h.exports.Template(kind, format)
		if err != nil {
			return err
		}
		return sendFile(c, file)
	}
}

// Upload applies the rows of a multipart "file" spreadsheet.
func (h *ExportHandler) Upload(kind export.Kind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header, err := c.FormFile("file")
		if err != nil {
			return service.InvalidInput("file is required")
		}
		if header.Size > maxUploadSize {
			return service.InvalidInput("file exceeds %d MB", maxUploadSize>>20)
		}
		f, err := header.Open()
		if err != nil {
			return service.InvalidInput("cannot open upload: %v", err)
		}
		defer f.Close()

		result, err := h.exports.Upload(c.UserContext(), kind, header.Filename, f, middleware.Actor(c))
		if err != nil {
			return err
		}

		if result.SuccessCount > 0 {
			entity := tableTransactions
			if kind == export.KindProducts {
				entity = tableProducts
			}
			h.record(c, model.ActionCreate, entity, 0, nil, fiber.Map{
				"upload":        string(kind),
				"file":          header.Filename,
				"success_count": result.SuccessCount,
				"failed_count":  result.FailedCount,
			})
		}
		return c.JSON(fiber.Map{"success": true, "data": result, "message": result.Message})
	}
}
