package handler

import (
	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
)

const tableBackups = "backups"

type BackupHandler struct {
	auditor
	backups       service.BackupService
	retentionDays int
}

func NewBackupHandler(backups service.BackupService, activity service.ActivityLogService, retentionDays int) *BackupHandler {
	return &BackupHandler{auditor: auditor{activity}, backups: backups, retentionDays: retentionDays}
}

// POST /api/backups
func (h *BackupHandler) CreateBackup(c *fiber.Ctx) error {
	info, err := h.backups.Create(c.UserContext(), service.BackupReasonManual)
	if err != nil {
		return err
	}
	h.record(c, model.ActionCreate, tableBackups, 0, nil, info)
	return created(c, "backup created", info)
}

// GET /api/backups
func (h *BackupHandler) ListBackups(c *fiber.Ctx) error {
	backups, err := h.backups.List()
	if err != nil {
		return err
	}
	return okList(c, backups, len(backups))
}

type restoreRequest struct {
	FileName string `json:"filename"`
}

// RestoreBackup swaps the database file; the server must be restarted afterwards
// POST /api/backups/restore
func (h *BackupHandler) RestoreBackup(c *fiber.Ctx) error {
	var req restoreRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	safety, err := h.backups.Restore(c.UserContext(), req.FileName)
	if err != nil {
		return err
	}
	h.record(c, model.ActionUpdate, tableBackups, 0, nil, fiber.Map{"restored": req.FileName, "safety_backup": safety.FileName})
	return c.JSON(fiber.Map{
		"success":       true,
		"message":       "database restored, restart the server to load it",
		"safety_backup": safety,
	})
}

type cleanupRequest struct {
	Days int `json:"days"`
}

// CleanupBackups deletes backups older than days (body), defaulting to the configured retention
// POST /api/backups/cleanup
func (h *BackupHandler) CleanupBackups(c *fiber.Ctx) error {
	req := cleanupRequest{Days: h.retentionDays}
	if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return err
		}
	}
	removed, err := h.backups.Cleanup(req.Days)
	if err != nil {
		return err
	}
	if removed > 0 {
		h.record(c, model.ActionDelete, tableBackups, 0, fiber.Map{"older_than_days": req.Days, "removed": removed}, nil)
	}
	return c.JSON(fiber.Map{"success": true, "removed": removed})
}

// DELETE /api/backups/:filename
func (h *BackupHandler) DeleteBackup(c *fiber.Ctx) error {
	name := c.Params("filename")
	if err := h.backups.Delete(name); err != nil {
		return err
	}
	h.record(c, model.ActionDelete, tableBackups, 0, fiber.Map{"filename": name}, nil)
	return message(c, "backup deleted")
}
