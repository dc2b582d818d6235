package handler

import (
	"go-inventory-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
)

type InventoryHandler struct {
	inventory service.InventoryService
	ledger    service.LedgerService
}

func NewInventoryHandler(inventory service.InventoryService, ledger service.LedgerService) *InventoryHandler {
	return &InventoryHandler{inventory: inventory, ledger: ledger}
}

// GET /api/inventory/current
func (h *InventoryHandler) GetCurrent(c *fiber.Ctx) error {
	items, err := h.inventory.Current(c.UserContext())
	if err != nil {
		return err
	}
	return okList(c, items, len(items))
}

// GET /api/inventory/summary
func (h *InventoryHandler) GetSummary(c *fiber.Ctx) error {
	summary, err := h.inventory.Summary(c.UserContext())
	if err != nil {
		return err
	}
	return ok(c, summary)
}

// GET /api/inventory/low-stock
func (h *InventoryHandler) GetLowStock(c *fiber.Ctx) error {
	items, err := h.inventory.LowStock(c.UserContext())
	if err != nil {
		return err
	}
	return okList(c, items, len(items))
}

// GET /api/inventory/out-of-stock
func (h *InventoryHandler) GetOutOfStock(c *fiber.Ctx) error {
	items, err := h.inventory.OutOfStock(c.UserContext())
	if err != nil {
		return err
	}
	return okList(c, items, len(items))
}

// GetTurnover returns the 30 day turnover ratio, for one product when ?product_id= is set
// GET /api/inventory/turnover
func (h *InventoryHandler) GetTurnover(c *fiber.Ctx) error {
	productID, err := queryUint(c, "product_id")
	if err != nil {
		return err
	}
	rows, err := h.ledger.StockTurnover(c.UserContext(), productID)
	if err != nil {
		return err
	}
	return okList(c, rows, len(rows))
}

// GetMovements returns the product's timeline with running stock
// GET /api/inventory/movements/:productId?days=30
func (h *InventoryHandler) GetMovements(c *fiber.Ctx) error {
	id, err := paramID(c, "productId")
	if err != nil {
		return err
	}
	movements, err := h.ledger.StockMovements(c.UserContext(), id, queryInt(c, "days", 30))
	if err != nil {
		return err
	}
	return okList(c, movements, len(movements))
}

// GET /api/inventory/status/:productId
func (h *InventoryHandler) GetProductStatus(c *fiber.Ctx) error {
	id, err := paramID(c, "productId")
	if err != nil {
		return err
	}
	status, err := h.inventory.ProductStatus(c.UserContext(), id)
	if err != nil {
		return err
	}
	return ok(c, status)
}
