package handler

import (
	"go-inventory-ledger/internal/middleware"
	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
)

const tableProducts = "products"

type ProductHandler struct {
	auditor
	products service.ProductService
}

func NewProductHandler(products service.ProductService, activity service.ActivityLogService) *ProductHandler {
	return &ProductHandler{auditor: auditor{activity}, products: products}
}

// GetProducts lists the catalog, optionally filtered by ?q= on name or codes
// GET /api/products
func (h *ProductHandler) GetProducts(c *fiber.Ctx) error {
	products, err := h.products.List(c.UserContext(), c.Query("q"))
	if err != nil {
		return err
	}
	return okList(c, products, len(products))
}

// GET /api/products/:id
func (h *ProductHandler) GetProduct(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	product, err := h.products.GetByID(c.UserContext(), id)
	if err != nil {
		return err
	}
	return ok(c, product)
}

// GET /api/products/code/internal/:code
func (h *ProductHandler) GetByInternalCode(c *fiber.Ctx) error {
	product, err := h.products.GetByInternalCode(c.UserContext(), c.Params("code"))
	if err != nil {
		return err
	}
	return ok(c, product)
}

// GET /api/products/code/unique/:code
func (h *ProductHandler) GetByUniqueCode(c *fiber.Ctx) error {
	product, err := h.products.GetByUniqueCode(c.UserContext(), c.Params("code"))
	if err != nil {
		return err
	}
	return ok(c, product)
}

// GET /api/products/status/low-stock
func (h *ProductHandler) GetLowStock(c *fiber.Ctx) error {
	products, err := h.products.LowStock(c.UserContext())
	if err != nil {
		return err
	}
	return okList(c, products, len(products))
}

// POST /api/products
func (h *ProductHandler) CreateProduct(c *fiber.Ctx) error {
	var req service.CreateProductRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	product, err := h.products.Create(c.UserContext(), req, middleware.Actor(c))
	if err != nil {
		return err
	}

	h.record(c, model.ActionCreate, tableProducts, product.ID, nil, product)
	return created(c, "product created", product)
}

// PUT /api/products/:id
func (h *ProductHandler) UpdateProduct(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req service.UpdateProductRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	old, updated, err := h.products.Update(c.UserContext(), id, req, middleware.Actor(c))
	if err != nil {
		return err
	}

	h.record(c, model.ActionUpdate, tableProducts, id, old, updated)
	return c.JSON(fiber.Map{"success": true, "message": "product updated", "data": updated})
}

// DeleteProduct removes the product and its whole transaction history
// DELETE /api/products/:id
func (h *ProductHandler) DeleteProduct(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	deleted, err := h.products.Delete(c.UserContext(), id, middleware.Actor(c))
	if err != nil {
		return err
	}

	h.record(c, model.ActionDelete, tableProducts, id, deleted, nil)
	return message(c, "product deleted")
}
