package handler

import (
	"strings"

	"go-inventory-ledger/internal/middleware"
	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
)

const tableTransactions = "transactions"

type TransactionHandler struct {
	auditor
	ledger service.LedgerService
}

func NewTransactionHandler(ledger service.LedgerService, activity service.ActivityLogService) *TransactionHandler {
	return &TransactionHandler{auditor: auditor{activity}, ledger: ledger}
}

// transactionFilter reads product_id, type, start_date and end_date.
func transactionFilter(c *fiber.Ctx) (repository.TransactionFilter, error) {
	productID, err := queryUint(c, "product_id")
	if err != nil {
		return repository.TransactionFilter{}, err
	}
	return repository.TransactionFilter{
		ProductID: productID,
		Type:      model.TransactionType(strings.ToUpper(strings.TrimSpace(c.Query("type")))),
		StartDate: c.Query("start_date"),
		EndDate:   c.Query("end_date"),
	}, nil
}

// GET /api/transactions
func (h *TransactionHandler) GetTransactions(c *fiber.Ctx) error {
	filter, err := transactionFilter(c)
	if err != nil {
		return err
	}
	txs, err := h.ledger.ListTransactions(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return okList(c, txs, len(txs))
}

// GET /api/transactions/:id
func (h *TransactionHandler) GetTransaction(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	tx, err := h.ledger.GetTransaction(c.UserContext(), id)
	if err != nil {
		return err
	}
	return ok(c, tx)
}

// POST /api/transactions/inbound
func (h *TransactionHandler) CreateInbound(c *fiber.Ctx) error {
	var req service.InboundRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	tx, err := h.ledger.ProcessInbound(c.UserContext(), req, middleware.Actor(c))
	if err != nil {
		return err
	}

	h.record(c, model.ActionCreate, tableTransactions, tx.ID, nil, tx)
	return created(c, "inbound recorded", tx)
}

// POST /api/transactions/outbound
func (h *TransactionHandler) CreateOutbound(c *fiber.Ctx) error {
	var req service.OutboundRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	tx, err := h.ledger.ProcessOutbound(c.UserContext(), req, middleware.Actor(c))
	if err != nil {
		return err
	}

	h.record(c, model.ActionCreate, tableTransactions, tx.ID, nil, tx)
	return created(c, "outbound recorded", tx)
}

// DeleteTransaction reverses the transaction's effect on stock and removes it
// DELETE /api/transactions/:id
func (h *TransactionHandler) DeleteTransaction(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	tx, err := h.ledger.DeleteTransaction(c.UserContext(), id, middleware.Actor(c))
	if err != nil {
		return err
	}

	h.record(c, model.ActionDelete, tableTransactions, id, tx, nil)
	return message(c, "transaction deleted")
}

// RecomputeStock rebuilds every product's stock from its history
// POST /api/transactions/recompute
func (h *TransactionHandler) RecomputeStock(c *fiber.Ctx) error {
	corrections, err := h.ledger.RecomputeAllStock(c.UserContext())
	if err != nil {
		return err
	}
	if len(corrections) > 0 {
		h.record(c, model.ActionUpdate, tableProducts, 0, nil, corrections)
	}
	return okList(c, corrections, len(corrections))
}
