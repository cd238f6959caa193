package drafts

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/aura-events/composer/internal/composer"
	"github.com/aura-events/composer/internal/models"
	"github.com/aura-events/composer/internal/payments"
	"github.com/aura-events/composer/pkg/response"
)

// LoadPreferredPayments handles GET /drafts/:id/preferred-payments.
func (h *Handler) LoadPreferredPayments(c *gin.Context) {
	list, err := draftOf(c).LoadPreferredPayments(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, list)
}

// SavePreferredPayment handles POST /drafts/:id/preferred-payments (create)
// and PUT /drafts/:id/preferred-payments/:pid (update).
func (h *Handler) SavePreferredPayment(c *gin.Context) {
	var req models.PreferPaymentPatch
	if !bind(c, &req) {
		return
	}
	item, err := draftOf(c).SavePreferredPayment(c.Request.Context(), c.Param("pid"), req)
	if err != nil {
		var verr *composer.ValidationError
		if errors.As(err, &verr) || errors.Is(err, payments.ErrNotFound) {
			h.fail(c, err)
			return
		}
		response.ServiceUnavailable(c, "save account failed")
		return
	}
	if c.Param("pid") == "" {
		response.Created(c, item)
		return
	}
	response.OK(c, item)
}

// SelectPreferredPayment handles POST /drafts/:id/preferred-payments/:pid/select.
func (h *Handler) SelectPreferredPayment(c *gin.Context) {
	bank, err := draftOf(c).SelectPreferredPayment(c.Param("pid"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, bank)
}

// DeletePreferredPayment handles DELETE /drafts/:id/preferred-payments/:pid.
func (h *Handler) DeletePreferredPayment(c *gin.Context) {
	if err := draftOf(c).DeletePreferredPayment(c.Param("pid")); err != nil {
		h.fail(c, err)
		return
	}
	response.Accepted(c, nil)
}

// UndoPreferredPaymentDeletion handles POST /drafts/:id/preferred-payments/:pid/undo.
func (h *Handler) UndoPreferredPaymentDeletion(c *gin.Context) {
	d := draftOf(c)
	if err := d.UndoPreferredPaymentDeletion(c.Param("pid")); err != nil {
		h.fail(c, err)
		return
	}
	response.OK(c, d.PreferredPayments())
}

// BankTransferRequest is the body for PUT /drafts/:id/bank-transfer. Absent members are left as they are.
type BankTransferRequest struct {
	Enable *bool `json:"enable"`
	payments.BankPatch
	Description       *string `json:"description"`
	RemoveDescription bool    `json:"remove_description"`
}

// UpdateBankTransfer handles PUT /drafts/:id/bank-transfer.
func (h *Handler) UpdateBankTransfer(c *gin.Context) {
	var req BankTransferRequest
	if !bind(c, &req) {
		return
	}
	d := draftOf(c)
	if req.Enable != nil {
		d.SetBankTransferEnabled(*req.Enable)
	}
	if req.BankName != nil || req.BranchName != nil || req.AccountName != nil || req.Account != nil {
		d.UpdateBankTransfer(req.BankPatch)
	}
	switch {
	case req.RemoveDescription:
		d.SetBankTransferDescription(nil)
	case req.Description != nil:
		d.SetBankTransferDescription(req.Description)
	}
	response.OK(c, d.Event().BankTransfer)
}

// CashRequest is the body for PUT /drafts/:id/cash.
type CashRequest struct {
	Enable            *bool   `json:"enable"`
	Description       *string `json:"description"`
	RemoveDescription bool    `json:"remove_description"`
}

// UpdateCash handles PUT /drafts/:id/cash.
func (h *Handler) UpdateCash(c *gin.Context) {
	var req CashRequest
	if !bind(c, &req) {
		return
	}
	d := draftOf(c)
	if req.Enable != nil {
		d.SetCashEnabled(*req.Enable)
	}
	switch {
	case req.RemoveDescription:
		d.SetCashDescription(nil)
	case req.Description != nil:
		d.SetCashDescription(req.Description)
	}
	response.OK(c, d.Event().CashPayment)
}
